package game

import (
	"context"
	"strconv"

	"prodbot/internal/store"
)

// RankDetails is the per-user view behind the myrank and viewwallet
// commands. Ranked is false when the user has no point record at all; that
// is the default-unranked state, not an error.
type RankDetails struct {
	UserID        int64
	Ranked        bool
	Rank          int64
	Score         int64
	SeasonsPlayed int64
	Top30Finishes int64
	TokenBalance  int64
}

func (d RankDetails) RankLabel() string {
	if !d.Ranked {
		return "N/A"
	}
	return strconv.FormatInt(d.Rank, 10)
}

// UserStats computes a user's dense rank over every point record: rank is
// 1 plus the count of distinct strictly greater scores, so equal scores
// share a rank. The token balance is fetched independently and defaults to
// zero when absent.
func (s *Service) UserStats(ctx context.Context, userID int64) (RankDetails, error) {
	out := RankDetails{UserID: userID}

	records, err := s.store.ListPointRecords(ctx)
	if err != nil {
		return out, err
	}
	for _, rec := range records {
		if rec.UserID != userID {
			continue
		}
		out.Ranked = true
		out.Rank = denseRank(records, rec.Score)
		out.Score = rec.Score
		out.SeasonsPlayed = rec.SeasonsPlayed
		out.Top30Finishes = rec.Top30Finishes
		break
	}

	tokens, _, err := s.store.TokenBalance(ctx, userID)
	if err != nil {
		return out, err
	}
	out.TokenBalance = tokens
	return out, nil
}

// TopN is the shared snapshot behind the published leaderboard and the
// top-30 bookkeeping of a season reset: positive scores only, highest
// first, ties in storage order.
func (s *Service) TopN(ctx context.Context, n int) ([]store.LeaderboardEntry, error) {
	return s.store.TopPoints(ctx, n)
}

func denseRank(records []store.PointRecord, score int64) int64 {
	greater := make(map[int64]struct{})
	for _, rec := range records {
		if rec.Score > score {
			greater[rec.Score] = struct{}{}
		}
	}
	return int64(len(greater)) + 1
}
