package game

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"prodbot/internal/store"
)

// ResetSummary describes one production-run rollover.
type ResetSummary struct {
	PreviousRun  int64
	CurrentRun   int64
	Deadline     time.Time
	Participants int64
	TopFinishers []store.LeaderboardEntry
}

// SeasonReset rolls the game over into the next production run:
//
//  1. read the current run number (1 when unset)
//  2. increment it
//  3. credit seasons_played for everyone with a positive score
//  4. credit top_30_finishes for the current top 30
//  5. stamp the next reset deadline (now + seasonLength, epoch millis)
//  6. zero every point score
//  7. republish the leaderboard
//
// Steps run in order and the first failure aborts the rest. There is no
// rollback: re-running after a partial failure double-increments the run
// counter and seasons_played, so operators must reconcile by hand.
func (s *Service) SeasonReset(ctx context.Context, seasonLength time.Duration) (ResetSummary, error) {
	var out ResetSummary

	run, err := s.currentProductionRun(ctx)
	if err != nil {
		return out, fmt.Errorf("read production run: %w", err)
	}
	out.PreviousRun = run
	out.CurrentRun = run + 1

	if err := s.store.SetSetting(ctx, store.SettingProductionRun, strconv.FormatInt(out.CurrentRun, 10)); err != nil {
		return out, fmt.Errorf("increment production run: %w", err)
	}

	participants, err := s.store.IncrementSeasonsPlayed(ctx)
	if err != nil {
		return out, fmt.Errorf("credit seasons played: %w", err)
	}
	out.Participants = participants

	top, err := s.TopN(ctx, LeaderboardSize)
	if err != nil {
		return out, fmt.Errorf("snapshot top %d: %w", LeaderboardSize, err)
	}
	ids := make([]int64, 0, len(top))
	for _, e := range top {
		ids = append(ids, e.UserID)
	}
	if err := s.store.IncrementTopFinishes(ctx, ids); err != nil {
		return out, fmt.Errorf("credit top finishes: %w", err)
	}
	out.TopFinishers = top

	out.Deadline = time.Now().Add(seasonLength)
	millis := strconv.FormatInt(out.Deadline.UnixMilli(), 10)
	if err := s.store.SetSetting(ctx, store.SettingLeaderboardResetTime, millis); err != nil {
		return out, fmt.Errorf("stamp reset deadline: %w", err)
	}

	if err := s.store.ZeroPointScores(ctx); err != nil {
		return out, fmt.Errorf("zero point scores: %w", err)
	}

	if err := s.refreshLeaderboard(ctx); err != nil {
		return out, fmt.Errorf("republish leaderboard: %w", err)
	}

	s.log.Info("season reset complete",
		"previous_run", out.PreviousRun,
		"current_run", out.CurrentRun,
		"participants", out.Participants,
		"top_finishers", len(out.TopFinishers),
		"deadline", out.Deadline)
	return out, nil
}

// ResetScores zeroes every point score without touching the run counter or
// the seasonal counters (the plain reset command).
func (s *Service) ResetScores(ctx context.Context) error {
	if err := s.store.ZeroPointScores(ctx); err != nil {
		return err
	}
	return s.refreshLeaderboard(ctx)
}

func (s *Service) currentProductionRun(ctx context.Context) (int64, error) {
	raw, ok, err := s.store.Setting(ctx, store.SettingProductionRun)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	run, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed production run %q: %w", raw, err)
	}
	return run, nil
}
