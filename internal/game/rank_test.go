package game

import (
	"context"
	"testing"
)

func TestUserStatsDenseRank(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	seed := map[int64]int64{1: 300, 2: 200, 3: 200, 4: 100}
	for id, score := range seed {
		if _, err := st.AddPoints(ctx, id, score); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	wantRanks := map[int64]int64{1: 1, 2: 2, 3: 2, 4: 3}
	for id, want := range wantRanks {
		stats, err := svc.UserStats(ctx, id)
		if err != nil {
			t.Fatalf("stats for %d: %v", id, err)
		}
		if !stats.Ranked {
			t.Fatalf("user %d must be ranked", id)
		}
		if stats.Rank != want {
			t.Fatalf("user %d rank=%d want %d", id, stats.Rank, want)
		}
	}
}

func TestUserStatsUnranked(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	if _, err := st.AddTokens(ctx, 7, 40); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	stats, err := svc.UserStats(ctx, 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Ranked {
		t.Fatalf("user with no point record must be unranked")
	}
	if stats.RankLabel() != "N/A" {
		t.Fatalf("rank label=%q want N/A", stats.RankLabel())
	}
	if stats.TokenBalance != 40 {
		t.Fatalf("token balance=%d want 40", stats.TokenBalance)
	}
}

func TestTopNExcludesZeroScores(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	for i := int64(1); i <= 40; i++ {
		if _, err := st.AddPoints(ctx, i, i); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := st.SetPointScore(ctx, 41, 0); err != nil {
		t.Fatalf("seed zero: %v", err)
	}

	top, err := svc.TopN(ctx, LeaderboardSize)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != LeaderboardSize {
		t.Fatalf("len=%d want %d", len(top), LeaderboardSize)
	}
	if top[0].UserID != 40 || top[0].Score != 40 {
		t.Fatalf("first entry=%+v want user 40 score 40", top[0])
	}
	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			t.Fatalf("entries out of order at %d", i)
		}
	}
	for _, entry := range top {
		if entry.UserID == 41 {
			t.Fatalf("zero-score user must be excluded")
		}
	}
}
