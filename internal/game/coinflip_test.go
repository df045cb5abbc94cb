package game

import (
	"context"
	"errors"
	"testing"

	"prodbot/internal/store"
)

func seedCoinflip(t *testing.T) (*Service, *memStore) {
	t.Helper()
	svc, st := newTestService()
	ctx := context.Background()
	if _, err := st.AddTokens(ctx, 1, 100); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := st.AddTokens(ctx, 2, 100); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc, st
}

func TestCoinflipSettlement(t *testing.T) {
	svc, st := seedCoinflip(t)
	ctx := context.Background()

	challenge, err := svc.ChallengeCoinflip(ctx, 1, 2, 30)
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if challenge.ID == "" {
		t.Fatalf("challenge must get an id")
	}

	result, err := svc.AcceptCoinflip(ctx, 2)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if result.Heads && result.WinnerID != 1 {
		t.Fatalf("heads must pay the challenger, winner=%d", result.WinnerID)
	}
	if !result.Heads && result.WinnerID != 2 {
		t.Fatalf("tails must pay the challenged user, winner=%d", result.WinnerID)
	}

	winnerBalance, _, _ := st.TokenBalance(ctx, result.WinnerID)
	loserBalance, _, _ := st.TokenBalance(ctx, result.LoserID)
	if winnerBalance != 130 || loserBalance != 70 {
		t.Fatalf("balances=%d/%d want 130/70", winnerBalance, loserBalance)
	}
	if winnerBalance+loserBalance != 200 {
		t.Fatalf("tokens must be conserved, total=%d", winnerBalance+loserBalance)
	}

	// The challenge is consumed; a second accept finds nothing.
	if _, err := svc.AcceptCoinflip(ctx, 2); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge, got %v", err)
	}
}

func TestCoinflipValidation(t *testing.T) {
	svc, _ := seedCoinflip(t)
	ctx := context.Background()

	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero bet: %v", err)
	}
	if _, err := svc.ChallengeCoinflip(ctx, 1, 1, 10); !errors.Is(err, ErrSelfChallenge) {
		t.Fatalf("self challenge: %v", err)
	}
	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 500); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("oversized bet: %v", err)
	}
	if _, err := svc.ChallengeCoinflip(ctx, 3, 2, 10); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("broke challenger: %v", err)
	}
}

func TestCoinflipSingleChallengeLocks(t *testing.T) {
	svc, st := seedCoinflip(t)
	ctx := context.Background()
	if _, err := st.AddTokens(ctx, 3, 100); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 10); err != nil {
		t.Fatalf("challenge: %v", err)
	}
	// One pending challenge per challenged user.
	if _, err := svc.ChallengeCoinflip(ctx, 3, 2, 10); !errors.Is(err, ErrChallengePending) {
		t.Fatalf("expected ErrChallengePending, got %v", err)
	}
	// One outstanding challenge per challenger.
	if _, err := svc.ChallengeCoinflip(ctx, 1, 3, 10); !errors.Is(err, ErrChallengerBusy) {
		t.Fatalf("expected ErrChallengerBusy, got %v", err)
	}

	// Denying frees both parties.
	if _, err := svc.DenyCoinflip(2); err != nil {
		t.Fatalf("deny: %v", err)
	}
	if _, err := svc.ChallengeCoinflip(ctx, 1, 3, 10); err != nil {
		t.Fatalf("challenge after deny: %v", err)
	}
}

func TestCoinflipDenyMovesNothing(t *testing.T) {
	svc, st := seedCoinflip(t)
	ctx := context.Background()

	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 40); err != nil {
		t.Fatalf("challenge: %v", err)
	}
	challenge, err := svc.DenyCoinflip(2)
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if challenge.Bet != 40 {
		t.Fatalf("bet=%d want 40", challenge.Bet)
	}
	for _, id := range []int64{1, 2} {
		balance, _, _ := st.TokenBalance(ctx, id)
		if balance != 100 {
			t.Fatalf("user %d balance=%d want 100", id, balance)
		}
	}
}

func TestCoinflipCancel(t *testing.T) {
	svc, _ := seedCoinflip(t)
	ctx := context.Background()

	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 10); err != nil {
		t.Fatalf("challenge: %v", err)
	}

	// A bystander cannot cancel.
	if _, err := svc.CancelCoinflip(99); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("bystander cancel: %v", err)
	}
	if _, ok := svc.PendingChallenge(2); !ok {
		t.Fatalf("challenge must survive a bystander cancel")
	}

	// The challenger can withdraw their own challenge.
	if _, err := svc.CancelCoinflip(1); err != nil {
		t.Fatalf("challenger cancel: %v", err)
	}
	if _, ok := svc.PendingChallenge(2); ok {
		t.Fatalf("challenge must be gone after cancel")
	}

	// The challenged party can cancel too.
	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 10); err != nil {
		t.Fatalf("rechallenge: %v", err)
	}
	if _, err := svc.CancelCoinflip(2); err != nil {
		t.Fatalf("challenged cancel: %v", err)
	}
}

func TestCoinflipShortfallClamps(t *testing.T) {
	svc, st := seedCoinflip(t)
	ctx := context.Background()

	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 80); err != nil {
		t.Fatalf("challenge: %v", err)
	}
	// The loser spends down after the challenge is opened.
	if _, err := st.RemoveTokens(ctx, 1, 70); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := st.RemoveTokens(ctx, 2, 70); err != nil {
		t.Fatalf("drain: %v", err)
	}

	result, err := svc.AcceptCoinflip(ctx, 2)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if result.LoserBalance != 0 {
		t.Fatalf("loser balance=%d want clamped 0", result.LoserBalance)
	}
	if result.WinnerBalance != 110 {
		t.Fatalf("winner balance=%d want 110", result.WinnerBalance)
	}
}

// failingTransferStore breaks settlement while leaving every other store
// operation intact.
type failingTransferStore struct {
	*memStore
}

func (f *failingTransferStore) TransferTokens(_ context.Context, _, _, _ int64) (store.TransferResult, error) {
	return store.TransferResult{}, errors.New("transfer failed")
}

func TestCoinflipSettlementFailureVoidsWager(t *testing.T) {
	st := newMemStore()
	svc := NewService(&failingTransferStore{memStore: st}, nil, nil)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		if _, err := st.AddTokens(ctx, id, 100); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 30); err != nil {
		t.Fatalf("challenge: %v", err)
	}
	if _, err := svc.AcceptCoinflip(ctx, 2); err == nil {
		t.Fatalf("accept must surface the transfer error")
	}

	// The challenge is consumed even though settlement failed.
	if _, ok := svc.PendingChallenge(2); ok {
		t.Fatalf("failed settlement must not leave the challenge pending")
	}
	if _, err := svc.AcceptCoinflip(ctx, 2); !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("expected ErrNoChallenge, got %v", err)
	}

	// No tokens moved.
	for _, id := range []int64{1, 2} {
		balance, _, _ := st.TokenBalance(ctx, id)
		if balance != 100 {
			t.Fatalf("user %d balance=%d want 100", id, balance)
		}
	}

	// Both parties are free to wager again.
	if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 30); err != nil {
		t.Fatalf("rechallenge: %v", err)
	}
}

func TestCoinflipFairness(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	if _, err := st.AddTokens(ctx, 1, 1_000_000); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := st.AddTokens(ctx, 2, 1_000_000); err != nil {
		t.Fatalf("seed: %v", err)
	}

	heads := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		if _, err := svc.ChallengeCoinflip(ctx, 1, 2, 1); err != nil {
			t.Fatalf("challenge %d: %v", i, err)
		}
		result, err := svc.AcceptCoinflip(ctx, 2)
		if err != nil {
			t.Fatalf("accept %d: %v", i, err)
		}
		if result.Heads {
			heads++
		}
	}
	// A fair coin stays within 10 sigma of the mean over 2000 trials.
	if heads < 700 || heads > 1300 {
		t.Fatalf("heads=%d out of %d looks biased", heads, trials)
	}
}
