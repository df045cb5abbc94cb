package game

import (
	"context"
	"errors"
	"testing"
)

func TestTokenLedger(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	balance, err := svc.GiveTokens(ctx, 1, 50)
	if err != nil {
		t.Fatalf("give tokens: %v", err)
	}
	if balance != 50 {
		t.Fatalf("balance=%d want 50", balance)
	}

	balance, err = svc.TakeTokens(ctx, 1, 20)
	if err != nil {
		t.Fatalf("take tokens: %v", err)
	}
	if balance != 30 {
		t.Fatalf("balance=%d want 30", balance)
	}

	// Overdraw clamps at zero instead of going negative.
	balance, err = svc.TakeTokens(ctx, 1, 100)
	if err != nil {
		t.Fatalf("overdraw: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance=%d want 0", balance)
	}

	if _, err := svc.GiveTokens(ctx, 1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.TakeTokens(ctx, 1, -3); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTokenBalanceUnknownUser(t *testing.T) {
	svc, _ := newTestService()
	balance, err := svc.TokenBalance(context.Background(), 99)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("unknown user balance=%d want 0", balance)
	}
}

func TestPointLedger(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.GivePoints(ctx, 1, 100); err != nil {
		t.Fatalf("give points: %v", err)
	}
	score, err := svc.TakePoints(ctx, 1, 250)
	if err != nil {
		t.Fatalf("take points: %v", err)
	}
	if score != 0 {
		t.Fatalf("score=%d want 0 after clamped removal", score)
	}
}

func TestSetPointsRequiresHigherScore(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.SetPoints(ctx, 1, 100); err != nil {
		t.Fatalf("initial set: %v", err)
	}
	if err := svc.SetPoints(ctx, 1, 100); !errors.Is(err, ErrScoreNotRaised) {
		t.Fatalf("equal score must be rejected, got %v", err)
	}
	if err := svc.SetPoints(ctx, 1, 50); !errors.Is(err, ErrScoreNotRaised) {
		t.Fatalf("lower score must be rejected, got %v", err)
	}
	if err := svc.SetPoints(ctx, 1, 101); err != nil {
		t.Fatalf("raised set: %v", err)
	}
	if err := svc.SetPoints(ctx, 1, -5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative score must be rejected, got %v", err)
	}

	// A user with no record yet may be set to any non-negative score.
	if err := svc.SetPoints(ctx, 2, 0); err != nil {
		t.Fatalf("set for new user: %v", err)
	}
}

func TestWalletRegistry(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	addr := "0x1234567890abcdef1234567890abcdef12345678"
	other := "0xABCDEF1234567890ABCDEF1234567890ABCDEF12"

	if err := svc.RegisterWallet(ctx, 1, "not-a-wallet"); !errors.Is(err, ErrInvalidWallet) {
		t.Fatalf("expected ErrInvalidWallet, got %v", err)
	}
	if err := svc.UpdateWalletAddress(ctx, 1, other); !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("update before register must fail, got %v", err)
	}

	if err := svc.RegisterWallet(ctx, 1, addr); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RegisterWallet(ctx, 1, other); !errors.Is(err, ErrWalletExists) {
		t.Fatalf("second register must fail, got %v", err)
	}

	if err := svc.UpdateWalletAddress(ctx, 1, other); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok, err := svc.WalletAddress(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("wallet lookup: ok=%v err=%v", ok, err)
	}
	if got != other {
		t.Fatalf("wallet=%q want %q", got, other)
	}

	_, ok, err = svc.WalletAddress(ctx, 2)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Fatalf("user 2 must have no wallet")
	}
}
