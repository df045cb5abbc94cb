package game

import (
	"context"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"prodbot/internal/store"
)

// Store is the persistence surface the game consumes. Reads of per-user rows
// report absence explicitly; an absent row is the default-zero state, never
// an error.
type Store interface {
	TokenBalance(ctx context.Context, userID int64) (int64, bool, error)
	AddTokens(ctx context.Context, userID, amount int64) (int64, error)
	RemoveTokens(ctx context.Context, userID, amount int64) (int64, error)
	TransferTokens(ctx context.Context, winnerID, loserID, amount int64) (store.TransferResult, error)
	TopTokens(ctx context.Context, n int) ([]store.LeaderboardEntry, error)

	PointRecord(ctx context.Context, userID int64) (store.PointRecord, bool, error)
	AddPoints(ctx context.Context, userID, amount int64) (int64, error)
	RemovePoints(ctx context.Context, userID, amount int64) (int64, error)
	SetPointScore(ctx context.Context, userID, score int64) error
	ListPointRecords(ctx context.Context) ([]store.PointRecord, error)
	TopPoints(ctx context.Context, n int) ([]store.LeaderboardEntry, error)
	IncrementSeasonsPlayed(ctx context.Context) (int64, error)
	IncrementTopFinishes(ctx context.Context, userIDs []int64) error
	ZeroPointScores(ctx context.Context) error

	Setting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	Wallet(ctx context.Context, userID int64) (string, bool, error)
	InsertWallet(ctx context.Context, userID int64, address string) (bool, error)
	UpdateWallet(ctx context.Context, userID int64, address string) (bool, error)
}

// Refresher republishes the leaderboard display. The Service calls it after
// season resets; the command layer calls it after point mutations.
type Refresher interface {
	Publish(ctx context.Context) error
}

type Service struct {
	store       Store
	leaderboard Refresher
	log         *slog.Logger

	mu   sync.Mutex
	rand *mathrand.Rand

	cfMu          sync.Mutex
	cfPending     map[int64]*Challenge
	cfChallengers map[int64]struct{}
}

func NewService(st Store, leaderboard Refresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         st,
		leaderboard:   leaderboard,
		log:           logger,
		rand:          mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		cfPending:     make(map[int64]*Challenge),
		cfChallengers: make(map[int64]struct{}),
	}
}

func (s *Service) GiveTokens(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.store.AddTokens(ctx, userID, amount)
}

// TakeTokens debits a token balance, clamping the stored value at zero.
func (s *Service) TakeTokens(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.store.RemoveTokens(ctx, userID, amount)
}

func (s *Service) TokenBalance(ctx context.Context, userID int64) (int64, error) {
	balance, _, err := s.store.TokenBalance(ctx, userID)
	return balance, err
}

func (s *Service) TopTokenHolders(ctx context.Context, n int) ([]store.LeaderboardEntry, error) {
	return s.store.TopTokens(ctx, n)
}

func (s *Service) GivePoints(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.store.AddPoints(ctx, userID, amount)
}

// TakePoints debits a point score, clamping the stored value at zero.
func (s *Service) TakePoints(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.store.RemovePoints(ctx, userID, amount)
}

// SetPoints overwrites a point score. The new score must beat the current
// one; lowering a score goes through TakePoints instead.
func (s *Service) SetPoints(ctx context.Context, userID, score int64) error {
	if score < 0 {
		return ErrInvalidAmount
	}
	current, ok, err := s.store.PointRecord(ctx, userID)
	if err != nil {
		return err
	}
	if ok && score <= current.Score {
		return fmt.Errorf("%w (current score: %d)", ErrScoreNotRaised, current.Score)
	}
	return s.store.SetPointScore(ctx, userID, score)
}

func (s *Service) RegisterWallet(ctx context.Context, userID int64, address string) error {
	address = strings.TrimSpace(address)
	if err := ValidateWalletAddress(address); err != nil {
		return err
	}
	inserted, err := s.store.InsertWallet(ctx, userID, address)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrWalletExists
	}
	return nil
}

func (s *Service) UpdateWalletAddress(ctx context.Context, userID int64, address string) error {
	address = strings.TrimSpace(address)
	if err := ValidateWalletAddress(address); err != nil {
		return err
	}
	updated, err := s.store.UpdateWallet(ctx, userID, address)
	if err != nil {
		return err
	}
	if !updated {
		return ErrWalletNotFound
	}
	return nil
}

func (s *Service) WalletAddress(ctx context.Context, userID int64) (string, bool, error) {
	return s.store.Wallet(ctx, userID)
}

func (s *Service) refreshLeaderboard(ctx context.Context) error {
	if s.leaderboard == nil {
		return nil
	}
	return s.leaderboard.Publish(ctx)
}

func (s *Service) coinflipHeads() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(2) == 0
}
