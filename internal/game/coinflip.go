package game

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Challenge is a pending coinflip wager. Challenges live only in memory: a
// restart drops them all, and no funds move before resolution.
type Challenge struct {
	ID           string
	ChallengerID int64
	ChallengedID int64
	Bet          int64
	CreatedAt    time.Time
}

// FlipResult reports a resolved coinflip. Heads means the challenger won.
type FlipResult struct {
	Challenge
	Heads         bool
	WinnerID      int64
	LoserID       int64
	WinnerBalance int64
	LoserBalance  int64
}

// ChallengeCoinflip opens a wager from challenger to challenged. A user can
// be the challenged party of at most one pending challenge and the
// challenger of at most one outstanding challenge. Both balances are checked
// here but not escrowed; they are checked again only implicitly at
// settlement, which is an accepted race.
func (s *Service) ChallengeCoinflip(ctx context.Context, challengerID, challengedID, bet int64) (Challenge, error) {
	if bet <= 0 {
		return Challenge{}, ErrInvalidAmount
	}
	if challengerID == challengedID {
		return Challenge{}, ErrSelfChallenge
	}

	balance, _, err := s.store.TokenBalance(ctx, challengerID)
	if err != nil {
		return Challenge{}, err
	}
	if balance < bet {
		return Challenge{}, ErrInsufficientTokens
	}
	opponentBalance, _, err := s.store.TokenBalance(ctx, challengedID)
	if err != nil {
		return Challenge{}, err
	}
	if opponentBalance < bet {
		return Challenge{}, ErrInsufficientTokens
	}

	c := Challenge{
		ID:           uuid.NewString(),
		ChallengerID: challengerID,
		ChallengedID: challengedID,
		Bet:          bet,
		CreatedAt:    time.Now(),
	}

	s.cfMu.Lock()
	defer s.cfMu.Unlock()
	if _, exists := s.cfPending[challengedID]; exists {
		return Challenge{}, ErrChallengePending
	}
	if _, busy := s.cfChallengers[challengerID]; busy {
		return Challenge{}, ErrChallengerBusy
	}
	s.cfPending[challengedID] = &c
	s.cfChallengers[challengerID] = struct{}{}

	s.log.Info("coinflip challenge opened",
		"challenge_id", c.ID,
		"challenger_id", challengerID,
		"challenged_id", challengedID,
		"bet", bet)
	return c, nil
}

// AcceptCoinflip resolves the challenge pending against challengedID with a
// fair coin. The entry is claimed and removed under the lock before any
// balance moves, so a second accept racing the first gets ErrNoChallenge
// instead of a double settlement. The loser's debit clamps at zero; an
// underfunded loser is logged as a data-integrity warning, never blocks the
// already-resolved flip. If the transfer itself fails the challenge stays
// consumed and no tokens move: the wager is voided rather than re-queued,
// and the failure is logged with the challenge id so operators can settle
// by hand.
func (s *Service) AcceptCoinflip(ctx context.Context, challengedID int64) (FlipResult, error) {
	c, err := s.claimChallenge(challengedID)
	if err != nil {
		return FlipResult{}, err
	}

	out := FlipResult{Challenge: c, Heads: s.coinflipHeads()}
	if out.Heads {
		out.WinnerID, out.LoserID = c.ChallengerID, c.ChallengedID
	} else {
		out.WinnerID, out.LoserID = c.ChallengedID, c.ChallengerID
	}

	transfer, err := s.store.TransferTokens(ctx, out.WinnerID, out.LoserID, c.Bet)
	if err != nil {
		s.log.Error("coinflip settlement failed, wager voided",
			"challenge_id", c.ID,
			"winner_id", out.WinnerID,
			"loser_id", out.LoserID,
			"bet", c.Bet,
			"err", err)
		return out, err
	}
	out.WinnerBalance = transfer.WinnerBalance
	out.LoserBalance = transfer.LoserBalance
	if transfer.Shortfall > 0 {
		s.log.Warn("coinflip loser could not cover the bet",
			"challenge_id", c.ID,
			"loser_id", out.LoserID,
			"bet", c.Bet,
			"shortfall", transfer.Shortfall)
	}

	s.log.Info("coinflip resolved",
		"challenge_id", c.ID,
		"winner_id", out.WinnerID,
		"bet", c.Bet)
	return out, nil
}

// DenyCoinflip removes the challenge pending against challengedID without
// moving any tokens.
func (s *Service) DenyCoinflip(challengedID int64) (Challenge, error) {
	return s.claimChallenge(challengedID)
}

// CancelCoinflip withdraws a pending challenge. Either party may cancel;
// anyone else is rejected without touching the entry.
func (s *Service) CancelCoinflip(byUserID int64) (Challenge, error) {
	s.cfMu.Lock()
	defer s.cfMu.Unlock()

	if c, ok := s.cfPending[byUserID]; ok {
		s.removeLocked(c)
		return *c, nil
	}
	for _, c := range s.cfPending {
		if c.ChallengerID == byUserID {
			s.removeLocked(c)
			return *c, nil
		}
	}
	return Challenge{}, ErrNoChallenge
}

// PendingChallenge reports the challenge a user is part of, if any.
func (s *Service) PendingChallenge(userID int64) (Challenge, bool) {
	s.cfMu.Lock()
	defer s.cfMu.Unlock()

	if c, ok := s.cfPending[userID]; ok {
		return *c, true
	}
	for _, c := range s.cfPending {
		if c.ChallengerID == userID {
			return *c, true
		}
	}
	return Challenge{}, false
}

func (s *Service) claimChallenge(challengedID int64) (Challenge, error) {
	s.cfMu.Lock()
	defer s.cfMu.Unlock()
	c, ok := s.cfPending[challengedID]
	if !ok {
		return Challenge{}, ErrNoChallenge
	}
	s.removeLocked(c)
	return *c, nil
}

func (s *Service) removeLocked(c *Challenge) {
	delete(s.cfPending, c.ChallengedID)
	delete(s.cfChallengers, c.ChallengerID)
}
