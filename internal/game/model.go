package game

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// LeaderboardSize is the size of the top snapshot shared by the season
	// reset and the published leaderboard.
	LeaderboardSize = 30

	// TokenToSandRate converts Tokens to SAND for USD display.
	TokenToSandRate = 0.16
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
	ErrScoreNotRaised     = errors.New("new score must be higher than the current score")
	ErrInvalidWallet      = errors.New("wallet address must be 0x followed by 40 hex characters")
	ErrWalletExists       = errors.New("wallet address already registered")
	ErrWalletNotFound     = errors.New("no wallet address registered")
	ErrSelfChallenge      = errors.New("you cannot challenge yourself")
	ErrChallengePending   = errors.New("user already has a pending coinflip challenge")
	ErrChallengerBusy     = errors.New("you already have an outstanding coinflip challenge")
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrNoChallenge        = errors.New("no pending coinflip challenge")
)

var walletRE = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

func ValidateWalletAddress(address string) error {
	if !walletRE.MatchString(strings.TrimSpace(address)) {
		return ErrInvalidWallet
	}
	return nil
}

// TokenValueUSD prices a Token balance through the SAND peg.
func TokenValueUSD(balance int64, sandPriceUSD float64) float64 {
	return float64(balance) * TokenToSandRate * sandPriceUSD
}

// EscapeMarkdown keeps underscores in display names from italicizing
// leaderboard lines.
func EscapeMarkdown(text string) string {
	return strings.ReplaceAll(text, "_", `\_`)
}
