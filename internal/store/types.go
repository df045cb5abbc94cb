package store

// Settings keys shared by the bot and the store.
const (
	SettingProductionRun        = "production_run"
	SettingLeaderboardMessageID = "leaderboard_message_id"
	SettingLeaderboardResetTime = "leaderboard_reset_time"
)

// PointRecord is a user's row in the point table. Score is zeroed on every
// season reset; the two counters survive resets.
type PointRecord struct {
	UserID        int64
	Score         int64
	SeasonsPlayed int64
	Top30Finishes int64
}

// LeaderboardEntry is one row of a score-descending snapshot.
type LeaderboardEntry struct {
	UserID int64
	Score  int64
}

// TransferResult reports the balances after a wager settlement. Shortfall is
// non-zero when the loser could not cover the full amount and the debit was
// clamped at zero.
type TransferResult struct {
	WinnerBalance int64
	LoserBalance  int64
	Shortfall     int64
}
