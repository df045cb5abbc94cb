package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the score store backed by pgx. Balance rows are created lazily
// on first write; an absent row reads as (0, false, nil). Relative balance
// changes are expressed as atomic SQL increments so two near-simultaneous
// commands cannot lose an update; debits clamp at zero with GREATEST.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) TokenBalance(ctx context.Context, userID int64) (int64, bool, error) {
	var score int64
	err := p.db.QueryRow(ctx, `
		SELECT score FROM token_scores WHERE user_id = $1
	`, userID).Scan(&score)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (p *Postgres) AddTokens(ctx context.Context, userID, amount int64) (int64, error) {
	var score int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO token_scores (user_id, score)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET score = token_scores.score + EXCLUDED.score
		RETURNING score
	`, userID, amount).Scan(&score)
	return score, err
}

func (p *Postgres) RemoveTokens(ctx context.Context, userID, amount int64) (int64, error) {
	var score int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO token_scores (user_id, score)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET score = GREATEST(token_scores.score - $2, 0)
		RETURNING score
	`, userID, amount).Scan(&score)
	return score, err
}

// TransferTokens settles a wager in one transaction: the winner is credited
// the full amount, the loser is debited with the stored balance clamped at
// zero. An underfunded loser is reported through Shortfall, not an error.
func (p *Postgres) TransferTokens(ctx context.Context, winnerID, loserID, amount int64) (TransferResult, error) {
	var out TransferResult

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `
		INSERT INTO token_scores (user_id, score)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET score = token_scores.score + EXCLUDED.score
		RETURNING score
	`, winnerID, amount).Scan(&out.WinnerBalance); err != nil {
		return out, err
	}

	var loserBefore int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO token_scores (user_id, score)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET score = token_scores.score
		RETURNING score
	`, loserID).Scan(&loserBefore); err != nil {
		return out, err
	}
	if loserBefore < amount {
		out.Shortfall = amount - loserBefore
	}

	if err := tx.QueryRow(ctx, `
		UPDATE token_scores SET score = GREATEST(score - $1, 0)
		WHERE user_id = $2
		RETURNING score
	`, amount, loserID).Scan(&out.LoserBalance); err != nil {
		return out, err
	}

	return out, tx.Commit(ctx)
}

func (p *Postgres) TopTokens(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT user_id, score
		FROM token_scores
		ORDER BY score DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) PointRecord(ctx context.Context, userID int64) (PointRecord, bool, error) {
	rec := PointRecord{UserID: userID}
	err := p.db.QueryRow(ctx, `
		SELECT score, seasons_played, top_30_finishes
		FROM point_scores
		WHERE user_id = $1
	`, userID).Scan(&rec.Score, &rec.SeasonsPlayed, &rec.Top30Finishes)
	if err == pgx.ErrNoRows {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

func (p *Postgres) AddPoints(ctx context.Context, userID, amount int64) (int64, error) {
	var score int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO point_scores (user_id, score)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET score = point_scores.score + EXCLUDED.score
		RETURNING score
	`, userID, amount).Scan(&score)
	return score, err
}

func (p *Postgres) RemovePoints(ctx context.Context, userID, amount int64) (int64, error) {
	var score int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO point_scores (user_id, score)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET score = GREATEST(point_scores.score - $2, 0)
		RETURNING score
	`, userID, amount).Scan(&score)
	return score, err
}

func (p *Postgres) SetPointScore(ctx context.Context, userID, score int64) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO point_scores (user_id, score)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET score = EXCLUDED.score
	`, userID, score)
	return err
}

func (p *Postgres) ListPointRecords(ctx context.Context) ([]PointRecord, error) {
	rows, err := p.db.Query(ctx, `
		SELECT user_id, score, seasons_played, top_30_finishes
		FROM point_scores
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PointRecord
	for rows.Next() {
		var rec PointRecord
		if err := rows.Scan(&rec.UserID, &rec.Score, &rec.SeasonsPlayed, &rec.Top30Finishes); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TopPoints returns at most n positive scores, highest first. Ties fall back
// to storage order, which is not deterministic across calls.
func (p *Postgres) TopPoints(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT user_id, score
		FROM point_scores
		WHERE score > 0
		ORDER BY score DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) IncrementSeasonsPlayed(ctx context.Context) (int64, error) {
	cmd, err := p.db.Exec(ctx, `
		UPDATE point_scores SET seasons_played = seasons_played + 1 WHERE score > 0
	`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (p *Postgres) IncrementTopFinishes(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := p.db.Exec(ctx, `
		UPDATE point_scores SET top_30_finishes = top_30_finishes + 1 WHERE user_id = ANY($1)
	`, userIDs)
	return err
}

func (p *Postgres) ZeroPointScores(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `UPDATE point_scores SET score = 0`)
	return err
}

func (p *Postgres) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRow(ctx, `
		SELECT setting_value FROM bot_settings WHERE setting_key = $1
	`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) SetSetting(ctx context.Context, key, value string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO bot_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
	`, key, value)
	return err
}

func (p *Postgres) Wallet(ctx context.Context, userID int64) (string, bool, error) {
	var address string
	err := p.db.QueryRow(ctx, `
		SELECT wallet_address FROM user_wallets WHERE user_id = $1
	`, userID).Scan(&address)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return address, true, nil
}

func (p *Postgres) InsertWallet(ctx context.Context, userID int64, address string) (bool, error) {
	cmd, err := p.db.Exec(ctx, `
		INSERT INTO user_wallets (user_id, wallet_address)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, address)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (p *Postgres) UpdateWallet(ctx context.Context, userID int64, address string) (bool, error) {
	cmd, err := p.db.Exec(ctx, `
		UPDATE user_wallets SET wallet_address = $1 WHERE user_id = $2
	`, address, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
