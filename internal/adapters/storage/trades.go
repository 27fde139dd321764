package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

const tradeColumns = `id, bot_name, market_id, market_question, side, amount, venue, mode,
	confidence, reasoning, features, external_id, shares_bought, outcome, pnl,
	created_at, resolved_at`

// LogTrade inserta un trade pendiente.
func (s *SQLiteStorage) LogTrade(ctx context.Context, t domain.Trade) error {
	if t.ID == "" {
		return fmt.Errorf("storage.LogTrade: empty trade id")
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, bot_name, market_id, market_question, side, amount, venue, mode,
			 confidence, reasoning, features, external_id, shares_bought, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BotName, t.MarketID, t.MarketQuestion, string(t.Side), t.Amount, t.Venue, string(t.Mode),
		t.Confidence, t.Reasoning, t.Features, t.ExternalID, t.SharesBought, millis(created),
	); err != nil {
		return fmt.Errorf("storage.LogTrade: insert %s: %w", t.ID, err)
	}
	return nil
}

// PendingTrades devuelve los trades sin resolver del modo dado, más viejos primero.
func (s *SQLiteStorage) PendingTrades(ctx context.Context, mode domain.Mode) ([]domain.Trade, error) {
	trades, err := s.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE mode = ? AND outcome IS NULL ORDER BY created_at, id`,
		string(mode))
	if err != nil {
		return nil, fmt.Errorf("storage.PendingTrades: %w", err)
	}
	return trades, nil
}

// RecentTrades returns the last limit trades of bot, newest first.
func (s *SQLiteStorage) RecentTrades(ctx context.Context, bot string, limit int) ([]domain.Trade, error) {
	trades, err := s.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE bot_name = ? ORDER BY created_at DESC, id LIMIT ?`,
		bot, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentTrades: %w", err)
	}
	return trades, nil
}

// ResolveTrade escribe outcome y pnl solo si el trade sigue pendiente.
func (s *SQLiteStorage) ResolveTrade(ctx context.Context, id string, outcome domain.Outcome, pnl float64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trades SET outcome = ?, pnl = ?, resolved_at = ? WHERE id = ? AND outcome IS NULL`,
		string(outcome), pnl, millis(at), id)
	if err != nil {
		return false, fmt.Errorf("storage.ResolveTrade: update %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.ResolveTrade: rows affected: %w", err)
	}
	return n == 1, nil
}

// BotDailyLoss devuelve la pérdida neta realizada de bot desde since, como
// número positivo (0 si va en ganancia).
func (s *SQLiteStorage) BotDailyLoss(ctx context.Context, bot string, mode domain.Mode, since time.Time) (float64, error) {
	var net float64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(pnl), 0) FROM trades
		WHERE bot_name = ? AND mode = ? AND outcome IS NOT NULL AND resolved_at >= ?`,
		bot, string(mode), millis(since),
	).Scan(&net); err != nil {
		return 0, fmt.Errorf("storage.BotDailyLoss: %s: %w", bot, err)
	}
	return lossOf(net), nil
}

// TotalDailyLoss devuelve la pérdida neta realizada de todo el arena desde since.
func (s *SQLiteStorage) TotalDailyLoss(ctx context.Context, mode domain.Mode, since time.Time) (float64, error) {
	var net float64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(pnl), 0) FROM trades
		WHERE mode = ? AND outcome IS NOT NULL AND resolved_at >= ?`,
		string(mode), millis(since),
	).Scan(&net); err != nil {
		return 0, fmt.Errorf("storage.TotalDailyLoss: %w", err)
	}
	return lossOf(net), nil
}

// BotPerformance agrega pnl, wins y losses de los trades resueltos desde
// since; Trades cuenta todos los trades abiertos desde since.
func (s *SQLiteStorage) BotPerformance(ctx context.Context, bot string, mode domain.Mode, since time.Time) (domain.Performance, error) {
	p := domain.Performance{BotName: bot}
	if err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN outcome IS NOT NULL AND resolved_at >= ?1 THEN pnl ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'win'  AND resolved_at >= ?1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'loss' AND resolved_at >= ?1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= ?1 THEN 1 ELSE 0 END), 0)
		FROM trades
		WHERE bot_name = ?2 AND mode = ?3`,
		millis(since), bot, string(mode),
	).Scan(&p.PnL, &p.Wins, &p.Losses, &p.Trades); err != nil {
		return domain.Performance{}, fmt.Errorf("storage.BotPerformance: %s: %w", bot, err)
	}
	return p, nil
}

func (s *SQLiteStorage) queryTrades(ctx context.Context, query string, args ...any) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var (
			t          domain.Trade
			side, mode string
			outcome    sql.NullString
			created    int64
			resolved   sql.NullInt64
		)
		if err := rows.Scan(
			&t.ID, &t.BotName, &t.MarketID, &t.MarketQuestion, &side, &t.Amount, &t.Venue, &mode,
			&t.Confidence, &t.Reasoning, &t.Features, &t.ExternalID, &t.SharesBought, &outcome, &t.PnL,
			&created, &resolved,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		t.Side = domain.Side(side)
		t.Mode = domain.Mode(mode)
		t.CreatedAt = fromMillis(created)
		t.Outcome = domain.OutcomePending
		if outcome.Valid {
			t.Outcome = domain.Outcome(outcome.String)
		}
		if resolved.Valid {
			at := fromMillis(resolved.Int64)
			t.ResolvedAt = &at
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func lossOf(net float64) float64 {
	if net >= 0 {
		return 0
	}
	return -net
}
