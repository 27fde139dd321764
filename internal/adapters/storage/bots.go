package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// SaveBotConfig hace upsert del bot y lo marca activo.
func (s *SQLiteStorage) SaveBotConfig(ctx context.Context, b domain.Bot) error {
	params, err := json.Marshal(b.Params)
	if err != nil {
		return fmt.Errorf("storage.SaveBotConfig: marshal params of %s: %w", b.Name, err)
	}
	created := b.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_configs (name, strategy_type, params, generation, lineage, active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET
			strategy_type = excluded.strategy_type,
			params        = excluded.params,
			generation    = excluded.generation,
			lineage       = excluded.lineage,
			active        = 1,
			retired_at    = NULL`,
		b.Name, b.StrategyType, string(params), b.Generation, b.Lineage, millis(created),
	); err != nil {
		return fmt.Errorf("storage.SaveBotConfig: upsert %s: %w", b.Name, err)
	}
	return nil
}

// ActiveBots devuelve el roster activo en orden de creación, con el flag de
// pausa persistido.
func (s *SQLiteStorage) ActiveBots(ctx context.Context) ([]domain.Bot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.name, b.strategy_type, b.params, b.generation, b.lineage, b.created_at,
		       COALESCE(r.paused, 0)
		FROM bot_configs b
		LEFT JOIN risk_state r ON r.bot_name = b.name
		WHERE b.active = 1
		ORDER BY b.created_at, b.name`)
	if err != nil {
		return nil, fmt.Errorf("storage.ActiveBots: query: %w", err)
	}
	defer rows.Close()

	var bots []domain.Bot
	for rows.Next() {
		var (
			b       domain.Bot
			params  string
			created int64
			paused  int
		)
		if err := rows.Scan(&b.Name, &b.StrategyType, &params, &b.Generation, &b.Lineage, &created, &paused); err != nil {
			return nil, fmt.Errorf("storage.ActiveBots: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &b.Params); err != nil {
			return nil, fmt.Errorf("storage.ActiveBots: params of %s: %w", b.Name, err)
		}
		b.CreatedAt = fromMillis(created)
		b.Paused = paused == 1
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

// RetireBot marca el bot como retirado. Sus trades quedan en el ledger.
func (s *SQLiteStorage) RetireBot(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bot_configs SET active = 0, retired_at = ? WHERE name = ? AND active = 1`,
		millis(s.now()), name)
	if err != nil {
		return fmt.Errorf("storage.RetireBot: %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.RetireBot: %s: %w", name, sql.ErrNoRows)
	}
	return nil
}
