package storage

import (
	"context"
	"fmt"
)

// SetPaused persiste el flag de pausa de bot.
func (s *SQLiteStorage) SetPaused(ctx context.Context, bot string, paused bool, reason string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_state (bot_name, paused, reason, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(bot_name) DO UPDATE SET
			paused     = excluded.paused,
			reason     = excluded.reason,
			updated_at = excluded.updated_at`,
		bot, boolInt(paused), reason, millis(s.now()),
	); err != nil {
		return fmt.Errorf("storage.SetPaused: %s: %w", bot, err)
	}
	return nil
}

// PausedBots devuelve el flag de cada bot con estado guardado.
func (s *SQLiteStorage) PausedBots(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bot_name, paused FROM risk_state`)
	if err != nil {
		return nil, fmt.Errorf("storage.PausedBots: query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var (
			bot    string
			paused int
		)
		if err := rows.Scan(&bot, &paused); err != nil {
			return nil, fmt.Errorf("storage.PausedBots: scan row: %w", err)
		}
		out[bot] = paused == 1
	}
	return out, rows.Err()
}
