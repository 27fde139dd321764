package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// LogEvolution añade la fila del ciclo. Un ciclo repetido es un error.
func (s *SQLiteStorage) LogEvolution(ctx context.Context, rec domain.EvolutionRecord) error {
	enc := func(v any) string {
		b, _ := json.Marshal(v)
		return string(b)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO evolution_history (cycle, survivors, replaced, new_bots, rankings, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Cycle, enc(nonNil(rec.Survivors)), enc(nonNil(rec.Replaced)), enc(nonNil(rec.NewBots)),
		enc(rec.Rankings), millis(created),
	); err != nil {
		return fmt.Errorf("storage.LogEvolution: cycle %d: %w", rec.Cycle, err)
	}
	return nil
}

// LatestCycle devuelve el último ciclo registrado, 0 si no hay ninguno.
func (s *SQLiteStorage) LatestCycle(ctx context.Context) (int, error) {
	var cycle int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(cycle), 0) FROM evolution_history`,
	).Scan(&cycle); err != nil {
		return 0, fmt.Errorf("storage.LatestCycle: %w", err)
	}
	return cycle, nil
}

// RecentEvolutions returns the last limit cycles, newest first.
func (s *SQLiteStorage) RecentEvolutions(ctx context.Context, limit int) ([]domain.EvolutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle, survivors, replaced, new_bots, rankings, created_at
		FROM evolution_history ORDER BY cycle DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentEvolutions: query: %w", err)
	}
	defer rows.Close()

	var out []domain.EvolutionRecord
	for rows.Next() {
		var (
			rec                                    domain.EvolutionRecord
			survivors, replaced, newBots, rankings string
			created                                int64
		)
		if err := rows.Scan(&rec.Cycle, &survivors, &replaced, &newBots, &rankings, &created); err != nil {
			return nil, fmt.Errorf("storage.RecentEvolutions: scan row: %w", err)
		}
		for _, f := range []struct {
			raw string
			dst any
		}{
			{survivors, &rec.Survivors},
			{replaced, &rec.Replaced},
			{newBots, &rec.NewBots},
			{rankings, &rec.Rankings},
		} {
			if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
				return nil, fmt.Errorf("storage.RecentEvolutions: cycle %d: %w", rec.Cycle, err)
			}
		}
		rec.CreatedAt = fromMillis(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
