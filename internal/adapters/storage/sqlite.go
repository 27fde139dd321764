package storage

// sqlite.go — persistencia del arena en SQLite (pure Go, sin CGo).
//
// Tablas:
//   trades            — ledger append-only; outcome se escribe una sola vez
//   bot_configs       — roster actual y bots retirados
//   evolution_history — una fila por ciclo de evolución
//   risk_state        — flags de pausa por bot, sobreviven reinicios
//
// Los timestamps se guardan como unix millis (INTEGER) para que los rangos
// "desde medianoche UTC" sean comparaciones numéricas.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id              TEXT PRIMARY KEY,
    bot_name        TEXT    NOT NULL,
    market_id       TEXT    NOT NULL,
    market_question TEXT    NOT NULL DEFAULT '',
    side            TEXT    NOT NULL,
    amount          REAL    NOT NULL,
    venue           TEXT    NOT NULL DEFAULT '',
    mode            TEXT    NOT NULL,
    confidence      REAL    NOT NULL DEFAULT 0,
    reasoning       TEXT    NOT NULL DEFAULT '',
    features        TEXT    NOT NULL DEFAULT '',
    external_id     TEXT    NOT NULL DEFAULT '',
    shares_bought   REAL    NOT NULL DEFAULT 0,
    outcome         TEXT,               -- NULL mientras está pendiente
    pnl             REAL    NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    resolved_at     INTEGER
);

CREATE INDEX IF NOT EXISTS idx_trades_pending  ON trades(mode, outcome);
CREATE INDEX IF NOT EXISTS idx_trades_resolved ON trades(mode, resolved_at);
CREATE INDEX IF NOT EXISTS idx_trades_bot      ON trades(bot_name, mode, created_at);

CREATE TABLE IF NOT EXISTS bot_configs (
    name          TEXT PRIMARY KEY,
    strategy_type TEXT    NOT NULL,
    params        TEXT    NOT NULL,     -- JSON
    generation    INTEGER NOT NULL DEFAULT 0,
    lineage       TEXT    NOT NULL DEFAULT '',
    active        INTEGER NOT NULL DEFAULT 1,
    created_at    INTEGER NOT NULL,
    retired_at    INTEGER
);

CREATE TABLE IF NOT EXISTS evolution_history (
    cycle      INTEGER PRIMARY KEY,
    survivors  TEXT    NOT NULL,       -- JSON arrays
    replaced   TEXT    NOT NULL,
    new_bots   TEXT    NOT NULL,
    rankings   TEXT    NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS risk_state (
    bot_name   TEXT PRIMARY KEY,
    paused     INTEGER NOT NULL DEFAULT 0,
    reason     TEXT    NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);
`

// SQLiteStorage implementa ports.TradeLedger, ports.BotStore,
// ports.EvolutionLog y ports.RiskStateStore.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema. ":memory:" abre una base efímera.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- helpers internos ---

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
