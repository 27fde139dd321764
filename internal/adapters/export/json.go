// Package export writes evolved bot parameters as JSON files, one per bot,
// so they can be inspected or reloaded outside the database.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// snapshot is the on-disk shape of <dir>/<bot>.json.
type snapshot struct {
	Name         string        `json:"name"`
	StrategyType string        `json:"strategy_type"`
	Generation   int           `json:"generation"`
	Lineage      string        `json:"lineage,omitempty"`
	Params       domain.Params `json:"params"`
	ExportedAt   time.Time     `json:"exported_at"`
}

// JSONExporter implementa ports.ParamExporter.
type JSONExporter struct {
	dir string
	now func() time.Time
}

// NewJSONExporter crea el directorio si no existe.
func NewJSONExporter(dir string) (*JSONExporter, error) {
	if dir == "" {
		return nil, fmt.Errorf("export.NewJSONExporter: empty dir: %w", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export.NewJSONExporter: mkdir %s: %w", dir, err)
	}
	return &JSONExporter{dir: dir, now: time.Now}, nil
}

// Export escribe el snapshot de b de forma atómica (tmp + rename).
func (e *JSONExporter) Export(b domain.Bot) error {
	data, err := json.MarshalIndent(snapshot{
		Name:         b.Name,
		StrategyType: b.StrategyType,
		Generation:   b.Generation,
		Lineage:      b.Lineage,
		Params:       b.Params,
		ExportedAt:   e.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("export.Export: marshal %s: %w", b.Name, err)
	}

	final := e.Path(b.Name)
	tmp, err := os.CreateTemp(e.dir, "."+b.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("export.Export: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("export.Export: write %s: %w", b.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export.Export: close %s: %w", b.Name, err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("export.Export: rename %s: %w", b.Name, err)
	}
	return nil
}

// Path devuelve la ruta del snapshot de bot.
func (e *JSONExporter) Path(bot string) string {
	return filepath.Join(e.dir, filepath.Base(bot)+".json")
}
