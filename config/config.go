package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

// Config es la configuración completa del arena.
type Config struct {
	Arena   ArenaConfig   `yaml:"arena"`
	Risk    RiskConfig    `yaml:"risk"`
	API     APIConfig     `yaml:"api"`
	Feeds   FeedsConfig   `yaml:"feeds"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ArenaConfig controla el control loop y la evolución.
type ArenaConfig struct {
	Mode                string   `yaml:"mode"`              // paper | live
	Venue               string   `yaml:"venue"`             // etiqueta guardada en cada trade
	IntervalSeconds     int      `yaml:"interval_seconds"`
	NoMarketWaitSeconds int      `yaml:"no_market_wait_seconds"`
	ErrorBackoffSeconds int      `yaml:"error_backoff_seconds"`
	EvolutionHours      float64  `yaml:"evolution_hours"`
	PerformanceHours    float64  `yaml:"performance_hours"` // ventana de COLLECT
	Survivors           int      `yaml:"survivors"`
	MutationRate        float64  `yaml:"mutation_rate"`
	WindowMinutes       int      `yaml:"window_minutes"`
	AssetKeywords       []string `yaml:"asset_keywords"`
	Symbol              string   `yaml:"symbol"`
	Roster              []string `yaml:"roster"`
	OrderflowWorkers    int      `yaml:"orderflow_workers"`
	Seed                int64    `yaml:"seed"`              // 0 = time-based
}

// RiskConfig son los límites del risk gate, en USDC.
type RiskConfig struct {
	MaxPosition    float64 `yaml:"max_position"`
	BotDailyLoss   float64 `yaml:"bot_daily_loss"`
	TotalDailyLoss float64 `yaml:"total_daily_loss"`
}

// APIConfig contiene base URLs y credenciales.
type APIConfig struct {
	SimmerBase   string `yaml:"simmer_base"`
	SimmerAPIKey string `yaml:"-"` // solo desde env
	CLOBBase     string `yaml:"clob_base"`
	PolygonRPC   string `yaml:"polygon_rpc"`
	PrivateKey   string `yaml:"-"` // solo desde env
}

// FeedsConfig configura los feeds en background.
type FeedsConfig struct {
	BinanceURL        string `yaml:"binance_url"`
	Candles           int    `yaml:"candles"`
	SentimentURL      string `yaml:"sentiment_url"`
	SentimentToken    string `yaml:"sentiment_token"`
	SentimentSchedule string `yaml:"sentiment_schedule"`
	SentimentWindowS  int    `yaml:"sentiment_window_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN       string `yaml:"dsn"`        // ruta al archivo SQLite, o ":memory:"
	BadgerDir string `yaml:"badger_dir"` // vacío = en memoria
	ParamsDir string `yaml:"params_dir"` // snapshots JSON de bots evolucionados
}

// LogConfig controla el formato, nivel y archivo de logging.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // vacío = solo stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig controla el servidor de status.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // vacío = deshabilitado
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse aplica YAML, env overrides y defaults sobre data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Parse: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate comprueba valores que no tienen un default razonable.
// Las credenciales de live se comprueban en RequireLive.
func (c *Config) Validate() error {
	switch c.Mode() {
	case domain.ModePaper, domain.ModeLive:
	default:
		return fmt.Errorf("config: arena.mode %q must be paper or live: %w", c.Arena.Mode, domain.ErrConfiguration)
	}
	if c.Risk.MaxPosition <= 0 {
		return fmt.Errorf("config: risk.max_position must be > 0: %w", domain.ErrConfiguration)
	}
	if c.Arena.MutationRate <= 0 || c.Arena.MutationRate >= 1 {
		return fmt.Errorf("config: arena.mutation_rate %.2f out of (0,1): %w", c.Arena.MutationRate, domain.ErrConfiguration)
	}
	if len(c.Arena.Roster) == 0 {
		return fmt.Errorf("config: arena.roster is empty: %w", domain.ErrConfiguration)
	}
	return nil
}

// RequirePaper comprueba las credenciales del venue de paper trading.
func (c *Config) RequirePaper() error {
	if c.API.SimmerAPIKey == "" {
		return fmt.Errorf("config: SIMMER_API_KEY not set: %w", domain.ErrConfiguration)
	}
	return nil
}

// RequireLive comprueba las credenciales de trading real.
func (c *Config) RequireLive() error {
	if err := c.RequirePaper(); err != nil {
		return err
	}
	if c.API.PrivateKey == "" {
		return fmt.Errorf("config: POLYMARKET_PRIVATE_KEY not set: %w", domain.ErrConfiguration)
	}
	return nil
}

// Mode devuelve el modo de ejecución.
func (c *Config) Mode() domain.Mode {
	return domain.Mode(strings.ToLower(c.Arena.Mode))
}

// Interval devuelve la pausa entre ciclos.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Arena.IntervalSeconds) * time.Second
}

// NoMarketWait devuelve la pausa cuando no hay mercados.
func (c *Config) NoMarketWait() time.Duration {
	return time.Duration(c.Arena.NoMarketWaitSeconds) * time.Second
}

// ErrorBackoff devuelve la pausa tras un ciclo fallido.
func (c *Config) ErrorBackoff() time.Duration {
	return time.Duration(c.Arena.ErrorBackoffSeconds) * time.Second
}

// EvolutionInterval devuelve cada cuánto corre la evolución.
func (c *Config) EvolutionInterval() time.Duration {
	return time.Duration(c.Arena.EvolutionHours * float64(time.Hour))
}

// PerformanceWindow devuelve la ventana de rendimiento usada para rankear.
func (c *Config) PerformanceWindow() time.Duration {
	return time.Duration(c.Arena.PerformanceHours * float64(time.Hour))
}

// SentimentWindow devuelve la ventana del feed de sentimiento.
func (c *Config) SentimentWindow() time.Duration {
	return time.Duration(c.Feeds.SentimentWindowS) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARENA_MODE"); v != "" {
		cfg.Arena.Mode = v
	}
	if v := os.Getenv("SIMMER_API_KEY"); v != "" {
		cfg.API.SimmerAPIKey = v
	}
	if v := os.Getenv("POLYMARKET_PRIVATE_KEY"); v != "" {
		cfg.API.PrivateKey = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.API.PolygonRPC = v
	}
	if v := os.Getenv("CRYPTOPANIC_TOKEN"); v != "" {
		cfg.Feeds.SentimentToken = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	a := &cfg.Arena
	if a.Mode == "" {
		a.Mode = string(domain.ModePaper)
	}
	if a.Venue == "" {
		a.Venue = "polymarket"
	}
	if a.IntervalSeconds <= 0 {
		a.IntervalSeconds = 60
	}
	if a.NoMarketWaitSeconds <= 0 {
		a.NoMarketWaitSeconds = 30
	}
	if a.ErrorBackoffSeconds <= 0 {
		a.ErrorBackoffSeconds = 10
	}
	if a.EvolutionHours <= 0 {
		a.EvolutionHours = 12
	}
	if a.PerformanceHours <= 0 {
		a.PerformanceHours = a.EvolutionHours
	}
	if a.Survivors <= 0 {
		a.Survivors = 2
	}
	if a.MutationRate == 0 {
		a.MutationRate = 0.2
	}
	if a.WindowMinutes <= 0 {
		a.WindowMinutes = 5
	}
	if a.AssetKeywords == nil {
		a.AssetKeywords = []string{"btc", "bitcoin"}
	}
	if a.Symbol == "" {
		a.Symbol = "btc"
	}
	if len(a.Roster) == 0 {
		a.Roster = []string{"momentum", "mean_reversion", "sentiment", "hybrid"}
	}
	if a.OrderflowWorkers <= 0 {
		a.OrderflowWorkers = 4
	}

	if cfg.Risk.MaxPosition == 0 {
		cfg.Risk.MaxPosition = 10
	}
	if cfg.Risk.BotDailyLoss == 0 {
		cfg.Risk.BotDailyLoss = 50
	}
	if cfg.Risk.TotalDailyLoss == 0 {
		cfg.Risk.TotalDailyLoss = 150
	}

	if cfg.API.SimmerBase == "" {
		cfg.API.SimmerBase = "https://api.simmer.markets"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}

	if cfg.Feeds.BinanceURL == "" {
		cfg.Feeds.BinanceURL = "wss://stream.binance.com:9443/ws"
	}
	if cfg.Feeds.Candles <= 0 {
		cfg.Feeds.Candles = 100
	}
	if cfg.Feeds.SentimentURL == "" {
		cfg.Feeds.SentimentURL = "https://cryptopanic.com"
	}
	if cfg.Feeds.SentimentSchedule == "" {
		cfg.Feeds.SentimentSchedule = "@every 60s"
	}
	if cfg.Feeds.SentimentWindowS <= 0 {
		cfg.Feeds.SentimentWindowS = 300
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "arena.db"
	}
	if cfg.Storage.ParamsDir == "" {
		cfg.Storage.ParamsDir = "evolved_params"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 14
	}
}
