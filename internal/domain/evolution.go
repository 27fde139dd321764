package domain

import "time"

// Performance is the realized result of a bot over a trailing window.
type Performance struct {
	BotName string  `json:"bot_name"`
	PnL     float64 `json:"pnl"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
}

// WinRate devuelve wins / (wins+losses), 0 sin trades resueltos.
func (p Performance) WinRate() float64 {
	n := p.Wins + p.Losses
	if n == 0 {
		return 0
	}
	return float64(p.Wins) / float64(n)
}

// Ranking is one row of a tournament snapshot.
type Ranking struct {
	Rank         int         `json:"rank"`
	BotName      string      `json:"bot_name"`
	StrategyType string      `json:"strategy_type"`
	Generation   int         `json:"generation"`
	Performance  Performance `json:"performance"`
}

// EvolutionRecord is the append-only log entry of one evolution cycle.
type EvolutionRecord struct {
	Cycle     int
	Survivors []string
	Replaced  []string
	NewBots   []string
	Rankings  []Ranking
	CreatedAt time.Time
}
