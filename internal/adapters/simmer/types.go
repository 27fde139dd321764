package simmer

import (
	"bytes"
	"encoding/json"
)

// DTOs raw de la API de Simmer. Solo se usan dentro de este paquete.

// marketList accepts both a bare array and {"markets": [...]}.
type marketList []simmerMarket

func (l *marketList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var arr []simmerMarket
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var wrapped struct {
		Markets []simmerMarket `json:"markets"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Markets
	return nil
}

type simmerMarket struct {
	ID                  string   `json:"id"`
	MarketID            string   `json:"market_id"`
	Question            string   `json:"question"`
	CurrentPrice        *float64 `json:"current_price"`
	TimeToResolution    *float64 `json:"time_to_resolution_seconds"`
	PolymarketTokenID   string   `json:"polymarket_token_id"`
	PolymarketNoTokenID string   `json:"polymarket_no_token_id"`
	Outcome             *bool    `json:"outcome"`
}

type tradeRequest struct {
	MarketID  string  `json:"market_id"`
	Side      string  `json:"side"`
	Amount    float64 `json:"amount"`
	Venue     string  `json:"venue"`
	Source    string  `json:"source"`
	Reasoning string  `json:"reasoning,omitempty"`
	RequestID string  `json:"client_request_id"`
}

type tradeResponse struct {
	TradeID      string  `json:"trade_id"`
	SharesBought float64 `json:"shares_bought"`
}

type contextResponse struct {
	CurrentProbability *float64 `json:"current_probability"`
	Volume24h          float64  `json:"volume_24h"`
	TimeToResolution   *float64 `json:"time_to_resolution_seconds"`
	Warnings           []string `json:"warnings"`
}
