package sentiment

import "strings"

var (
	bullishKeywords = []string{
		"bull", "moon", "pump", "breakout", "ath", "buy", "long", "rocket",
		"surge", "rally", "green", "bullish", "up only", "send it", "wagmi",
	}
	bearishKeywords = []string{
		"bear", "dump", "crash", "sell", "short", "rug", "red", "bearish",
		"down", "collapse", "plunge", "rekt", "ngmi", "capitulate",
	}
	influencers = []string{
		"elonmusk", "vitalikbuterin", "caborossi", "cz_binance",
		"aaborossi", "solanalegend", "cryptowizardd",
	}
)

// Score devuelve el sentimiento de un texto en [0,1] (0.5 neutral) y si el
// autor es un influencer conocido.
func Score(text, author string) (score float64, influencer bool) {
	t := strings.ToLower(text)
	var bull, bear int
	for _, kw := range bullishKeywords {
		if strings.Contains(t, kw) {
			bull++
		}
	}
	for _, kw := range bearishKeywords {
		if strings.Contains(t, kw) {
			bear++
		}
	}
	score = 0.5
	if total := bull + bear; total > 0 {
		score = float64(bull) / float64(total)
	}

	a := strings.ToLower(author)
	if a != "" {
		for _, inf := range influencers {
			if strings.Contains(a, inf) {
				influencer = true
				break
			}
		}
	}
	return score, influencer
}

// symbolOf detects which tracked asset a headline talks about.
func symbolOf(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "btc") || strings.Contains(t, "bitcoin"):
		return "btc"
	case strings.Contains(t, "sol") || strings.Contains(t, "solana"):
		return "sol"
	}
	return ""
}
