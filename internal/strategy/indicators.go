package strategy

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// rsi returns the RSI of the last candle, 50 (neutral) when there is not
// enough data.
func rsi(prices []float64, period int) float64 {
	if period < 2 || len(prices) < period+1 {
		return 50
	}
	out := talib.Rsi(prices, period)
	if len(out) == 0 {
		return 50
	}
	v := out[len(out)-1]
	if math.IsNaN(v) {
		return 50
	}
	return v
}

// zScore measures how far the last price sits from the mean of the trailing
// window, in population standard deviations.
func zScore(prices []float64, lookback int) float64 {
	if lookback < 2 || len(prices) < lookback {
		return 0
	}
	window := prices[len(prices)-lookback:]
	mean := stat.Mean(window, nil)
	std := math.Sqrt(stat.PopVariance(window, nil))
	if std == 0 {
		std = 1
	}
	return (window[len(window)-1] - mean) / std
}

// pctChange is the return between prices[-lookback] and the last price.
func pctChange(prices []float64, lookback int) (float64, bool) {
	if lookback < 1 || len(prices) < lookback {
		return 0, false
	}
	base := prices[len(prices)-lookback]
	if base <= 0 {
		return 0, false
	}
	return (prices[len(prices)-1] - base) / base, true
}

// round2 redondea a centavos.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
