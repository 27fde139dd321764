package ports

import "github.com/alejandrodnm/polyarena/internal/domain"

// BiasOracle maps (bot, feature key) to a learned probability that YES wins.
type BiasOracle interface {
	ExtractFeatures(in domain.FeatureInput) string
	LearnedBias(bot, featureKey string, prior float64) float64
	RecordOutcome(bot, featureKey string, side domain.Side, won bool) error
}
