// Package learning implements the online bias oracle. For each bot and
// feature bucket it keeps how often YES won, smoothed towards the bot's
// prior, in a Badger key-value store.
package learning

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	keyPrefix = "bias/"

	// priorWeight is how many pseudo-observations the prior is worth.
	priorWeight = 4.0

	// momentumFlat is the band of |momentum| considered flat.
	momentumFlat = 0.001

	// Cortes de volumen 24h (USDC) y de tiempo restante.
	volumeMid  = 1_000.0
	volumeHigh = 10_000.0
	timeLate   = 60 * time.Second
	timeMid    = 180 * time.Second
)

// Oracle implements ports.BiasOracle.
type Oracle struct {
	db *badger.DB
}

// Open abre (o crea) la base en dir. dir vacío abre una base en memoria.
func Open(dir string) (*Oracle, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("learning.Open: %s: %w", dir, err)
	}
	return &Oracle{db: db}, nil
}

// Close flushes and closes the store.
func (o *Oracle) Close() error {
	return o.db.Close()
}

// ExtractFeatures buckets the market price into tenths and the momentum
// into up/down/flat, e.g. "p6_up". When order-flow is known the 24h volume
// (vlo/vmid/vhi) and time remaining (tearly/tmid/tlate) are appended, e.g.
// "p6_up_vhi_tlate".
func (o *Oracle) ExtractFeatures(in domain.FeatureInput) string {
	bucket := int(math.Floor(domain.Clamp(in.MarketPrice, 0, 1) * 10))
	if bucket > 9 {
		bucket = 9
	}
	trend := "flat"
	switch {
	case in.Momentum > momentumFlat:
		trend = "up"
	case in.Momentum < -momentumFlat:
		trend = "down"
	}
	key := fmt.Sprintf("p%d_%s", bucket, trend)
	if in.Volume24h != nil {
		switch v := *in.Volume24h; {
		case v >= volumeHigh:
			key += "_vhi"
		case v >= volumeMid:
			key += "_vmid"
		default:
			key += "_vlo"
		}
	}
	if in.TimeRemaining != nil {
		switch d := *in.TimeRemaining; {
		case d <= timeLate:
			key += "_tlate"
		case d <= timeMid:
			key += "_tmid"
		default:
			key += "_tearly"
		}
	}
	return key
}

// LearnedBias returns P(YES wins) for bot under featureKey. With no history
// it returns prior; the estimate moves towards the observed frequency as
// outcomes accumulate.
func (o *Oracle) LearnedBias(bot, featureKey string, prior float64) float64 {
	c, err := o.load(bot, featureKey)
	if err != nil {
		slog.Warn("learning: read failed, using prior", "bot", bot, "features", featureKey, "err", err)
		return prior
	}
	if c.total == 0 {
		return prior
	}
	return (float64(c.yes) + prior*priorWeight) / (float64(c.total) + priorWeight)
}

// RecordOutcome stores one resolved trade. side is what the bot bought and
// won whether it paid out, so YES won iff (side == yes) == won.
func (o *Oracle) RecordOutcome(bot, featureKey string, side domain.Side, won bool) error {
	if featureKey == "" {
		return fmt.Errorf("learning.RecordOutcome: empty feature key for %s", bot)
	}
	yesWon := (side == domain.SideYes) == won
	key := storeKey(bot, featureKey)

	err := o.db.Update(func(txn *badger.Txn) error {
		c, err := readCounts(txn, key)
		if err != nil {
			return err
		}
		c.total++
		if yesWon {
			c.yes++
		}
		return txn.Set(key, c.encode())
	})
	if err != nil {
		return fmt.Errorf("learning.RecordOutcome: %s/%s: %w", bot, featureKey, err)
	}
	return nil
}

// Observations returns how many outcomes were recorded for bot under featureKey.
func (o *Oracle) Observations(bot, featureKey string) (int, error) {
	c, err := o.load(bot, featureKey)
	if err != nil {
		return 0, fmt.Errorf("learning.Observations: %w", err)
	}
	return int(c.total), nil
}

type counts struct {
	yes, total uint64
}

func (c counts) encode() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], c.yes)
	binary.BigEndian.PutUint64(b[8:], c.total)
	return b
}

func (o *Oracle) load(bot, featureKey string) (counts, error) {
	var c counts
	err := o.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = readCounts(txn, storeKey(bot, featureKey))
		return err
	})
	return c, err
}

func readCounts(txn *badger.Txn, key []byte) (counts, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return counts{}, nil
	}
	if err != nil {
		return counts{}, err
	}
	var c counts
	err = item.Value(func(val []byte) error {
		if len(val) != 16 {
			return fmt.Errorf("corrupt counts for %q: %d bytes", key, len(val))
		}
		c.yes = binary.BigEndian.Uint64(val[:8])
		c.total = binary.BigEndian.Uint64(val[8:])
		return nil
	})
	return c, err
}

func storeKey(bot, featureKey string) []byte {
	return []byte(keyPrefix + bot + "/" + featureKey)
}
