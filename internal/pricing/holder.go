package pricing

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Holder serves the active catalog. Reads are lock-free; a config file change
// swaps the whole catalog atomically, never mutating the served value.
type Holder struct {
	current atomic.Value // holds Catalog
}

// NewHolder loads pricing.yml from the given search paths, falling back to the
// canonical defaults when no file exists. Invalid reloads are ignored.
func NewHolder(paths []string, log *zap.Logger) (*Holder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	holder := &Holder{}
	catalog := DefaultCatalog()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	if fileFound {
		if err := v.UnmarshalKey("pricing", &catalog); err != nil {
			return nil, err
		}
	}
	if err := Validate(catalog); err != nil {
		return nil, err
	}
	holder.current.Store(catalog)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated := DefaultCatalog()
			if err := v.UnmarshalKey("pricing", &updated); err != nil {
				log.Warn("pricing reload failed", zap.Error(err))
				return
			}
			if err := Validate(updated); err != nil {
				log.Warn("invalid pricing config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("pricing config reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// NewStaticHolder wraps a fixed catalog, used by tests.
func NewStaticHolder(catalog Catalog) *Holder {
	holder := &Holder{}
	holder.current.Store(catalog)
	return holder
}

// Get returns the active catalog.
func (h *Holder) Get() Catalog {
	return h.current.Load().(Catalog)
}

// Validate enforces the pricing invariants: prices and the minimum charge are
// never negative, tier ranks form a strict total order, and every feature
// references a known tier.
func Validate(c Catalog) error {
	if c.Table.AICreditCents < 0 || c.Table.ScheduledPostCents < 0 || c.Table.StorageGBCents < 0 {
		return errors.New("pricing: unit prices must be >= 0")
	}
	if c.Table.MinimumChargeCents < 0 {
		return errors.New("pricing: minimum charge must be >= 0")
	}
	if len(c.Tiers) == 0 {
		return errors.New("pricing: tiers cannot be empty")
	}

	seenIDs := make(map[string]bool, len(c.Tiers))
	seenRanks := make(map[int]bool, len(c.Tiers))
	for _, tier := range c.Tiers {
		if tier.ID == "" {
			return errors.New("pricing: tier id cannot be empty")
		}
		if seenIDs[tier.ID] {
			return fmt.Errorf("pricing: duplicate tier %q", tier.ID)
		}
		if seenRanks[tier.Rank] {
			return fmt.Errorf("pricing: duplicate rank for tier %q", tier.ID)
		}
		seenIDs[tier.ID] = true
		seenRanks[tier.Rank] = true
	}

	for _, feature := range c.Features {
		if feature.Key == "" {
			return errors.New("pricing: feature key cannot be empty")
		}
		if !seenIDs[feature.RequiredTier] {
			return fmt.Errorf("pricing: feature %q requires unknown tier %q", feature.Key, feature.RequiredTier)
		}
		if feature.Category != "" && !feature.Category.Valid() {
			return fmt.Errorf("pricing: feature %q has invalid category %q", feature.Key, feature.Category)
		}
	}

	return nil
}
