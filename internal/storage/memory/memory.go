// Package memory provides the volatile backend: an engine whose persist step
// does nothing.
package memory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

// SeedCounts sizes the fake data loaded by Seeded and Seed.
type SeedCounts struct {
	Persons    uint32
	Feedings   uint32
	Expulsions uint32
	Events     uint32
}

// DefaultSeedCounts matches the demo server: ten persons and 150 of each
// event kind.
var DefaultSeedCounts = SeedCounts{Persons: 10, Feedings: 150, Expulsions: 150, Events: 150}

// New returns an empty in-memory engine.
func New(logger *zap.Logger) (*ost.Engine, error) {
	return ost.NewEngine(ost.EngineConfig{Snapshot: ost.EmptySnapshot(), Logger: logger})
}

// Seeded returns an in-memory engine populated with fake data.
func Seeded(counts SeedCounts, logger *zap.Logger) (*ost.Engine, error) {
	engine, err := New(logger)
	if err != nil {
		return nil, err
	}
	if err := Seed(engine, counts); err != nil {
		return nil, err
	}
	return engine, nil
}

// Seed adds fake persons and events to any context. Event kinds are skipped
// when no person exists.
func Seed(target ost.Context, counts SeedCounts) error {
	if err := target.AddFakePersons(counts.Persons); err != nil {
		return fmt.Errorf("seed persons: %w", err)
	}
	if len(target.Persons()) == 0 {
		return nil
	}
	if err := target.AddFakeFeedings(counts.Feedings); err != nil {
		return fmt.Errorf("seed feedings: %w", err)
	}
	if err := target.AddFakeExpulsions(counts.Expulsions); err != nil {
		return fmt.Errorf("seed expulsions: %w", err)
	}
	if err := target.AddFakeEvents(counts.Events); err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	return nil
}
