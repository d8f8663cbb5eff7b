// Package sqlite persists the context as relational tables through gorm.
// Every mutation rewrites the tables inside a single transaction.
package sqlite

import (
	"errors"
	"fmt"

	driver "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

// Store owns the database handle.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// OpenStore establishes a SQLite connection and performs schema migrations.
func OpenStore(path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: database path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(driver.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&personRow{}, &feedingRow{}, &expulsionRow{}, &eventRow{}, &sequenceRow{}, &migrationRecord{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate schema: %w", err)
	}
	if err := applyMigrations(db, log); err != nil {
		return nil, fmt.Errorf("sqlite: apply migrations: %w", err)
	}

	log.Info("database initialized", zap.String("path", path))
	return &Store{db: db, logger: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load reads every table into a snapshot.
func (s *Store) Load() (ost.Snapshot, error) {
	var (
		persons    []personRow
		feedings   []feedingRow
		expulsions []expulsionRow
		events     []eventRow
		sequences  []sequenceRow
	)
	queries := []struct {
		table string
		order string
		dest  any
	}{
		{table: "persons", order: "row_id", dest: &persons},
		{table: "feedings", order: "row_id", dest: &feedings},
		{table: "expulsions", order: "row_id", dest: &expulsions},
		{table: "events", order: "row_id", dest: &events},
		{table: "sequences", order: "name", dest: &sequences},
	}
	for _, query := range queries {
		if err := s.db.Order(query.order).Find(query.dest).Error; err != nil {
			return ost.Snapshot{}, fmt.Errorf("sqlite: load %s: %w", query.table, err)
		}
	}
	snapshot, err := toSnapshot(persons, feedings, expulsions, events, sequences)
	if err != nil {
		return ost.Snapshot{}, fmt.Errorf("sqlite: %w", err)
	}
	return snapshot, nil
}

// Save replaces the content of every table with the snapshot.
func (s *Store) Save(snapshot ost.Snapshot) error {
	rows := fromSnapshot(snapshot)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&personRow{}, &feedingRow{}, &expulsionRow{}, &eventRow{}, &sequenceRow{}} {
			if err := wipe.Delete(model).Error; err != nil {
				return err
			}
		}
		if err := createAll(tx, rows.persons); err != nil {
			return err
		}
		if err := createAll(tx, rows.feedings); err != nil {
			return err
		}
		if err := createAll(tx, rows.expulsions); err != nil {
			return err
		}
		if err := createAll(tx, rows.events); err != nil {
			return err
		}
		return createAll(tx, rows.sequences)
	})
	if err != nil {
		return fmt.Errorf("sqlite: save snapshot: %w", err)
	}
	return nil
}

func createAll[R any](tx *gorm.DB, rows []R) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 200).Error
}

// Open builds an engine over the stored tables and writes every change back.
func Open(store *Store) (*ost.Engine, error) {
	snapshot, err := store.Load()
	if err != nil {
		return nil, err
	}
	engine, err := ost.NewEngine(ost.EngineConfig{
		Snapshot: snapshot,
		Persist:  store.Save,
		Logger:   store.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return engine, nil
}
