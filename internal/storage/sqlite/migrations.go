package sqlite

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationRepairSequences = "2024-06-01_repair_sequences"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationRepairSequences, apply: repairSequences},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		logger.Info("database migration applied", zap.String("migration", migration.name))
	}
	return nil
}

// repairSequences makes sure every collection has a counter row that is
// past the highest stored id. Databases filled before counters existed
// derive them from their rows.
func repairSequences(db *gorm.DB) error {
	tables := map[string]string{
		sequencePersons:    personRow{}.TableName(),
		sequenceFeeds:      feedingRow{}.TableName(),
		sequenceExpulsions: expulsionRow{}.TableName(),
		sequenceEvents:     eventRow{}.TableName(),
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for name, table := range tables {
			var next uint32
			query := fmt.Sprintf("SELECT COALESCE(MAX(id) + 1, 0) FROM %s", table)
			if err := tx.Raw(query).Scan(&next).Error; err != nil {
				return err
			}
			var row sequenceRow
			err := tx.Where("name = ?", name).Take(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&sequenceRow{Name: name, Next: next}).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			case row.Next < next:
				if err := tx.Model(&sequenceRow{}).Where("name = ?", name).Update("next_id", next).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
