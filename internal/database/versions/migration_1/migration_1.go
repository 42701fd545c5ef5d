package migration_1

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Prediction struct {
	Scores datatypes.JSON
	Source string `gorm:"size:20;not null;default:single"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Prediction{}, "Scores"); err != nil {
		return fmt.Errorf("error adding Scores column: %w", err)
	}

	if err := db.Migrator().AddColumn(&Prediction{}, "Source"); err != nil {
		return fmt.Errorf("error adding Source column: %w", err)
	}

	if err := db.Model(&Prediction{}).
		Where("source IS NULL OR source = ''").
		Update("source", "single").Error; err != nil {
		return fmt.Errorf("error setting default value for Source: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&Prediction{}, "Source"); err != nil {
		return fmt.Errorf("error dropping Source column: %w", err)
	}

	if err := db.Migrator().DropColumn(&Prediction{}, "Scores"); err != nil {
		return fmt.Errorf("error dropping Scores column: %w", err)
	}

	return nil
}
