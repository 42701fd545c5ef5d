package migration_0

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Prediction struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Edad               float32
	Estatura           float32
	Peso               float32
	DosisQuimioterapia float32

	ClassIndex     sql.NullInt64
	PredictedClass string `gorm:"size:32;index"`
	Error          sql.NullString

	CreationTime time.Time `gorm:"index"`
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Prediction{}); err != nil {
		return fmt.Errorf("Migration0 failed: %w", err)
	}
	return nil
}
