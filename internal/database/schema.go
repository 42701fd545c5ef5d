package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SourceSingle string = "single"
	SourceBatch  string = "batch"
)

// Prediction is one forward pass served by the API, successful or not.
type Prediction struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Edad               float32
	Estatura           float32
	Peso               float32
	DosisQuimioterapia float32

	ClassIndex     sql.NullInt64
	PredictedClass string `gorm:"size:32;index"`
	Error          sql.NullString
	Scores         datatypes.JSON

	Source       string    `gorm:"size:20;not null;default:single"`
	CreationTime time.Time `gorm:"index"`
}
