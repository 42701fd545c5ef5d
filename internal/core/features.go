package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	FieldEdad               = "edad"
	FieldEstatura           = "estatura"
	FieldPeso               = "peso"
	FieldDosisQuimioterapia = "dosis_quimioterapia"
)

const (
	BatchSize   = 1
	Timesteps   = 1
	NumFeatures = 5

	// paddingValue fills the fifth model input. The model was exported with
	// five inputs per timestep while requests only carry four measurements.
	paddingValue float32 = 0
)

var requiredFields = [...]string{FieldEdad, FieldEstatura, FieldPeso, FieldDosisQuimioterapia}

var (
	ErrMissingFields  = errors.New("missing required fields")
	ErrInvalidFeature = errors.New("invalid feature value")
)

// RequiredFields returns the request keys in the order they are fed to the model.
func RequiredFields() []string {
	return append([]string(nil), requiredFields[:]...)
}

// InputShape is the (batch, timesteps, features) shape the model expects.
func InputShape() []int64 {
	return []int64{BatchSize, Timesteps, NumFeatures}
}

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingFields, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}

type InvalidFeatureError struct {
	Field  string
	Reason string
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("%v for '%s': %s", ErrInvalidFeature, e.Field, e.Reason)
}

func (e *InvalidFeatureError) Is(target error) bool {
	return target == ErrInvalidFeature
}

type Features struct {
	Edad               float32 `json:"edad"`
	Estatura           float32 `json:"estatura"`
	Peso               float32 `json:"peso"`
	DosisQuimioterapia float32 `json:"dosis_quimioterapia"`
}

// Vector returns the flattened model input: the four measurements followed by
// the padding feature.
func (f Features) Vector() []float32 {
	return []float32{f.Edad, f.Estatura, f.Peso, f.DosisQuimioterapia, paddingValue}
}

// ParseFeatures extracts the required measurements from a decoded JSON object.
// Every absent key is reported at once; values may be JSON numbers or numeric
// strings.
func ParseFeatures(raw map[string]json.RawMessage) (Features, error) {
	var missing []string
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Features{}, &MissingFieldsError{Fields: missing}
	}

	values := make([]float32, len(requiredFields))
	for i, field := range requiredFields {
		v, err := coerceFloat(raw[field])
		if err != nil {
			return Features{}, &InvalidFeatureError{Field: field, Reason: err.Error()}
		}
		values[i] = v
	}

	return Features{
		Edad:               values[0],
		Estatura:           values[1],
		Peso:               values[2],
		DosisQuimioterapia: values[3],
	}, nil
}

func coerceFloat(raw json.RawMessage) (float32, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, fmt.Errorf("value is null")
	}

	var f float64
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("malformed string: %w", err)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: '%s'", s)
		}
		f = parsed
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, fmt.Errorf("malformed number: %w", err)
		}
	default:
		return 0, fmt.Errorf("expected a number, got %s", trimmed)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("value %v is not a finite float32", f)
	}

	return float32(f), nil
}
