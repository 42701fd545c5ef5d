package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClassifier struct {
	inputs [][]float32
	shapes [][]int64
	scores []float32
	err    error
}

func (c *recordingClassifier) ForwardPass(input []float32, shape []int64) ([]float32, error) {
	c.inputs = append(c.inputs, append([]float32(nil), input...))
	c.shapes = append(c.shapes, append([]int64(nil), shape...))
	return c.scores, c.err
}

func (c *recordingClassifier) Release() {}

func TestClassMapping(t *testing.T) {
	classes := DefaultClassMapping()

	expected := []string{"IA1", "IA2", "IB", "IIA", "IIIA", "IIIB", "IIIC", "IVA", "IVB"}
	assert.Equal(t, expected, classes.Labels())
	assert.Equal(t, 9, classes.Len())
	for i, label := range expected {
		assert.Equal(t, label, classes.Label(i))
	}

	assert.Equal(t, UnknownStage, classes.Label(9))
	assert.Equal(t, UnknownStage, classes.Label(-1))

	labels := classes.Labels()
	labels[0] = "X"
	assert.Equal(t, "IA1", classes.Label(0))
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, 0, ArgMax([]float32{0.5}))
	assert.Equal(t, 2, ArgMax([]float32{0.1, 0.2, 0.6, 0.1}))
	assert.Equal(t, 1, ArgMax([]float32{0.1, 0.4, 0.4, 0.1}))
	assert.Equal(t, 0, ArgMax([]float32{-3, -4, -5}))
}

func TestPredictorPredict(t *testing.T) {
	classifier := &recordingClassifier{scores: []float32{0.01, 0.02, 0.03, 0.04, 0.7, 0.05, 0.05, 0.05, 0.05}}
	predictor := NewPredictor(classifier, DefaultClassMapping())

	pred, err := predictor.Predict(Features{Edad: 45, Estatura: 160, Peso: 65, DosisQuimioterapia: 3})
	require.NoError(t, err)

	assert.Equal(t, 4, pred.Index)
	assert.Equal(t, "IIIA", pred.Label)
	require.Len(t, classifier.inputs, 1)
	assert.Equal(t, []float32{45, 160, 65, 3, 0}, classifier.inputs[0])
	assert.Equal(t, []int64{1, 1, 5}, classifier.shapes[0])
}

func TestPredictorDeterministic(t *testing.T) {
	classifier := &recordingClassifier{scores: []float32{0, 0, 0, 0, 0, 0, 0, 0.9, 0.1}}
	predictor := NewPredictor(classifier, DefaultClassMapping())

	features := Features{Edad: 60, Estatura: 170, Peso: 80, DosisQuimioterapia: 2}
	first, err := predictor.Predict(features)
	require.NoError(t, err)
	second, err := predictor.Predict(features)
	require.NoError(t, err)

	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, "IVA", first.Label)
}

func TestPredictorUnknownIndex(t *testing.T) {
	scores := make([]float32, 12)
	scores[11] = 1
	predictor := NewPredictor(&recordingClassifier{scores: scores}, DefaultClassMapping())

	pred, err := predictor.Predict(Features{})
	require.NoError(t, err)
	assert.Equal(t, UnknownStage, pred.Label)
}

func TestPredictorErrors(t *testing.T) {
	predictor := NewPredictor(&recordingClassifier{err: errors.New("shape mismatch")}, DefaultClassMapping())
	_, err := predictor.Predict(Features{})
	assert.ErrorIs(t, err, ErrInference)
	assert.ErrorContains(t, err, "shape mismatch")

	predictor = NewPredictor(&recordingClassifier{}, DefaultClassMapping())
	_, err = predictor.Predict(Features{})
	assert.ErrorIs(t, err, ErrInference)
}

func TestPredictorWarmUp(t *testing.T) {
	classifier := &recordingClassifier{scores: []float32{1}}
	predictor := NewPredictor(classifier, DefaultClassMapping())

	require.NoError(t, predictor.WarmUp())
	require.Len(t, classifier.inputs, 1)
	assert.Equal(t, []float32{0, 0, 0, 0, 0}, classifier.inputs[0])

	failing := NewPredictor(&recordingClassifier{err: errors.New("boom")}, DefaultClassMapping())
	assert.Error(t, failing.WarmUp())
}
