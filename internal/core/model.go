package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrInference = errors.New("inference failed")

// Classifier is the externally trained model. ForwardPass receives a flattened
// input tensor together with its shape and returns the class scores of the
// first batch row.
type Classifier interface {
	ForwardPass(input []float32, shape []int64) ([]float32, error)

	Release()
}

type Prediction struct {
	Index  int
	Label  string
	Scores []float32
}

// Predictor owns the loaded classifier and class mapping. It holds no mutable
// state and is safe for concurrent use if the classifier is.
type Predictor struct {
	classifier Classifier
	classes    ClassMapping
}

func NewPredictor(classifier Classifier, classes ClassMapping) *Predictor {
	return &Predictor{classifier: classifier, classes: classes}
}

func (p *Predictor) Classes() ClassMapping {
	return p.classes
}

func (p *Predictor) Predict(features Features) (Prediction, error) {
	return p.predictVector(features.Vector())
}

func (p *Predictor) predictVector(input []float32) (Prediction, error) {
	scores, err := p.classifier.ForwardPass(input, InputShape())
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if len(scores) == 0 {
		return Prediction{}, fmt.Errorf("%w: classifier returned no scores", ErrInference)
	}

	idx := ArgMax(scores)
	return Prediction{Index: idx, Label: p.classes.Label(idx), Scores: scores}, nil
}

// WarmUp runs a single forward pass on an all zero input so that lazy runtime
// initialization happens before the first real request.
func (p *Predictor) WarmUp() error {
	start := time.Now()
	pred, err := p.predictVector(make([]float32, NumFeatures))
	if err != nil {
		return fmt.Errorf("warm-up forward pass: %w", err)
	}
	slog.Info("model warm-up complete", "duration", time.Since(start), "class", pred.Label)
	return nil
}

func (p *Predictor) Release() {
	p.classifier.Release()
}

// ArgMax returns the index of the largest score, preferring the first index on
// ties, or -1 if scores is empty.
func ArgMax(scores []float32) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}
