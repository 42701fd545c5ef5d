//go:build !windows

package core

import (
	"fmt"
	"log/slog"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

type OnnxClassifier struct {
	session    *ort.DynamicAdvancedSession
	numClasses int64
}

var _ Classifier = (*OnnxClassifier)(nil)

// LoadOnnxClassifier opens a session on the model file. The runtime environment
// must already be initialized with ort.InitializeEnvironment.
func LoadOnnxClassifier(modelPath, inputName, outputName string, numClasses int) (*OnnxClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, err)
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("invalid number of classes %d", numClasses)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}

	return &OnnxClassifier{session: session, numClasses: int64(numClasses)}, nil
}

func (m *OnnxClassifier) ForwardPass(input []float32, shape []int64) ([]float32, error) {
	inShape := ort.NewShape(shape...)
	if inShape.FlattenedSize() != int64(len(input)) {
		return nil, fmt.Errorf("input of length %d does not match shape %v", len(input), shape)
	}

	inT, err := ort.NewTensor(inShape, input)
	if err != nil {
		return nil, err
	}
	defer inT.Destroy()

	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(shape[0], m.numClasses))
	if err != nil {
		return nil, err
	}
	defer outT.Destroy()

	if err := m.session.Run([]ort.Value{inT}, []ort.Value{outT}); err != nil {
		return nil, fmt.Errorf("session run error: %w", err)
	}

	// the output buffer is freed with the tensor
	scores := make([]float32, m.numClasses)
	copy(scores, outT.GetData()[:m.numClasses])
	return scores, nil
}

func (m *OnnxClassifier) Release() {
	if err := m.session.Destroy(); err != nil {
		slog.Error("error destroying onnx session", "error", err)
	}
}
