//go:build windows

package core

import "errors"

var ErrOnnxNotSupportedOnWindows = errors.New("ONNX models are not supported on Windows")

type OnnxClassifier struct{}

func LoadOnnxClassifier(modelPath, inputName, outputName string, numClasses int) (*OnnxClassifier, error) {
	return nil, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxClassifier) ForwardPass(input []float32, shape []int64) ([]float32, error) {
	return nil, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxClassifier) Release() {
	// no-op
}
