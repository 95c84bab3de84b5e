// Package onnx wraps ONNX Runtime session setup shared by the local
// classification and detection models.
package onnx

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yalue/onnxruntime_go"
)

const (
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

// EnvLibraryPath overrides the ONNX Runtime shared library location.
const EnvLibraryPath = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// setLibraryPath points the runtime at the platform's shared library.
func setLibraryPath() error {
	if p := os.Getenv(EnvLibraryPath); p != "" {
		onnxruntime_go.SetSharedLibraryPath(p)
		return nil
	}
	var lib string
	switch runtime.GOOS {
	case "darwin":
		lib = libDarwin
	case "windows":
		lib = libWindows
	default:
		lib = libLinux
	}
	onnxruntime_go.SetSharedLibraryPath(lib)
	return nil
}

// InitEnvironment initializes the shared ONNX Runtime environment once.
func InitEnvironment() error {
	if err := setLibraryPath(); err != nil {
		return fmt.Errorf("failed to set ONNX Runtime library path: %w", err)
	}
	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}
	return nil
}

// NewSession creates a dynamic session for the model with the named single
// input and output, optionally limiting intra-op threads.
func NewSession(modelPath string, numThreads int) (*onnxruntime_go.DynamicAdvancedSession, onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	var empty onnxruntime_go.InputOutputInfo

	if _, err := os.Stat(modelPath); err != nil {
		return nil, empty, empty, fmt.Errorf("model not found: %s", filepath.Clean(modelPath))
	}
	if err := InitEnvironment(); err != nil {
		return nil, empty, empty, err
	}

	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, empty, empty, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, empty, empty, fmt.Errorf("model %s has no usable inputs/outputs", filepath.Base(modelPath))
	}

	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, empty, empty, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = sessionOptions.Destroy() }()

	if numThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, empty, empty, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, sessionOptions)
	if err != nil {
		return nil, empty, empty, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, inputs[0], outputs[0], nil
}

// Softmax converts raw logits to probabilities in place-safe fashion.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxv := logits[0]
	for _, v := range logits[1:] {
		if v > maxv {
			maxv = v
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := expf(v - maxv)
		out[i] = e
		sum += float64(e)
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

func expf(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
