// Package classify assigns each page image a document-type label and
// reconciles inconsistent label sets across a batch.
package classify

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/onnx"
)

// Classifier assigns a document-type label to a page image.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (document.Label, error)
}

// Config controls the local classification model.
type Config struct {
	ModelPath  string
	NumThreads int
	// Classes maps model output indices to labels. When empty, the closed
	// label set in lexical order is assumed, matching training-folder order.
	Classes []document.Label
}

const inputSize = 224

// ImageNet normalization constants the classifier was trained with.
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// Model is an ONNX-backed Classifier.
type Model struct {
	cfg     Config
	session *onnxrt.DynamicAdvancedSession
	classes []document.Label
}

// NewModel loads the classification model from cfg.ModelPath.
func NewModel(cfg Config) (*Model, error) {
	session, _, _, err := onnx.NewSession(cfg.ModelPath, cfg.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	classes := cfg.Classes
	if len(classes) == 0 {
		classes = defaultClasses()
	}
	return &Model{cfg: cfg, session: session, classes: classes}, nil
}

// defaultClasses returns the closed label set sorted lexically, the order the
// training dataset directories produce.
func defaultClasses() []document.Label {
	classes := make([]document.Label, len(document.AllLabels))
	copy(classes, document.AllLabels)
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// Classify runs the model on img and returns the highest-probability label.
func (m *Model) Classify(ctx context.Context, img image.Image) (document.Label, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil {
		return "", fmt.Errorf("classify: nil image")
	}

	data := preprocess(img)
	input, err := onnxrt.NewTensor(onnxrt.NewShape(1, 3, inputSize, inputSize), data)
	if err != nil {
		return "", fmt.Errorf("classify: input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := m.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return "", fmt.Errorf("classify: inference: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	logits, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return "", fmt.Errorf("classify: unexpected output type %T", outputs[0])
	}

	probs := onnx.Softmax(logits.GetData())
	best, bestIdx := float32(-1), -1
	for i, p := range probs {
		if p > best {
			best, bestIdx = p, i
		}
	}
	if bestIdx < 0 || bestIdx >= len(m.classes) {
		return document.LabelUnclassified, nil
	}
	return m.classes[bestIdx], nil
}

// Close releases the underlying session.
func (m *Model) Close() error {
	if m.session != nil {
		err := m.session.Destroy()
		m.session = nil
		return err
	}
	return nil
}

// preprocess resizes img to the model's square input and normalizes pixels to
// NCHW float32 with the training mean/std.
func preprocess(img image.Image) []float32 {
	resized := imaging.Resize(img, inputSize, inputSize, imaging.Lanczos)
	nrgba := imaging.Clone(resized)

	data := make([]float32, 3*inputSize*inputSize)
	plane := inputSize * inputSize
	for y := range inputSize {
		for x := range inputSize {
			i := nrgba.PixOffset(x, y)
			r := float32(nrgba.Pix[i]) / 255.0
			g := float32(nrgba.Pix[i+1]) / 255.0
			b := float32(nrgba.Pix[i+2]) / 255.0
			idx := y*inputSize + x
			data[idx] = (r - normMean[0]) / normStd[0]
			data[plane+idx] = (g - normMean[1]) / normStd[1]
			data[2*plane+idx] = (b - normMean[2]) / normStd[2]
		}
	}
	return data
}
