package detect

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"

	"github.com/intakehq/docintake/internal/onnx"
)

// Config controls the local detection model.
type Config struct {
	ModelPath  string
	NumThreads int
	// ConfThreshold discards candidate boxes below this score.
	ConfThreshold float64
	// IoUThreshold controls duplicate suppression.
	IoUThreshold float64
	// Classes maps model class indices to region labels.
	Classes []string
}

// DefaultConfig provides sensible defaults for the document detector.
func DefaultConfig() Config {
	return Config{
		ConfThreshold: 0.25,
		IoUThreshold:  0.45,
		Classes: []string{
			"document",
			"attestation_label",
			"photo",
		},
	}
}

const inputSize = 640

// Model is an ONNX-backed Detector for YOLO-style single-tensor outputs of
// shape [1, 4+numClasses, anchors].
type Model struct {
	cfg     Config
	session *onnxrt.DynamicAdvancedSession
}

// NewModel loads the detection model from cfg.ModelPath.
func NewModel(cfg Config) (*Model, error) {
	if cfg.ConfThreshold <= 0 {
		cfg.ConfThreshold = DefaultConfig().ConfThreshold
	}
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = DefaultConfig().IoUThreshold
	}
	if len(cfg.Classes) == 0 {
		cfg.Classes = DefaultConfig().Classes
	}
	session, _, _, err := onnx.NewSession(cfg.ModelPath, cfg.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	return &Model{cfg: cfg, session: session}, nil
}

// Detect runs the model and returns regions in descending confidence order.
// It returns ErrNoDetection when nothing clears the confidence threshold.
func (m *Model) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("detect: nil image")
	}

	bounds := img.Bounds()
	data := preprocess(img)
	input, err := onnxrt.NewTensor(onnxrt.NewShape(1, 3, inputSize, inputSize), data)
	if err != nil {
		return nil, fmt.Errorf("detect: input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := m.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("detect: inference: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	tensor, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("detect: unexpected output type %T", outputs[0])
	}

	dets := m.decode(tensor.GetData(), tensor.GetShape(), bounds.Dx(), bounds.Dy())
	dets = suppress(dets, m.cfg.IoUThreshold)
	if len(dets) == 0 {
		return nil, ErrNoDetection
	}
	return dets, nil
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

func preprocess(img image.Image) []float32 {
	resized := imaging.Resize(img, inputSize, inputSize, imaging.Linear)
	nrgba := imaging.Clone(resized)

	data := make([]float32, 3*inputSize*inputSize)
	plane := inputSize * inputSize
	for y := range inputSize {
		for x := range inputSize {
			i := nrgba.PixOffset(x, y)
			idx := y*inputSize + x
			data[idx] = float32(nrgba.Pix[i]) / 255.0
			data[plane+idx] = float32(nrgba.Pix[i+1]) / 255.0
			data[2*plane+idx] = float32(nrgba.Pix[i+2]) / 255.0
		}
	}
	return data
}

// decode converts the raw [1, 4+numClasses, anchors] tensor into detections
// scaled back to the source image.
func (m *Model) decode(data []float32, shape []int64, srcW, srcH int) []Detection {
	if len(shape) != 3 {
		return nil
	}
	rows := int(shape[1])
	anchors := int(shape[2])
	numClasses := rows - 4
	if numClasses <= 0 || len(data) < rows*anchors {
		return nil
	}

	sx := float64(srcW) / inputSize
	sy := float64(srcH) / inputSize

	var dets []Detection
	for a := range anchors {
		bestScore, bestClass := float32(0), -1
		for c := range numClasses {
			if s := data[(4+c)*anchors+a]; s > bestScore {
				bestScore, bestClass = s, c
			}
		}
		if float64(bestScore) < m.cfg.ConfThreshold || bestClass < 0 {
			continue
		}

		cx := float64(data[0*anchors+a])
		cy := float64(data[1*anchors+a])
		w := float64(data[2*anchors+a])
		h := float64(data[3*anchors+a])

		rect := image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		).Intersect(image.Rect(0, 0, srcW, srcH))
		if rect.Empty() {
			continue
		}

		label := fmt.Sprintf("class_%d", bestClass)
		if bestClass < len(m.cfg.Classes) {
			label = m.cfg.Classes[bestClass]
		}
		dets = append(dets, Detection{Box: rect, Label: label, Confidence: float64(bestScore)})
	}
	return dets
}

// suppress applies greedy IoU suppression, keeping higher-confidence boxes.
func suppress(dets []Detection, iouThreshold float64) []Detection {
	sort.Slice(dets, func(i, j int) bool { return dets[i].Confidence > dets[j].Confidence })

	var kept []Detection
	for _, d := range dets {
		overlaps := false
		for _, k := range kept {
			if iou(d.Box, k.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}
	return kept
}

func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
