package recognize

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/testutil"
)

type scriptedEngine struct {
	results []Result
	errs    []error
	calls   int
}

func (s *scriptedEngine) Recognize(_ context.Context, _ image.Image) (Result, error) {
	call := s.calls
	s.calls++
	var err error
	if call < len(s.errs) {
		err = s.errs[call]
	}
	if call >= len(s.results) {
		call = len(s.results) - 1
	}
	return s.results[call], err
}

func testSelector(primary, secondary Engine) *Selector {
	s := NewSelector(primary, secondary, SelectorConfig{LowConfidence: 0.3, ShortTextChars: 100})
	// Tests script the engine output directly; keep the enhanced pass a
	// pure pass-through so call counts stay deterministic.
	s.enhance = func(img image.Image) image.Image { return img }
	return s
}

func longText() string {
	text := ""
	for range 30 {
		text += "word "
	}
	return text
}

func TestSelectorKeepsConfidentStructuredRead(t *testing.T) {
	primary := &scriptedEngine{results: []Result{
		{Text: "EMIRATES ID 784-1990-1234567-1", Confidence: 0.9, Engine: EngineDocumentAI},
	}}
	secondary := &scriptedEngine{results: []Result{{Text: "should not run", Engine: EngineTesseract}}}

	res, err := testSelector(primary, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelNationalIDFront)

	require.NoError(t, err)
	assert.Equal(t, EngineDocumentAI, res.Engine)
	assert.Zero(t, secondary.calls)
}

func TestSelectorFallsBackOnLowConfidence(t *testing.T) {
	primary := &scriptedEngine{results: []Result{{Text: "??", Confidence: 0.1, Engine: EngineDocumentAI}}}
	secondary := &scriptedEngine{results: []Result{{Text: longText(), Engine: EngineTesseract}}}

	res, err := testSelector(primary, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelCertificate)

	require.NoError(t, err)
	assert.Equal(t, EngineTesseract, res.Engine)
}

func TestSelectorFallsBackWhenUnconfigured(t *testing.T) {
	primary := &scriptedEngine{results: []Result{{}}, errs: []error{ErrUnconfigured}}
	secondary := &scriptedEngine{results: []Result{{Text: longText(), Engine: EngineTesseract}}}

	res, err := testSelector(primary, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelCertificate)

	require.NoError(t, err)
	assert.Equal(t, EngineTesseract, res.Engine)
}

func TestSelectorEnhancedPassOnShortText(t *testing.T) {
	secondary := &scriptedEngine{results: []Result{
		{Text: "abc", Engine: EngineTesseract},
		{Text: "abcdef ghij", Engine: EngineTesseract},
	}}

	res, err := testSelector(nil, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelCertificate)

	require.NoError(t, err)
	assert.Equal(t, 2, secondary.calls)
	assert.Equal(t, "abcdef ghij", res.Text)
}

func TestSelectorEnhancedPassAlwaysRunsForPassports(t *testing.T) {
	secondary := &scriptedEngine{results: []Result{
		{Text: longText(), Engine: EngineTesseract},
		{Text: "short", Engine: EngineTesseract},
	}}

	res, err := testSelector(nil, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelPassportFront)

	require.NoError(t, err)
	assert.Equal(t, 2, secondary.calls)
	// The longer first read wins.
	assert.Equal(t, longText(), res.Text)
}

func TestSelectorEveryEngineFailing(t *testing.T) {
	primary := &scriptedEngine{results: []Result{{}}, errs: []error{errors.New("quota")}}
	secondary := &scriptedEngine{results: []Result{{}}, errs: []error{errors.New("missing traineddata")}}

	res, err := testSelector(primary, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelCertificate)

	require.NoError(t, err)
	assert.Equal(t, EngineUnavailable, res.Engine)
	assert.Empty(t, res.Text)
}

func TestSelectorPrefersLongerStructuredReadOverWeakGeneralRead(t *testing.T) {
	primary := &scriptedEngine{results: []Result{
		{Text: longText(), Confidence: 0.2, Engine: EngineDocumentAI},
	}}
	secondary := &scriptedEngine{results: []Result{{Text: "x", Engine: EngineTesseract}}}

	res, err := testSelector(primary, secondary).Recognize(
		context.Background(), testutil.CreateTestImage(64, 64), document.LabelCertificate)

	require.NoError(t, err)
	assert.Equal(t, EngineDocumentAI, res.Engine)
}
