package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/docintake/internal/consolidate"
	"github.com/intakehq/docintake/internal/detect"
	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/recognize"
	"github.com/intakehq/docintake/internal/structure"
	"github.com/intakehq/docintake/internal/testutil"
)

type fakeClassifier struct {
	labels map[string]document.Label
}

func (f *fakeClassifier) Classify(_ context.Context, _ image.Image) (document.Label, error) {
	// Labels are keyed by call order via a shrinking queue; a map keyed by
	// image content would be overkill for these tests.
	for k, v := range f.labels {
		delete(f.labels, k)
		return v, nil
	}
	return document.LabelUnclassified, nil
}

type fakeRecognizer struct {
	text   string
	fields document.FieldSet
	err    error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ image.Image, _ document.Label) (recognize.Result, error) {
	if f.err != nil {
		return recognize.Result{}, f.err
	}
	return recognize.Result{Text: f.text, Confidence: 0.9, Engine: recognize.EngineDocumentAI, Fields: f.fields}, nil
}

type fakeCropper struct {
	path  string
	err   error
	calls int
}

func (f *fakeCropper) Crop(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

type fakeStructurer struct {
	fields document.FieldSet
	raw    string
}

func (f *fakeStructurer) Structure(_ context.Context, _ structure.Input) (document.FieldSet, string, error) {
	return f.fields, f.raw, nil
}

func newTestPipeline(t *testing.T, dir string, deps Deps) *Pipeline {
	t.Helper()
	if deps.Recognizer == nil {
		deps.Recognizer = &fakeRecognizer{text: "some text"}
	}
	if deps.Consolidator == nil {
		deps.Consolidator = consolidate.New(consolidate.Options{
			OutputDir:  filepath.Join(dir, "out"),
			MaxImageKB: 250,
		})
	}
	deps.ScratchDir = dir
	p, err := New(deps)
	require.NoError(t, err)
	return p
}

func TestNewRequiresCoreDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Recognizer: &fakeRecognizer{}})
	assert.Error(t, err)
}

func TestProcessBundleEndToEnd(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "scan.jpg", document.LabelPassportFront)

	structured := document.FieldSet{}
	structured.Set(document.FullNameKey, "Yogeshkumar Sant")

	p := newTestPipeline(t, dir, Deps{
		Classifier: &fakeClassifier{labels: map[string]document.Label{"a": document.LabelPassportFront}},
		Recognizer: &fakeRecognizer{text: "Passport No: Z5547821"},
		Structurer: &fakeStructurer{fields: structured, raw: `{"Full Name": "Yogeshkumar Sant"}`},
	})

	bundle := &document.Bundle{
		Name:             "visa-renewal",
		Files:            []string{page.ImagePath},
		RequestedService: "Employment Visa Renewal",
		ServiceNeeded:    "Employment Visa Renewal",
	}
	require.NoError(t, p.ProcessBundle(context.Background(), bundle))

	outDir := filepath.Join(dir, "out", "visa-renewal")
	summary := testutil.ReadFile(t, filepath.Join(outDir, "Yogeshkumar_COMPLETE_DETAILS.txt"))
	assert.Contains(t, summary, "Full Name: Yogeshkumar Sant")
	assert.Contains(t, summary, "Passport Number: Z5547821")
	assert.Contains(t, summary, "Requested Service: Employment Visa Renewal")
	assert.True(t, testutil.FileExists(filepath.Join(outDir, "Yogeshkumar_passport_front.jpg")))
}

func TestProcessBundleSkipsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "notes.xyz")
	testutil.WriteFile(t, junk, "not an image")

	p := newTestPipeline(t, dir, Deps{})

	bundle := &document.Bundle{Name: "empty", Files: []string{junk}}
	require.NoError(t, p.ProcessBundle(context.Background(), bundle))
	assert.False(t, testutil.FileExists(filepath.Join(dir, "out", "empty")))
}

func TestProcessBundleWithoutClassifierStaysUnclassified(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "scan.jpg", document.LabelUnclassified)

	p := newTestPipeline(t, dir, Deps{
		Recognizer: &fakeRecognizer{text: "plain text"},
	})

	bundle := &document.Bundle{Name: "b", Files: []string{page.ImagePath}}
	require.NoError(t, p.ProcessBundle(context.Background(), bundle))
	assert.True(t, testutil.FileExists(filepath.Join(dir, "out", "b", "Unknown_unclassified.jpg")))
}

func TestProcessBundleCropsEveryPage(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "passport.jpg", document.LabelPassportFront)
	region := testutil.NewPage(t, dir, "region.jpg", document.LabelPassportFront)

	cropper := &fakeCropper{path: region.ImagePath}
	p := newTestPipeline(t, dir, Deps{
		Classifier: &fakeClassifier{labels: map[string]document.Label{"a": document.LabelPassportFront}},
		Cropper:    cropper,
	})

	bundle := &document.Bundle{Name: "b", Files: []string{page.ImagePath}}
	require.NoError(t, p.ProcessBundle(context.Background(), bundle))

	// Non-attestation pages go through region extraction too; the saved
	// artifact comes from the cropped region.
	assert.Equal(t, 1, cropper.calls)
	assert.True(t, testutil.FileExists(filepath.Join(dir, "out", "b", "Unknown_passport_front.jpg")))
}

func TestProcessBundleDropsPageWithoutDetection(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "blank.jpg", document.LabelPassportFront)

	p := newTestPipeline(t, dir, Deps{
		Cropper: &fakeCropper{err: fmt.Errorf("crop blank.jpg: %w", detect.ErrNoDetection)},
	})

	bundle := &document.Bundle{Name: "b", Files: []string{page.ImagePath}}
	require.NoError(t, p.ProcessBundle(context.Background(), bundle))
	assert.False(t, testutil.FileExists(filepath.Join(dir, "out", "b")))
}

type failingClassifier struct{}

func (failingClassifier) Classify(_ context.Context, _ image.Image) (document.Label, error) {
	return "", assert.AnError
}

func TestProcessBundleDropsPageOnClassifierFailure(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "scan.jpg", document.LabelUnclassified)

	p := newTestPipeline(t, dir, Deps{Classifier: failingClassifier{}})

	bundle := &document.Bundle{Name: "b", Files: []string{page.ImagePath}}
	require.NoError(t, p.ProcessBundle(context.Background(), bundle))
	assert.False(t, testutil.FileExists(filepath.Join(dir, "out", "b")))
}

func TestRunContinuesAfterBundleFailure(t *testing.T) {
	dir := t.TempDir()
	good := testutil.NewPage(t, dir, "good.jpg", document.LabelUnclassified)

	p := newTestPipeline(t, dir, Deps{})

	bundles := []*document.Bundle{
		{Name: "broken", Files: []string{filepath.Join(dir, "missing.jpg")}},
		{Name: "fine", Files: []string{good.ImagePath}},
	}
	done, err := p.Run(context.Background(), bundles)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, dir, Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done, err := p.Run(ctx, []*document.Bundle{{Name: "b"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, done)
}
