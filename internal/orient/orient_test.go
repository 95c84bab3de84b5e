package orient

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/docintake/internal/document"
	"github.com/intakehq/docintake/internal/testutil"
	"github.com/intakehq/docintake/internal/utils"
)

type stubJudge struct {
	decision document.RotationDecision
	err      error
	labels   []document.Label
}

func (s *stubJudge) Judge(_ context.Context, _ image.Image, label document.Label) (document.RotationDecision, error) {
	s.labels = append(s.labels, label)
	return s.decision, s.err
}

func TestCorrectSkipsNonRotatableLabels(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "form.jpg", document.LabelEmployeeForm)
	original := page.ImagePath

	// A judge demanding rotation must never run for exempt labels.
	c := NewCorrector(&stubJudge{decision: document.RotationDecision{Needed: true, Angle: 180}}, nil)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.Equal(t, original, page.ImagePath)
}

func TestCorrectAppliesJudgedRotation(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "passport.jpg", document.LabelPassportFront)

	c := NewCorrector(&stubJudge{decision: document.RotationDecision{
		Needed: true, Angle: 90, Reason: "text reads top to bottom",
	}}, nil)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.NotEqual(t, filepath.Join(dir, "passport.jpg"), page.ImagePath)
	img, _, err := utils.LoadImage(page.ImagePath)
	require.NoError(t, err)
	// 320x240 source becomes 240x320 after a quarter turn.
	assert.Equal(t, 240, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestCorrectKeepsUprightPage(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "cert.jpg", document.LabelCertificate)
	original := page.ImagePath

	c := NewCorrector(&stubJudge{decision: document.RotationDecision{Needed: false}}, nil)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.Equal(t, original, page.ImagePath)
}

func TestCorrectPassesLabelToJudge(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "passport.jpg", document.LabelPassportFront)

	judge := &stubJudge{decision: document.RotationDecision{Needed: false}}
	c := NewCorrector(judge, nil)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.Equal(t, []document.Label{document.LabelPassportFront}, judge.labels)
}

func TestCorrectKeepsOrientationWhenJudgeFails(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "photo.jpg", document.LabelPersonalPhoto)
	original := page.ImagePath

	measureCalls := 0
	measure := func(_ context.Context, _ image.Image) (int, error) {
		measureCalls++
		return 12, nil
	}

	// A failing judge keeps the page as-is; the text-length heuristic
	// never runs behind a configured judge.
	c := NewCorrector(&stubJudge{err: errors.New("quota exceeded")}, measure)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.Equal(t, original, page.ImagePath)
	assert.Zero(t, measureCalls)
}

func TestCorrectKeepsOrientationOnUnsupportedAngle(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "passport.jpg", document.LabelPassportFront)
	original := page.ImagePath

	c := NewCorrector(&stubJudge{decision: document.RotationDecision{Needed: true, Angle: 45}}, nil)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.Equal(t, original, page.ImagePath)
}

func TestCorrectUsesTextLengthWithoutJudge(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "photo.jpg", document.LabelPersonalPhoto)

	measured := map[int]int{0: 3, 90: 12, 180: 4, 270: 2}
	call := 0
	measure := func(_ context.Context, _ image.Image) (int, error) {
		n := measured[candidateAngles[call]]
		call++
		return n, nil
	}

	c := NewCorrector(nil, measure)
	require.NoError(t, c.Correct(context.Background(), page))

	img, _, err := utils.LoadImage(page.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, 240, img.Bounds().Dx())
}

func TestCorrectKeepsOrientationWithoutFallback(t *testing.T) {
	dir := t.TempDir()
	page := testutil.NewPage(t, dir, "photo.jpg", document.LabelPersonalPhoto)
	original := page.ImagePath

	c := NewCorrector(&stubJudge{err: errors.New("unavailable")}, nil)
	require.NoError(t, c.Correct(context.Background(), page))

	assert.Equal(t, original, page.ImagePath)
}

func TestFallbackAngleTieFavorsZero(t *testing.T) {
	img := testutil.CreateTestImage(100, 80)
	measure := func(_ context.Context, _ image.Image) (int, error) { return 7, nil }

	angle, err := FallbackAngle(context.Background(), img, measure)
	require.NoError(t, err)
	assert.Equal(t, 0, angle)
}

func TestFallbackAngleAllMeasurementsFail(t *testing.T) {
	img := testutil.CreateTestImage(100, 80)
	measure := func(_ context.Context, _ image.Image) (int, error) {
		return 0, errors.New("engine offline")
	}

	_, err := FallbackAngle(context.Background(), img, measure)
	assert.Error(t, err)
}
