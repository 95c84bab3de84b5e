package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intakehq/docintake/internal/document"
)

func pagesWithLabels(labels ...document.Label) []*document.Page {
	pages := make([]*document.Page, len(labels))
	for i, l := range labels {
		pages[i] = &document.Page{SourceFile: "file", Label: l}
	}
	return pages
}

func TestReconcileRetargetsUnclassified(t *testing.T) {
	pages := pagesWithLabels(document.LabelCertificate, document.LabelUnclassified)

	n := Reconcile(pages)

	assert.Equal(t, 1, n)
	assert.Equal(t, document.LabelAttestation, pages[1].Label)
	assert.Equal(t, document.LabelCertificate, pages[0].Label)
}

func TestReconcileRetargetsEveryEligiblePage(t *testing.T) {
	pages := pagesWithLabels(
		document.LabelCertificate,
		document.LabelNationalIDFront,
		document.LabelNationalIDBack,
		document.LabelPassportFront,
	)

	n := Reconcile(pages)

	assert.Equal(t, 2, n)
	assert.Equal(t, document.LabelAttestation, pages[1].Label)
	assert.Equal(t, document.LabelAttestation, pages[2].Label)
	// Passport pages are never retargeted.
	assert.Equal(t, document.LabelPassportFront, pages[3].Label)
}

func TestReconcileNoOpWhenAttestationPresent(t *testing.T) {
	pages := pagesWithLabels(
		document.LabelCertificate,
		document.LabelAttestation,
		document.LabelUnclassified,
	)

	n := Reconcile(pages)

	assert.Equal(t, 0, n)
	assert.Equal(t, document.LabelUnclassified, pages[2].Label)
}

func TestReconcileNoOpWithoutCertificate(t *testing.T) {
	pages := pagesWithLabels(document.LabelNationalIDFront, document.LabelUnclassified)

	assert.Equal(t, 0, Reconcile(pages))
	assert.Equal(t, document.LabelNationalIDFront, pages[0].Label)
	assert.Equal(t, document.LabelUnclassified, pages[1].Label)
}

func TestReconcileEmptyBatch(t *testing.T) {
	assert.Equal(t, 0, Reconcile(nil))
}
