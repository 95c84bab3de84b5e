package classify

import (
	"log/slog"

	"github.com/intakehq/docintake/internal/document"
)

// Reconcile corrects inconsistent label sets across one batch. Downstream
// structuring needs the attestation page whenever a certificate is present,
// but the classifier under-detects attestation pages because they resemble ID
// cards. When a certificate label exists and no attestation label does, every
// page currently carrying an id-type or unclassified label is retargeted to
// certificate_attestation, in page arrival order.
//
// Retargeting all eligible pages (rather than stopping at the first) is
// intentional pending product review: multi-page ID scans make the first
// eligible page an unreliable pick. It returns the number of pages relabeled.
func Reconcile(pages []*document.Page) int {
	hasCertificate := false
	hasAttestation := false
	for _, p := range pages {
		switch {
		case p.Label == document.LabelCertificate:
			hasCertificate = true
		case p.Label.IsAttestation():
			hasAttestation = true
		}
	}

	if !hasCertificate || hasAttestation {
		return 0
	}

	slog.Warn("certificate present without attestation page, retargeting candidates")
	relabeled := 0
	for _, p := range pages {
		if p.Label.IsID() || p.Label == document.LabelUnclassified {
			slog.Info("relabeled page as attestation",
				"file", p.SourceFile, "previous_label", string(p.Label))
			p.Label = document.LabelAttestation
			relabeled++
		}
	}
	return relabeled
}
