package document

// Label identifies the role a page plays within a submission. The set is
// closed; the classifier maps every page onto one of these values.
type Label string

const (
	LabelPassportFront   Label = "passport_front"
	LabelPassportBack    Label = "passport_back"
	LabelNationalIDFront Label = "national_id_front"
	LabelNationalIDBack  Label = "national_id_back"
	LabelPersonalPhoto   Label = "personal_photo"
	LabelCertificate     Label = "certificate"
	LabelAttestation     Label = "certificate_attestation"
	LabelEmployeeForm    Label = "employee_form"
	LabelUnclassified    Label = "unclassified"
)

// AllLabels lists every valid label in classifier output order.
var AllLabels = []Label{
	LabelPassportFront,
	LabelPassportBack,
	LabelNationalIDFront,
	LabelNationalIDBack,
	LabelPersonalPhoto,
	LabelCertificate,
	LabelAttestation,
	LabelEmployeeForm,
	LabelUnclassified,
}

// Valid reports whether l is a member of the closed label set.
func (l Label) Valid() bool {
	for _, v := range AllLabels {
		if l == v {
			return true
		}
	}
	return false
}

// IsID reports whether the label denotes a national ID page. These are the
// pages eligible for attestation retargeting during reconciliation.
func (l Label) IsID() bool {
	return l == LabelNationalIDFront || l == LabelNationalIDBack
}

// IsPassport reports whether the label denotes a passport page.
func (l Label) IsPassport() bool {
	return l == LabelPassportFront || l == LabelPassportBack
}

// IsAttestation reports whether the label marks an attestation page.
func (l Label) IsAttestation() bool {
	return l == LabelAttestation
}

// Rotatable reports whether orientation correction applies to this label.
// All other document types are passed through unchanged.
func (l Label) Rotatable() bool {
	switch l {
	case LabelPassportFront, LabelPassportBack, LabelPersonalPhoto, LabelCertificate:
		return true
	default:
		return false
	}
}
