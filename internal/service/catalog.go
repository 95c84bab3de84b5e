package service

// defaultServices is the bundled labour-ministry service catalog, used when
// no catalog file is configured.
var defaultServices = []string{
	"Work Permit Cancellation",
	"New Work Permit Application",
	"Contract Amendment",
	"Labour Card Issuance",
	"Salary Complaint",
	"Work Permit Renewal",
	"Temporary Work Permit",
	"Part-Time Work Permit",
	"Student Training Permit",
	"Juvenile Work Permit",
	"Employment Contract Registration",
	"Labour Card Cancellation",
	"Labour Card Renewal",
	"Bank Guarantee Refund",
	"Issue New Employment Visa",
	"Employment Visa Renewal",
	"Employment Visa Cancellation",
	"Labour Complaint",
	"Absconding Report",
	"Wage Protection System Registration",
	"Wage Protection System Amendment",
	"Wage Protection System Cancellation",
	"Establishment Card Renewal",
	"Establishment Registration",
	"Domestic Worker Permit",
	"Transfer Work Permit",
	"Work Injury Compensation",
	"End of Service Benefits Claim",
	"Quota Request",
	"Job Offer Registration",
	"Work Permit Replacement",
	"Probation Period Contract",
	"Mission Work Permit",
	"Family Residence Visa Sponsorship",
	"Occupational Health Card",
	"Certification of Loss of Passport",
	"Grievance Submission",
	"Housing Allowance Request",
	"Contract Termination",
	"Employment History Request",
	"Complaint Follow-up",
	"Salary Certificate Issuance",
	"Resignation Notice",
	"Return of Work Permit Deposit",
	"Establishment Data Update",
	"Emiratisation Certificate Request",
	"Part-time Job Approval",
	"Exemption from Bank Guarantee",
	"Work Place Inspection Request",
	"Annual Leave Approval",
}
