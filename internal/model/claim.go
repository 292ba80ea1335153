package model

// Claim is an insurance claim snapshot as supplied by the backend
type Claim struct {
	ClaimID       string   `json:"claim_id"`
	LOB           string   `json:"lob,omitempty"`       // Line of business (e.g., "motor")
	LossType      string   `json:"loss_type,omitempty"` // e.g., "collision", "theft"
	Amount        *float64 `json:"amount,omitempty"`    // Claimed amount, nil when unknown
	Currency      string   `json:"currency,omitempty"`
	GatePassCount int      `json:"gate_pass_count"`
	GateWarnCount int      `json:"gate_warn_count"`
	GateFailCount int      `json:"gate_fail_count"`
	DocCount      int      `json:"doc_count"`
}

// Document is a file attached to exactly one claim
type Document struct {
	DocID         string        `json:"doc_id"`
	Filename      string        `json:"filename"`
	QualityStatus QualityStatus `json:"quality_status"`
}

// QualityStatus is the document-level quality gate result.
// Values other than the known ones are kept verbatim.
type QualityStatus string

const (
	QualityPass QualityStatus = "pass"
	QualityWarn QualityStatus = "warn"
	QualityFail QualityStatus = "fail"
)
