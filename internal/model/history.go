package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryEntry is one assessment run of a claim
type HistoryEntry struct {
	RunID           string    `json:"run_id"`
	Timestamp       time.Time `json:"timestamp"`
	Decision        Decision  `json:"decision"`
	ConfidenceScore float64   `json:"confidence_score"` // 0..1
	CheckCount      int       `json:"check_count"`
	PassCount       int       `json:"pass_count"`
	FailCount       int       `json:"fail_count"`
	AssumptionCount int       `json:"assumption_count"`
	IsCurrent       bool      `json:"is_current"`
}

// UnmarshalJSON requires a decision
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	type plain HistoryEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Decision == "" {
		return fmt.Errorf("run %q: %w", p.RunID, errMissing("decision"))
	}
	*e = HistoryEntry(p)
	return nil
}

// Decision is the outcome of an assessment run
type Decision string

const (
	DecisionApprove      Decision = "APPROVE"
	DecisionReject       Decision = "REJECT"
	DecisionReferToHuman Decision = "REFER_TO_HUMAN"
)

// UnmarshalText rejects decisions outside the closed enum
func (d *Decision) UnmarshalText(text []byte) error {
	switch v := Decision(text); v {
	case DecisionApprove, DecisionReject, DecisionReferToHuman:
		*d = v
		return nil
	default:
		return fmt.Errorf("unknown decision %q", string(text))
	}
}
