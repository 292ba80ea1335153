package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Assumption is a value substituted during assessment when a fact could not
// be determined
type Assumption struct {
	CheckNumber  int    `json:"check_number"`
	Field        string `json:"field"`
	AssumedValue string `json:"assumed_value"`
	Impact       Impact `json:"impact"`
	Reason       string `json:"reason"`
}

// UnmarshalJSON requires an impact. A missing or null impact never reaches
// Impact.UnmarshalText, so it is checked after decoding.
func (a *Assumption) UnmarshalJSON(data []byte) error {
	type plain Assumption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Impact == "" {
		return fmt.Errorf("assumption %d %q: %w", p.CheckNumber, p.Field, errMissing("impact"))
	}
	*a = Assumption(p)
	return nil
}

// Impact is the severity of an assumption
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Rank orders impacts: high (0) < medium (1) < low (2).
// Panics on values outside the enum; decoding rejects them first.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	case ImpactLow:
		return 2
	default:
		panic(fmt.Sprintf("model: unknown impact %q", string(i)))
	}
}

// UnmarshalText rejects impacts outside the closed enum
func (i *Impact) UnmarshalText(text []byte) error {
	switch v := Impact(text); v {
	case ImpactHigh, ImpactMedium, ImpactLow:
		*i = v
		return nil
	default:
		return fmt.Errorf("unknown impact %q", string(text))
	}
}

// CheckResult is the outcome of one assessment check
type CheckResult struct {
	CheckNumber int          `json:"check_number"`
	CheckName   string       `json:"check_name"`
	Result      CheckOutcome `json:"result"`
	Details     string       `json:"details,omitempty"`
	DocID       string       `json:"doc_id,omitempty"` // Document the check points at, if any
}

// UnmarshalJSON requires a result
func (c *CheckResult) UnmarshalJSON(data []byte) error {
	type plain CheckResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Result == "" {
		return fmt.Errorf("check %d: %w", p.CheckNumber, errMissing("result"))
	}
	*c = CheckResult(p)
	return nil
}

// CheckOutcome is the result of an assessment check
type CheckOutcome string

const (
	CheckPass         CheckOutcome = "PASS"
	CheckFail         CheckOutcome = "FAIL"
	CheckInconclusive CheckOutcome = "INCONCLUSIVE"
)

// UnmarshalText rejects outcomes outside the closed enum
func (o *CheckOutcome) UnmarshalText(text []byte) error {
	switch v := CheckOutcome(text); v {
	case CheckPass, CheckFail, CheckInconclusive:
		*o = v
		return nil
	default:
		return fmt.Errorf("unknown check result %q", string(text))
	}
}

// AttentionItem is a derived notice that may require human review
type AttentionItem struct {
	ID          string        `json:"id"`
	Type        AttentionType `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Action      string        `json:"action"`
	DocID       string        `json:"doc_id,omitempty"`
	CheckNumber *int          `json:"check_number,omitempty"`
}

// AttentionType is the severity of an attention item
type AttentionType string

const (
	AttentionError   AttentionType = "error"
	AttentionWarning AttentionType = "warning"
	AttentionInfo    AttentionType = "info"
)

// ErrMissingField is returned when a required enum field is absent or null
var ErrMissingField = errors.New("missing required field")

func errMissing(field string) error {
	return fmt.Errorf("%w %q", ErrMissingField, field)
}
