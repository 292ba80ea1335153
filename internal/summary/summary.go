package summary

import (
	"strconv"
	"strings"

	"github.com/ppiankov/claimview/internal/facts"
	"github.com/ppiankov/claimview/internal/format"
	"github.com/ppiankov/claimview/internal/model"
)

// Fact names the headline is built from
const (
	FactVehicleMake  = "vehicle_make"
	FactVehicleModel = "vehicle_model"
	FactLicensePlate = "license_plate"
	FactVIN          = "vin"
	FactTotalAmount  = "total_amount_incl_vat"
)

// Variant classifies a claim's overall status
type Variant string

const (
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantSuccess Variant = "success"
	VariantNeutral Variant = "neutral"
)

// Status is a claim's status classification and label
type Status struct {
	Variant Variant `json:"variant"`
	Label   string  `json:"label"`
}

// DeriveStatus classifies a claim from its gate counters; failures beat
// warnings beat passes
func DeriveStatus(c model.Claim) Status {
	switch {
	case c.GateFailCount > 0:
		return Status{Variant: VariantError, Label: "Needs Review"}
	case c.GateWarnCount > 0:
		return Status{Variant: VariantWarning, Label: "Warnings"}
	case c.GatePassCount > 0:
		return Status{Variant: VariantSuccess, Label: "Valid"}
	default:
		return Status{Variant: VariantNeutral, Label: "Pending"}
	}
}

// Headline is the identity block shown at the top of a claim
type Headline struct {
	Title         string  `json:"title"`
	Make          string  `json:"make,omitempty"`
	Model         string  `json:"model,omitempty"`
	Plate         string  `json:"plate,omitempty"`
	VIN           string  `json:"vin,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	HasAmount     bool    `json:"has_amount"`
	AmountDisplay string  `json:"amount_display"`
}

// DeriveHeadline extracts identity fields and the total from a claim's facts.
// The fact amount wins over claim.Amount; unparsable amounts fall back to it.
func DeriveHeadline(c model.Claim, idx *facts.Index, defaultCurrency string) Headline {
	h := Headline{
		Make:  idx.Display(FactVehicleMake),
		Model: idx.Display(FactVehicleModel),
		Plate: idx.Display(FactLicensePlate),
		VIN:   idx.Display(FactVIN),
	}

	h.Title = joinNonEmpty(h.Make, h.Model)
	if h.Title == "" {
		h.Title = c.ClaimID
	}

	if amount, ok := ParseAmount(idx.Display(FactTotalAmount)); ok {
		h.Amount, h.HasAmount = amount, true
	} else if c.Amount != nil {
		h.Amount, h.HasAmount = *c.Amount, true
	}

	currency := c.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	h.AmountDisplay = format.Placeholder
	if h.HasAmount {
		h.AmountDisplay = format.FormatCurrency(h.Amount, currency)
	}

	return h
}

// ParseAmount keeps only digits, '.' and '-' and parses the rest:
// "CHF 1'250.00" -> 1250
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
