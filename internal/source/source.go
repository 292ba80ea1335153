package source

import (
	"context"
	"errors"

	"github.com/ppiankov/claimview/internal/model"
)

// ErrNotFound is returned when a claim or snapshot does not exist
var ErrNotFound = errors.New("not found")

// Source supplies claim snapshots from the backend
type Source interface {
	ListClaims(ctx context.Context) ([]model.Claim, error)
	ListDocuments(ctx context.Context, claimID string) ([]model.Document, error)
	GetFacts(ctx context.Context, claimID string) (model.ClaimFacts, error)
	GetAssumptions(ctx context.Context, claimID string) ([]model.Assumption, error)
	GetChecks(ctx context.Context, claimID string) ([]model.CheckResult, error)
	GetHistory(ctx context.Context, claimID string) ([]model.HistoryEntry, error)
}

// Kind names a snapshot type; it doubles as the per-claim file and URL path name
type Kind string

const (
	KindClaims      Kind = "claims"
	KindDocuments   Kind = "documents"
	KindFacts       Kind = "facts"
	KindAssumptions Kind = "assumptions"
	KindChecks      Kind = "checks"
	KindHistory     Kind = "history"
)

func knownKind(k Kind) bool {
	switch k {
	case KindClaims, KindDocuments, KindFacts, KindAssumptions, KindChecks, KindHistory:
		return true
	default:
		return false
	}
}
