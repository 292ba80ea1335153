package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimview/internal/model"
)

// DirSource reads snapshots from a fixture directory:
//
//	<root>/claims.json
//	<root>/<claim_id>/{documents,facts,assumptions,checks,history}.json
//
// A missing per-claim file is an empty snapshot.
type DirSource struct {
	root string
}

// NewDirSource creates a directory-backed source
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// ListClaims reads claims.json
func (s *DirSource) ListClaims(ctx context.Context) ([]model.Claim, error) {
	var claims []model.Claim
	path := filepath.Join(s.root, string(KindClaims)+".json")
	if err := readJSON(ctx, path, &claims); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// ListDocuments reads a claim's documents.json
func (s *DirSource) ListDocuments(ctx context.Context, claimID string) ([]model.Document, error) {
	docs := []model.Document{}
	if err := s.readClaimFile(ctx, claimID, KindDocuments, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetFacts reads a claim's facts.json
func (s *DirSource) GetFacts(ctx context.Context, claimID string) (model.ClaimFacts, error) {
	var facts model.ClaimFacts
	if err := s.readClaimFile(ctx, claimID, KindFacts, &facts); err != nil {
		return model.ClaimFacts{}, err
	}
	if facts.Facts == nil {
		facts.Facts = []model.Fact{}
	}
	return facts, nil
}

// GetAssumptions reads a claim's assumptions.json
func (s *DirSource) GetAssumptions(ctx context.Context, claimID string) ([]model.Assumption, error) {
	items := []model.Assumption{}
	if err := s.readClaimFile(ctx, claimID, KindAssumptions, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetChecks reads a claim's checks.json
func (s *DirSource) GetChecks(ctx context.Context, claimID string) ([]model.CheckResult, error) {
	items := []model.CheckResult{}
	if err := s.readClaimFile(ctx, claimID, KindChecks, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetHistory reads a claim's history.json
func (s *DirSource) GetHistory(ctx context.Context, claimID string) ([]model.HistoryEntry, error) {
	items := []model.HistoryEntry{}
	if err := s.readClaimFile(ctx, claimID, KindHistory, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *DirSource) readClaimFile(ctx context.Context, claimID string, kind Kind, v any) error {
	if err := validClaimID(claimID); err != nil {
		return err
	}

	claimDir := filepath.Join(s.root, claimID)
	if _, err := os.Stat(claimDir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("claim %q: %w", claimID, ErrNotFound)
	}

	err := readJSON(ctx, filepath.Join(claimDir, string(kind)+".json"), v)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s of %q: %w", kind, claimID, err)
	}
	return nil
}

func readJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// validClaimID keeps claim ids from escaping the fixture root
func validClaimID(claimID string) error {
	if claimID == "" || claimID == "." || claimID == ".." || strings.ContainsAny(claimID, `/\`) {
		return fmt.Errorf("invalid claim id %q", claimID)
	}
	return nil
}
