package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/source"
	"github.com/ppiankov/claimview/internal/summary"
	"go.uber.org/zap/zaptest"
)

type fakeSource struct {
	claims      []model.Claim
	docs        []model.Document
	facts       model.ClaimFacts
	assumptions []model.Assumption
	checks      []model.CheckResult
	history     []model.HistoryEntry
	fail        map[source.Kind]error
}

func (f *fakeSource) err(k source.Kind) error { return f.fail[k] }

func (f *fakeSource) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return f.claims, f.err(source.KindClaims)
}

func (f *fakeSource) ListDocuments(ctx context.Context, claimID string) ([]model.Document, error) {
	if err := f.err(source.KindDocuments); err != nil {
		return nil, err
	}
	return f.docs, nil
}

func (f *fakeSource) GetFacts(ctx context.Context, claimID string) (model.ClaimFacts, error) {
	if err := f.err(source.KindFacts); err != nil {
		return model.ClaimFacts{}, err
	}
	return f.facts, nil
}

func (f *fakeSource) GetAssumptions(ctx context.Context, claimID string) ([]model.Assumption, error) {
	if err := f.err(source.KindAssumptions); err != nil {
		return nil, err
	}
	return f.assumptions, nil
}

func (f *fakeSource) GetChecks(ctx context.Context, claimID string) ([]model.CheckResult, error) {
	if err := f.err(source.KindChecks); err != nil {
		return nil, err
	}
	return f.checks, nil
}

func (f *fakeSource) GetHistory(ctx context.Context, claimID string) ([]model.HistoryEntry, error) {
	if err := f.err(source.KindHistory); err != nil {
		return nil, err
	}
	return f.history, nil
}

func scenarioSource() *fakeSource {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeSource{
		claims: []model.Claim{{ClaimID: "CLM-1", GateFailCount: 1, DocCount: 2}},
		docs: []model.Document{
			{DocID: "d1", Filename: "registration.pdf", QualityStatus: model.QualityPass},
			{DocID: "d2", Filename: "photo.jpg", QualityStatus: model.QualityWarn},
		},
		facts: model.ClaimFacts{
			Facts: []model.Fact{
				{
					Name:         "vin",
					Value:        model.TextValue("WVWZZZ1"),
					SelectedFrom: &model.SourceRef{DocID: "d1", DocType: "vehicle_registration"},
				},
				{Name: "total_amount_incl_vat", Value: model.TextValue("CHF 1'250.00")},
			},
			GeneratedAt: t0,
		},
		assumptions: []model.Assumption{
			{CheckNumber: 3, Field: "mileage", Impact: model.ImpactLow},
			{CheckNumber: 2, Field: "vat_rate", Impact: model.ImpactHigh},
		},
		checks: []model.CheckResult{
			{CheckNumber: 1, CheckName: "Policy active", Result: model.CheckFail},
		},
		history: []model.HistoryEntry{
			{RunID: "r1", Timestamp: t0, Decision: model.DecisionReject},
			{RunID: "r2", Timestamp: t0.Add(time.Hour), Decision: model.DecisionApprove, IsCurrent: true},
		},
	}
}

func TestBuild_Scenario(t *testing.T) {
	b := NewBuilder(scenarioSource(), Options{Workers: 2, Logger: zaptest.NewLogger(t)})

	v, err := b.BuildByID(context.Background(), "CLM-1")
	if err != nil {
		t.Fatalf("BuildByID: %v", err)
	}

	if len(v.Errors) != 0 {
		t.Errorf("unexpected section errors %v", v.Errors)
	}
	if v.Status != (summary.Status{Variant: summary.VariantError, Label: "Needs Review"}) {
		t.Errorf("unexpected status %+v", v.Status)
	}
	if v.Headline.VIN != "WVWZZZ1" || !v.Headline.HasAmount || v.Headline.Amount != 1250 {
		t.Errorf("unexpected headline %+v", v.Headline)
	}

	var labels []string
	for _, g := range v.FactGroups {
		labels = append(labels, g.Label)
	}
	if diff := cmp.Diff([]string{"Vehicle Information", "Unknown"}, labels); diff != "" {
		t.Errorf("group labels mismatch (-want +got):\n%s", diff)
	}
	if !v.Expanded.IsExpanded("vehicle_registration") {
		t.Error("expected first group expanded")
	}

	if v.Assumptions[0].Field != "vat_rate" || v.CriticalCount != 1 {
		t.Errorf("expected ranked assumptions, got %+v (critical=%d)", v.Assumptions, v.CriticalCount)
	}

	var ids []string
	for _, it := range v.Attention.Items {
		ids = append(ids, it.ID)
	}
	if diff := cmp.Diff([]string{"check-1-0", "gate-fail-summary", "assumption-2-vat_rate-1", "gate-d2"}, ids); diff != "" {
		t.Errorf("attention mismatch (-want +got):\n%s", diff)
	}

	if len(v.History) != 2 || v.History[0].RunID != "r2" || !v.History[0].IsCurrent {
		t.Errorf("expected newest run first, got %+v", v.History)
	}
}

func TestBuild_SectionFailureIsolated(t *testing.T) {
	src := scenarioSource()
	src.fail = map[source.Kind]error{
		source.KindFacts:  errors.New("facts backend down"),
		source.KindChecks: errors.New("checks backend down"),
	}

	v, err := NewBuilder(src, Options{}).Build(context.Background(), src.claims[0])
	if err != nil {
		t.Fatalf("section failures must not fail the build: %v", err)
	}

	if diff := cmp.Diff([]Section{SectionChecks, SectionFacts}, v.FailedSections()); diff != "" {
		t.Errorf("failed sections mismatch (-want +got):\n%s", diff)
	}
	if v.Err(SectionDocuments) != nil {
		t.Error("documents must still load")
	}
	if len(v.FactGroups) != 0 || v.Headline.Title != "CLM-1" {
		t.Errorf("expected empty facts with claim-id title, got %+v", v.Headline)
	}
	if len(v.Documents) != 2 || len(v.History) != 2 {
		t.Error("expected unaffected sections to render")
	}
	if v.Attention.Counts.Error != 1 || v.Attention.Items[0].ID != "gate-fail-summary" {
		t.Errorf("expected only the claim gate failure without checks, got %+v", v.Attention.Items)
	}
}

func TestBuild_MultipleCurrentRuns(t *testing.T) {
	src := scenarioSource()
	src.history[0].IsCurrent = true

	v, err := NewBuilder(src, Options{}).Build(context.Background(), src.claims[0])
	if err != nil {
		t.Fatal(err)
	}
	if v.Err(SectionHistory) == nil {
		t.Error("expected history error for two current runs")
	}
	if len(v.History) != 0 {
		t.Errorf("expected no rows, got %d", len(v.History))
	}
}

func TestBuildByID_UnknownClaim(t *testing.T) {
	_, err := NewBuilder(scenarioSource(), Options{}).BuildByID(context.Background(), "CLM-404")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := scenarioSource()
	if _, err := NewBuilder(src, Options{}).Build(ctx, src.claims[0]); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuild_EmptyClaim(t *testing.T) {
	src := &fakeSource{claims: []model.Claim{{ClaimID: "CLM-0"}}}

	v, err := NewBuilder(src, Options{}).Build(context.Background(), src.claims[0])
	if err != nil {
		t.Fatal(err)
	}
	if v.Documents == nil || v.FactGroups == nil || v.History == nil {
		t.Error("expected empty non-nil sections")
	}
	if v.Status.Label != "Pending" || v.Headline.AmountDisplay != "-" {
		t.Errorf("unexpected empty claim view %+v %+v", v.Status, v.Headline)
	}
}
