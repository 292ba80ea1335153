package navtree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ppiankov/claimview/internal/model"
	"go.uber.org/zap/zaptest"
)

// gatedFetcher blocks ListDocuments for claims with a gate until it is released
type gatedFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	gates map[string]chan struct{}
	docs  map[string][]model.Document
	errs  map[string]error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		calls: map[string]int{},
		gates: map[string]chan struct{}{},
		docs:  map[string][]model.Document{},
		errs:  map[string]error{},
	}
}

func (f *gatedFetcher) gate(claimID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[claimID] = make(chan struct{})
}

func (f *gatedFetcher) release(claimID string) {
	f.mu.Lock()
	ch := f.gates[claimID]
	delete(f.gates, claimID)
	f.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (f *gatedFetcher) setErr(claimID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[claimID] = err
}

func (f *gatedFetcher) callCount(claimID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[claimID]
}

func (f *gatedFetcher) ListDocuments(ctx context.Context, claimID string) ([]model.Document, error) {
	f.mu.Lock()
	f.calls[claimID]++
	ch := f.gates[claimID]
	f.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[claimID]; err != nil {
		return nil, err
	}
	return f.docs[claimID], nil
}

func testClaims() []model.Claim {
	return []model.Claim{
		{ClaimID: "c1", GateFailCount: 1},
		{ClaimID: "c2", GateWarnCount: 1},
		{ClaimID: "c3"},
	}
}

func newTestTree(t *testing.T, f *gatedFetcher, cb Callbacks) *Tree {
	t.Helper()
	f.docs["c1"] = []model.Document{{DocID: "d1", Filename: "fnol.pdf"}, {DocID: "d2", Filename: "photo.jpg"}}
	f.docs["c2"] = []model.Document{{DocID: "d3", Filename: "invoice.pdf"}}
	tree := New(testClaims(), f, Options{Workers: 2, Logger: zaptest.NewLogger(t), Callbacks: cb})
	t.Cleanup(tree.Close)
	return tree
}

func TestTree_InitialState(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	for _, c := range testClaims() {
		if tree.State(c.ClaimID) != Collapsed {
			t.Errorf("%s: expected collapsed, got %s", c.ClaimID, tree.State(c.ClaimID))
		}
	}
	claimID, docID := tree.Selection()
	if claimID != "" || docID != "" {
		t.Errorf("expected no selection, got %q/%q", claimID, docID)
	}
}

func TestTree_ToggleTwiceRestoresMembership(t *testing.T) {
	f := newGatedFetcher()
	tree := newTestTree(t, f, Callbacks{})

	if err := tree.ToggleExpand("c2"); err != nil {
		t.Fatal(err)
	}
	tree.Wait()

	if err := tree.ToggleExpand("c1"); err != nil {
		t.Fatal(err)
	}
	if !tree.IsExpanded("c1") {
		t.Fatal("expected c1 expanded")
	}
	if err := tree.ToggleExpand("c1"); err != nil {
		t.Fatal(err)
	}
	tree.Wait()

	if tree.IsExpanded("c1") {
		t.Error("expected c1 collapsed after second toggle")
	}
	if !tree.IsExpanded("c2") {
		t.Error("toggling c1 must not affect c2")
	}
	if tree.IsExpanded("c3") {
		t.Error("toggling c1 must not affect c3")
	}
}

func TestTree_ToggleLoadsDocuments(t *testing.T) {
	f := newGatedFetcher()
	f.gate("c1")
	tree := newTestTree(t, f, Callbacks{})

	_ = tree.ToggleExpand("c1")
	if tree.State("c1") != ExpandedLoading {
		t.Errorf("expected loading, got %s", tree.State("c1"))
	}

	f.release("c1")
	tree.Wait()

	if tree.State("c1") != ExpandedLoaded {
		t.Fatalf("expected loaded, got %s", tree.State("c1"))
	}
	docs, ok, err := tree.Documents("c1")
	if !ok || err != nil || len(docs) != 2 {
		t.Errorf("expected 2 documents, got %v ok=%v err=%v", docs, ok, err)
	}
}

func TestTree_NoDuplicateFetchWhileLoading(t *testing.T) {
	f := newGatedFetcher()
	f.gate("c1")
	tree := newTestTree(t, f, Callbacks{})

	_ = tree.ToggleExpand("c1") // expand, fetch starts
	_ = tree.ToggleExpand("c1") // collapse while loading
	_ = tree.ToggleExpand("c1") // expand again, still loading
	_ = tree.SelectClaim("c1")

	f.release("c1")
	tree.Wait()

	if n := f.callCount("c1"); n != 1 {
		t.Errorf("expected exactly one fetch, got %d", n)
	}
	if tree.State("c1") != ExpandedLoaded {
		t.Errorf("expected loaded, got %s", tree.State("c1"))
	}
}

func TestTree_CollapseDuringFetchKeepsResult(t *testing.T) {
	f := newGatedFetcher()
	f.gate("c1")
	tree := newTestTree(t, f, Callbacks{})

	_ = tree.ToggleExpand("c1")
	_ = tree.ToggleExpand("c1")
	f.release("c1")
	tree.Wait()

	if tree.State("c1") != Collapsed {
		t.Fatalf("expected collapsed, got %s", tree.State("c1"))
	}

	_ = tree.ToggleExpand("c1")
	if tree.State("c1") != ExpandedLoaded {
		t.Errorf("expected loaded without refetch, got %s", tree.State("c1"))
	}
	if n := f.callCount("c1"); n != 1 {
		t.Errorf("expected one fetch, got %d", n)
	}
}

func TestTree_SelectClaimExpands(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	if err := tree.SelectClaim("c2"); err != nil {
		t.Fatal(err)
	}
	if !tree.IsExpanded("c2") {
		t.Error("selecting a collapsed claim must expand it")
	}
	tree.Wait()

	// Selecting an expanded claim keeps it expanded
	if err := tree.SelectClaim("c2"); err != nil {
		t.Fatal(err)
	}
	if !tree.IsExpanded("c2") {
		t.Error("selecting must never collapse")
	}
	if claimID, _ := tree.Selection(); claimID != "c2" {
		t.Errorf("expected c2 selected, got %q", claimID)
	}
}

func TestTree_ToggleKeepsSelection(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	_ = tree.SelectClaim("c1")
	tree.Wait()
	_ = tree.SelectDocument("c1", "d2")

	_ = tree.ToggleExpand("c1")
	_ = tree.ToggleExpand("c3")
	tree.Wait()

	claimID, docID := tree.Selection()
	if claimID != "c1" || docID != "d2" {
		t.Errorf("toggle changed selection to %q/%q", claimID, docID)
	}
}

func TestTree_SelectDocument(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	// Not expanded: allowed, expand set unchanged
	if err := tree.SelectDocument("c2", "d3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.IsExpanded("c2") {
		t.Error("selecting a document must not expand its claim")
	}
	claimID, docID := tree.Selection()
	if claimID != "c2" || docID != "d3" {
		t.Errorf("unexpected selection %q/%q", claimID, docID)
	}

	_ = tree.ToggleExpand("c1")
	tree.Wait()

	err := tree.SelectDocument("c1", "d3")
	if !errors.Is(err, ErrDocumentNotInClaim) {
		t.Errorf("expected ErrDocumentNotInClaim, got %v", err)
	}
	if claimID, docID := tree.Selection(); claimID != "c2" || docID != "d3" {
		t.Errorf("failed selection must leave state unchanged, got %q/%q", claimID, docID)
	}

	if err := tree.SelectDocument("nope", "d1"); !errors.Is(err, ErrUnknownClaim) {
		t.Errorf("expected ErrUnknownClaim, got %v", err)
	}
}

func TestTree_SelectOtherClaimClearsDocument(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	_ = tree.SelectClaim("c1")
	tree.Wait()
	_ = tree.SelectDocument("c1", "d1")

	_ = tree.SelectClaim("c1")
	if _, docID := tree.Selection(); docID != "d1" {
		t.Errorf("reselecting same claim must keep document, got %q", docID)
	}

	_ = tree.SelectClaim("c2")
	if claimID, docID := tree.Selection(); claimID != "c2" || docID != "" {
		t.Errorf("expected c2 with no document, got %q/%q", claimID, docID)
	}
	tree.Wait()
}

func TestTree_FailureIsLocal(t *testing.T) {
	f := newGatedFetcher()
	f.setErr("c1", errors.New("backend unavailable"))
	tree := newTestTree(t, f, Callbacks{})

	_ = tree.ToggleExpand("c1")
	_ = tree.ToggleExpand("c2")
	tree.Wait()

	if tree.State("c1") != ExpandedFailed {
		t.Errorf("expected c1 failed, got %s", tree.State("c1"))
	}
	if tree.State("c2") != ExpandedLoaded {
		t.Errorf("expected c2 loaded, got %s", tree.State("c2"))
	}

	nodes := tree.Snapshot()
	if nodes[0].Error != "backend unavailable" {
		t.Errorf("expected inline error, got %q", nodes[0].Error)
	}
	if len(nodes[1].Documents) != 1 {
		t.Errorf("expected c2 documents in snapshot, got %d", len(nodes[1].Documents))
	}

	// Re-expanding a failed claim fetches again
	f.setErr("c1", nil)
	_ = tree.ToggleExpand("c1")
	_ = tree.ToggleExpand("c1")
	tree.Wait()
	if tree.State("c1") != ExpandedLoaded {
		t.Errorf("expected c1 loaded after refetch, got %s", tree.State("c1"))
	}
	if n := f.callCount("c1"); n != 2 {
		t.Errorf("expected 2 fetches for c1, got %d", n)
	}
}

func TestTree_OutOfOrderCompletion(t *testing.T) {
	f := newGatedFetcher()
	f.gate("c1")
	f.gate("c2")
	tree := newTestTree(t, f, Callbacks{})

	_ = tree.ToggleExpand("c1")
	_ = tree.ToggleExpand("c2")
	f.release("c2")
	f.release("c1")
	tree.Wait()

	d1, _, _ := tree.Documents("c1")
	d2, _, _ := tree.Documents("c2")
	if len(d1) != 2 || d1[0].DocID != "d1" {
		t.Errorf("c1 got wrong documents: %v", d1)
	}
	if len(d2) != 1 || d2[0].DocID != "d3" {
		t.Errorf("c2 got wrong documents: %v", d2)
	}
}

func TestTree_UnknownClaim(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	if err := tree.ToggleExpand("zz"); !errors.Is(err, ErrUnknownClaim) {
		t.Errorf("expected ErrUnknownClaim, got %v", err)
	}
	if err := tree.SelectClaim("zz"); !errors.Is(err, ErrUnknownClaim) {
		t.Errorf("expected ErrUnknownClaim, got %v", err)
	}
}

func TestTree_Callbacks(t *testing.T) {
	var claims, docs []string
	tree := newTestTree(t, newGatedFetcher(), Callbacks{
		OnSelectClaim:    func(id string) { claims = append(claims, id) },
		OnSelectDocument: func(c, d string) { docs = append(docs, c+"/"+d) },
	})

	_ = tree.SelectClaim("c1")
	tree.Wait()
	_ = tree.SelectDocument("c1", "d2")
	_ = tree.SelectDocument("c1", "missing")

	if len(claims) != 1 || claims[0] != "c1" {
		t.Errorf("unexpected claim callbacks %v", claims)
	}
	if len(docs) != 1 || docs[0] != "c1/d2" {
		t.Errorf("unexpected document callbacks %v", docs)
	}
}

func TestTree_ViewCallbacks(t *testing.T) {
	type location struct {
		docID            string
		page, start, end *int
	}
	var sources []location
	var runs []string
	tree := newTestTree(t, newGatedFetcher(), Callbacks{
		OnViewSource: func(docID string, page, start, end *int) {
			sources = append(sources, location{docID, page, start, end})
		},
		OnViewRun: func(runID string) { runs = append(runs, runID) },
	})
	if tree.SourceHandler() == nil {
		t.Fatal("expected source handler")
	}

	page, start, end := 2, 10, 24
	if err := tree.ViewSource("c1", model.SourceRef{DocID: "d9", Page: &page}); err != nil {
		t.Errorf("unloaded claims accept any document, got %v", err)
	}

	_ = tree.ToggleExpand("c1")
	tree.Wait()
	if err := tree.ViewSource("c1", model.SourceRef{DocID: "d2", Page: &page, CharStart: &start, CharEnd: &end}); err != nil {
		t.Fatal(err)
	}
	if err := tree.ViewSource("c1", model.SourceRef{DocID: "d9"}); !errors.Is(err, ErrDocumentNotInClaim) {
		t.Errorf("expected ErrDocumentNotInClaim, got %v", err)
	}
	if err := tree.ViewSource("c1", model.SourceRef{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
	if err := tree.ViewSource("zz", model.SourceRef{DocID: "d1"}); !errors.Is(err, ErrUnknownClaim) {
		t.Errorf("expected ErrUnknownClaim, got %v", err)
	}

	if len(sources) != 2 || sources[1].docID != "d2" || *sources[1].page != 2 || *sources[1].start != 10 || *sources[1].end != 24 {
		t.Errorf("unexpected source callbacks %+v", sources)
	}
	if claimID, docID := tree.Selection(); claimID != "" || docID != "" {
		t.Errorf("viewing a source must not select, got %q/%q", claimID, docID)
	}

	if err := tree.ViewRun("c2", "r7"); err != nil {
		t.Fatal(err)
	}
	if err := tree.ViewRun("zz", "r7"); !errors.Is(err, ErrUnknownClaim) {
		t.Errorf("expected ErrUnknownClaim, got %v", err)
	}
	if err := tree.ViewRun("c2", ""); err == nil {
		t.Error("expected error for empty run id")
	}
	if len(runs) != 1 || runs[0] != "r7" {
		t.Errorf("unexpected run callbacks %v", runs)
	}
}

func TestTree_ViewWithoutCallbacks(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})
	if tree.SourceHandler() != nil {
		t.Error("expected no source handler")
	}
	if err := tree.ViewSource("c1", model.SourceRef{DocID: "d1"}); err != nil {
		t.Errorf("missing callbacks are not an error, got %v", err)
	}
	if err := tree.ViewRun("c1", "r1"); err != nil {
		t.Errorf("missing callbacks are not an error, got %v", err)
	}
}

func TestTree_Snapshot(t *testing.T) {
	tree := newTestTree(t, newGatedFetcher(), Callbacks{})

	_ = tree.SelectClaim("c1")
	tree.Wait()
	_ = tree.SelectDocument("c1", "d2")

	nodes := tree.Snapshot()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[0].Status.Label != "Needs Review" || nodes[1].Status.Label != "Warnings" || nodes[2].Status.Label != "Pending" {
		t.Errorf("unexpected status labels %+v", nodes)
	}
	if !nodes[0].Selected || !nodes[0].Expanded || nodes[0].State != "expanded-loaded" {
		t.Errorf("unexpected c1 node %+v", nodes[0])
	}
	if nodes[0].Documents[0].Selected || !nodes[0].Documents[1].Selected {
		t.Errorf("expected only d2 selected, got %+v", nodes[0].Documents)
	}
	if nodes[1].Documents != nil {
		t.Error("collapsed claims must not list documents")
	}
}

func TestTree_SetClaimsDropsRemoved(t *testing.T) {
	f := newGatedFetcher()
	f.gate("c2")
	tree := newTestTree(t, f, Callbacks{})

	_ = tree.SelectClaim("c1")
	_ = tree.ToggleExpand("c2")

	tree.SetClaims([]model.Claim{{ClaimID: "c2"}, {ClaimID: "c4"}})
	if claimID, _ := tree.Selection(); claimID != "" {
		t.Errorf("selection of removed claim must be cleared, got %q", claimID)
	}
	if tree.IsExpanded("c1") {
		t.Error("removed claim must leave the expand set")
	}
	if !tree.IsExpanded("c2") {
		t.Error("kept claim must keep its expand state")
	}

	f.release("c2")
	tree.Wait()
	if tree.State("c2") != ExpandedLoaded {
		t.Errorf("expected c2 loaded, got %s", tree.State("c2"))
	}
	if len(tree.Snapshot()) != 2 {
		t.Errorf("expected 2 nodes")
	}
}
