package navtree

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/claimview/internal/logging"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/summary"
	"go.uber.org/zap"
)

// DefaultWorkers bounds concurrent document fetches
const DefaultWorkers = 4

// DocumentFetcher loads the documents of one claim
type DocumentFetcher interface {
	ListDocuments(ctx context.Context, claimID string) ([]model.Document, error)
}

// Callbacks are notified after selection changes and view requests. All are
// optional and none of their results are consumed.
type Callbacks struct {
	OnSelectClaim    func(claimID string)
	OnSelectDocument func(claimID, docID string)
	OnViewSource     func(docID string, page, charStart, charEnd *int)
	OnViewRun        func(runID string)
}

// Options configures a Tree
type Options struct {
	Workers   int
	Logger    *zap.Logger
	Callbacks Callbacks
}

type docSlot struct {
	state slotState
	docs  []model.Document
	err   error
	gen   uint64 // Identifies the fetch that owns a loading slot
}

// Tree holds expand and selection state over claims and their lazily
// loaded documents. Fetch completions arrive on worker goroutines, so every
// method is safe for concurrent use.
//
// A document list survives collapse: a fetch that completes after its claim
// was collapsed is still applied, and re-expanding shows it without a refetch.
// Failed lists are refetched on the next expand.
type Tree struct {
	mu            sync.Mutex
	claims        []model.Claim
	byID          map[string]int
	expanded      map[string]struct{}
	slots         map[string]*docSlot
	selectedClaim string
	selectedDoc   string
	gen           uint64

	fetcher DocumentFetcher
	sem     chan struct{}
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
	cb      Callbacks
}

// New creates a tree with every claim collapsed and nothing selected
func New(claims []model.Claim, fetcher DocumentFetcher, opts Options) *Tree {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tree{
		expanded: make(map[string]struct{}),
		slots:    make(map[string]*docSlot),
		fetcher:  fetcher,
		sem:      make(chan struct{}, workers),
		ctx:      ctx,
		cancel:   cancel,
		log:      logging.OrNop(opts.Logger).Named("navtree"),
		cb:       opts.Callbacks,
	}
	t.setClaimsLocked(claims)
	return t
}

// SetClaims replaces the claim list. State of claims that remain is kept;
// state of removed claims is dropped, including a selection pointing at them.
func (t *Tree) SetClaims(claims []model.Claim) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setClaimsLocked(claims)
	for id := range t.expanded {
		if _, ok := t.byID[id]; !ok {
			delete(t.expanded, id)
		}
	}
	for id := range t.slots {
		if _, ok := t.byID[id]; !ok {
			delete(t.slots, id)
		}
	}
	if _, ok := t.byID[t.selectedClaim]; !ok {
		t.selectedClaim, t.selectedDoc = "", ""
	}
}

func (t *Tree) setClaimsLocked(claims []model.Claim) {
	t.claims = make([]model.Claim, len(claims))
	copy(t.claims, claims)
	t.byID = make(map[string]int, len(claims))
	for i, c := range t.claims {
		t.byID[c.ClaimID] = i
	}
}

// ToggleExpand collapses an expanded claim or expands a collapsed one,
// fetching its documents when none are loaded. Selection is unchanged.
func (t *Tree) ToggleExpand(claimID string) error {
	t.mu.Lock()
	if _, ok := t.byID[claimID]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("toggle %q: %w", claimID, ErrUnknownClaim)
	}

	if _, open := t.expanded[claimID]; open {
		delete(t.expanded, claimID)
		t.mu.Unlock()
		return nil
	}

	gen, fetch := t.expandLocked(claimID)
	t.mu.Unlock()

	if fetch {
		t.startFetch(claimID, gen)
	}
	return nil
}

// SelectClaim selects a claim and makes sure it is expanded. Selecting a
// different claim clears the document selection.
func (t *Tree) SelectClaim(claimID string) error {
	t.mu.Lock()
	if _, ok := t.byID[claimID]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("select %q: %w", claimID, ErrUnknownClaim)
	}

	if t.selectedClaim != claimID {
		t.selectedDoc = ""
	}
	t.selectedClaim = claimID

	var gen uint64
	var fetch bool
	if _, open := t.expanded[claimID]; !open {
		gen, fetch = t.expandLocked(claimID)
	}
	t.mu.Unlock()

	if fetch {
		t.startFetch(claimID, gen)
	}
	if t.cb.OnSelectClaim != nil {
		t.cb.OnSelectClaim(claimID)
	}
	return nil
}

// SelectDocument selects a document and its owning claim. The expand set is
// not touched; when the claim's documents are loaded the document must be
// among them.
func (t *Tree) SelectDocument(claimID, docID string) error {
	t.mu.Lock()
	if _, ok := t.byID[claimID]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("select document %q: %w", docID, ErrUnknownClaim)
	}

	if slot := t.slots[claimID]; slot != nil && slot.state == slotLoaded && !containsDoc(slot.docs, docID) {
		t.mu.Unlock()
		return fmt.Errorf("select document %q of %q: %w", docID, claimID, ErrDocumentNotInClaim)
	}

	t.selectedClaim = claimID
	t.selectedDoc = docID
	t.mu.Unlock()

	if t.cb.OnSelectDocument != nil {
		t.cb.OnSelectDocument(claimID, docID)
	}
	return nil
}

// ViewSource hands a document location of a claim to OnViewSource. It fails
// like SelectDocument when the claim's loaded documents do not include the
// location's document. Selection is unchanged.
func (t *Tree) ViewSource(claimID string, ref model.SourceRef) error {
	t.mu.Lock()
	if _, ok := t.byID[claimID]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("view source in %q: %w", claimID, ErrUnknownClaim)
	}
	if ref.DocID == "" {
		t.mu.Unlock()
		return fmt.Errorf("view source in %q: %w", claimID, ErrNoSource)
	}
	if slot := t.slots[claimID]; slot != nil && slot.state == slotLoaded && !containsDoc(slot.docs, ref.DocID) {
		t.mu.Unlock()
		return fmt.Errorf("view source %q of %q: %w", ref.DocID, claimID, ErrDocumentNotInClaim)
	}
	t.mu.Unlock()

	if t.cb.OnViewSource != nil {
		t.cb.OnViewSource(ref.DocID, ref.Page, ref.CharStart, ref.CharEnd)
	}
	return nil
}

// ViewRun hands an assessment run of a claim to OnViewRun
func (t *Tree) ViewRun(claimID, runID string) error {
	t.mu.Lock()
	_, ok := t.byID[claimID]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("view run %q: %w", runID, ErrUnknownClaim)
	}
	if runID == "" {
		return fmt.Errorf("view run of %q: empty run id", claimID)
	}

	if t.cb.OnViewRun != nil {
		t.cb.OnViewRun(runID)
	}
	return nil
}

// SourceHandler returns the OnViewSource callback, nil when none is set
func (t *Tree) SourceHandler() func(docID string, page, charStart, charEnd *int) {
	return t.cb.OnViewSource
}

// expandLocked inserts the claim into the expand set and reports whether a
// fetch must be started. A loading slot is never refetched.
func (t *Tree) expandLocked(claimID string) (uint64, bool) {
	t.expanded[claimID] = struct{}{}

	slot := t.slots[claimID]
	if slot != nil && slot.state != slotFailed {
		return 0, false
	}

	t.gen++
	t.slots[claimID] = &docSlot{state: slotLoading, gen: t.gen}
	return t.gen, true
}

func (t *Tree) startFetch(claimID string, gen uint64) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		select {
		case <-t.ctx.Done():
			t.complete(claimID, gen, nil, t.ctx.Err())
			return
		case t.sem <- struct{}{}:
		}
		defer func() { <-t.sem }()

		t.log.Debug("fetching documents", zap.String("claim_id", claimID))
		docs, err := t.fetcher.ListDocuments(t.ctx, claimID)
		t.complete(claimID, gen, docs, err)
	}()
}

// complete attaches a fetch result to the slot that requested it
func (t *Tree) complete(claimID string, gen uint64, docs []model.Document, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := t.slots[claimID]
	if slot == nil || slot.gen != gen || slot.state != slotLoading {
		t.log.Debug("dropping stale document fetch", zap.String("claim_id", claimID))
		return
	}

	if err != nil {
		t.log.Warn("document fetch failed", zap.String("claim_id", claimID), zap.Error(err))
		slot.state = slotFailed
		slot.err = err
		return
	}

	slot.state = slotLoaded
	slot.docs = docs
	if slot.docs == nil {
		slot.docs = []model.Document{}
	}
}

// Wait blocks until every in-flight fetch has completed
func (t *Tree) Wait() {
	t.wg.Wait()
}

// Close cancels in-flight fetches and waits for them
func (t *Tree) Close() {
	t.cancel()
	t.wg.Wait()
}

// IsExpanded reports expand-set membership
func (t *Tree) IsExpanded(claimID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.expanded[claimID]
	return ok
}

// State returns a claim's node state
func (t *Tree) State(claimID string) NodeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked(claimID)
}

func (t *Tree) stateLocked(claimID string) NodeState {
	if _, open := t.expanded[claimID]; !open {
		return Collapsed
	}
	slot := t.slots[claimID]
	if slot == nil {
		return ExpandedLoading
	}
	switch slot.state {
	case slotLoaded:
		return ExpandedLoaded
	case slotFailed:
		return ExpandedFailed
	default:
		return ExpandedLoading
	}
}

// Selection returns the selected claim and document ids ("" when unset)
func (t *Tree) Selection() (claimID, docID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selectedClaim, t.selectedDoc
}

// Documents returns a claim's loaded documents. ok is false while the list
// is absent or loading; err is the fetch error of a failed list.
func (t *Tree) Documents(claimID string) (docs []model.Document, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := t.slots[claimID]
	if slot == nil {
		return nil, false, nil
	}
	switch slot.state {
	case slotLoaded:
		out := make([]model.Document, len(slot.docs))
		copy(out, slot.docs)
		return out, true, nil
	case slotFailed:
		return nil, false, slot.err
	default:
		return nil, false, nil
	}
}

// Node is a claim row in a tree snapshot
type Node struct {
	Claim     model.Claim    `json:"claim"`
	Status    summary.Status `json:"status"`
	State     string         `json:"state"`
	Expanded  bool           `json:"expanded"`
	Selected  bool           `json:"selected"`
	Documents []DocumentNode `json:"documents,omitempty"` // Set only for expanded, loaded claims
	Error     string         `json:"error,omitempty"`     // Inline fetch error
}

// DocumentNode is a document row under its claim
type DocumentNode struct {
	Document model.Document `json:"document"`
	Selected bool           `json:"selected"`
}

// Snapshot returns the visible tree in claim order
func (t *Tree) Snapshot() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes := make([]Node, 0, len(t.claims))
	for _, c := range t.claims {
		state := t.stateLocked(c.ClaimID)
		n := Node{
			Claim:    c,
			Status:   summary.DeriveStatus(c),
			State:    state.String(),
			Expanded: state != Collapsed,
			Selected: t.selectedClaim == c.ClaimID,
		}

		switch state {
		case ExpandedLoaded:
			slot := t.slots[c.ClaimID]
			n.Documents = make([]DocumentNode, 0, len(slot.docs))
			for _, d := range slot.docs {
				n.Documents = append(n.Documents, DocumentNode{
					Document: d,
					Selected: n.Selected && t.selectedDoc == d.DocID,
				})
			}
		case ExpandedFailed:
			n.Error = t.slots[c.ClaimID].err.Error()
		}

		nodes = append(nodes, n)
	}
	return nodes
}

func containsDoc(docs []model.Document, docID string) bool {
	for _, d := range docs {
		if d.DocID == docID {
			return true
		}
	}
	return false
}
