// Package dashboard assembles everything shown for one claim from the
// backend snapshots.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/claimview/internal/assess"
	"github.com/ppiankov/claimview/internal/facts"
	"github.com/ppiankov/claimview/internal/format"
	"github.com/ppiankov/claimview/internal/history"
	"github.com/ppiankov/claimview/internal/logging"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/source"
	"github.com/ppiankov/claimview/internal/summary"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Section names one independently loaded part of a view
type Section string

const (
	SectionDocuments   Section = "documents"
	SectionFacts       Section = "facts"
	SectionAssumptions Section = "assumptions"
	SectionChecks      Section = "checks"
	SectionHistory     Section = "history"
)

// Options configures a Builder
type Options struct {
	MaxAttentionItems int    // <= 0 uses assess.DefaultMaxItems
	ExpandedGroups    int    // <= 0 uses facts.DefaultExpandedGroups
	Currency          string // Used when a claim carries none
	Workers           int    // Concurrent snapshot fetches, <= 0 fetches all at once
	Logger            *zap.Logger
}

// View is the derived dashboard of one claim. A section that failed to load
// is empty and its error is kept in Errors; the other sections still render.
type View struct {
	Claim         model.Claim          `json:"claim"`
	Status        summary.Status       `json:"status"`
	Headline      summary.Headline     `json:"headline"`
	Documents     []model.Document     `json:"documents"`
	FactGroups    []facts.Group        `json:"fact_groups"`
	Expanded      *facts.ExpandState   `json:"-"`
	FactsAt       time.Time            `json:"facts_generated_at,omitempty"`
	Assumptions   []model.Assumption   `json:"assumptions"` // Ranked by impact
	CriticalCount int                  `json:"critical_count"`
	Attention     assess.AttentionList `json:"attention"`
	History       []history.Row        `json:"history"`
	Errors        map[Section]error    `json:"-"`
}

// Err returns the load error of a section, nil when it loaded
func (v *View) Err(s Section) error {
	return v.Errors[s]
}

// FailedSections lists sections that did not load, in name order
func (v *View) FailedSections() []Section {
	out := make([]Section, 0, len(v.Errors))
	for s := range v.Errors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Builder derives claim views from a source
type Builder struct {
	src  source.Source
	opts Options
	log  *zap.Logger
}

// NewBuilder creates a view builder over src
func NewBuilder(src source.Source, opts Options) *Builder {
	return &Builder{
		src:  src,
		opts: opts,
		log:  logging.OrNop(opts.Logger).Named("dashboard"),
	}
}

// FindClaim looks a claim up in the source's claim list
func (b *Builder) FindClaim(ctx context.Context, claimID string) (model.Claim, error) {
	claims, err := b.src.ListClaims(ctx)
	if err != nil {
		return model.Claim{}, err
	}
	for _, c := range claims {
		if c.ClaimID == claimID {
			return c, nil
		}
	}
	return model.Claim{}, fmt.Errorf("claim %q: %w", claimID, source.ErrNotFound)
}

// BuildByID finds a claim and builds its view
func (b *Builder) BuildByID(ctx context.Context, claimID string) (*View, error) {
	c, err := b.FindClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, c)
}

// Build fetches every section of a claim concurrently and derives the view.
// Only context cancellation fails the whole build.
func (b *Builder) Build(ctx context.Context, c model.Claim) (*View, error) {
	var (
		docs        []model.Document
		claimFacts  model.ClaimFacts
		assumptions []model.Assumption
		checks      []model.CheckResult
		runs        []model.HistoryEntry
		errs        = make(map[Section]error)
	)
	errCh := make(chan sectionErr, 5)

	g, gctx := errgroup.WithContext(ctx)
	if b.opts.Workers > 0 {
		g.SetLimit(b.opts.Workers)
	}

	load := func(s Section, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				errCh <- sectionErr{section: s, err: err}
			}
			return nil
		})
	}

	id := c.ClaimID
	load(SectionDocuments, func(ctx context.Context) (err error) {
		docs, err = b.src.ListDocuments(ctx, id)
		return err
	})
	load(SectionFacts, func(ctx context.Context) (err error) {
		claimFacts, err = b.src.GetFacts(ctx, id)
		return err
	})
	load(SectionAssumptions, func(ctx context.Context) (err error) {
		assumptions, err = b.src.GetAssumptions(ctx, id)
		return err
	})
	load(SectionChecks, func(ctx context.Context) (err error) {
		checks, err = b.src.GetChecks(ctx, id)
		return err
	})
	load(SectionHistory, func(ctx context.Context) (err error) {
		runs, err = b.src.GetHistory(ctx, id)
		return err
	})

	_ = g.Wait()
	close(errCh)
	for se := range errCh {
		errs[se.section] = se.err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := b.derive(c, docs, claimFacts, assumptions, checks, runs, errs)
	for _, s := range v.FailedSections() {
		b.log.Warn("section failed to load",
			zap.String("claim_id", id), zap.String("section", string(s)), zap.Error(v.Errors[s]))
	}
	return v, nil
}

type sectionErr struct {
	section Section
	err     error
}

func (b *Builder) derive(
	c model.Claim,
	docs []model.Document,
	claimFacts model.ClaimFacts,
	assumptions []model.Assumption,
	checks []model.CheckResult,
	runs []model.HistoryEntry,
	errs map[Section]error,
) *View {
	groups := facts.GroupFacts(claimFacts.Facts)

	v := &View{
		Claim:         c,
		Status:        summary.DeriveStatus(c),
		Headline:      summary.DeriveHeadline(c, facts.NewIndex(claimFacts.Facts), b.currency()),
		Documents:     nonNil(docs),
		FactGroups:    groups,
		Expanded:      facts.NewExpandState(groups, b.opts.ExpandedGroups),
		FactsAt:       claimFacts.GeneratedAt,
		Assumptions:   assess.RankAssumptions(assumptions),
		CriticalCount: assess.CriticalCount(assumptions),
		Attention: assess.DeriveAttention(assess.Signals{
			Claim:       c,
			Checks:      checks,
			Assumptions: assumptions,
			Documents:   docs,
		}, assess.Options{MaxItems: b.opts.MaxAttentionItems}),
		History: []history.Row{},
		Errors:  errs,
	}

	if errs[SectionHistory] == nil {
		rows, err := history.Build(runs)
		if err != nil {
			errs[SectionHistory] = err
		} else {
			v.History = rows
		}
	}

	return v
}

func (b *Builder) currency() string {
	if b.opts.Currency == "" {
		return format.DefaultCurrency
	}
	return b.opts.Currency
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// IsNotFound reports whether a view or section error means missing data
func IsNotFound(err error) bool {
	return errors.Is(err, source.ErrNotFound)
}
