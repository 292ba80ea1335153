package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/claimview/internal/assess"
	"github.com/ppiankov/claimview/internal/dashboard"
	"github.com/ppiankov/claimview/internal/facts"
	"github.com/ppiankov/claimview/internal/model"
	"github.com/ppiankov/claimview/internal/navtree"
	"github.com/ppiankov/claimview/internal/render"
	"github.com/ppiankov/claimview/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Drive the claim navigation tree from stdin",
	Long: `Browse reads one intent per line from stdin and applies it to the claim
navigation tree. Document lists load in the background when a claim is
expanded.

Intents:
  expand <claim-id>             toggle a claim open or closed
  select <claim-id>             select a claim
  doc <claim-id> <doc-id>       select a document of a claim
  show <claim-id>               print the claim's dashboard
  source <claim-id> <fact>      open the document location a fact came from
  open <claim-id> <item-id>     open the document of an attention item
  run <claim-id> <run-id>       open an assessment run
  reload                        reload the claim list
  tree                          print the tree as it is now
  wait                          wait for pending document loads
  quit                          stop reading

Failed intents are reported with their line number and the command exits
with an error once input ends. The final tree is printed either way.

Example:
  printf 'expand CLM-1\nwait\ndoc CLM-1 d1\n' | claimview browse`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	claims, err := a.src.ListClaims(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tree := navtree.New(claims, a.src, navtree.Options{
		Workers: a.cfg.Concurrency.FetchWorkers,
		Logger:  a.log,
		Callbacks: navtree.Callbacks{
			OnSelectClaim: func(claimID string) {
				a.log.Info("claim selected", zap.String("claim_id", claimID))
			},
			OnSelectDocument: func(claimID, docID string) {
				a.log.Info("document selected", zap.String("claim_id", claimID), zap.String("doc_id", docID))
			},
			OnViewSource: func(docID string, page, charStart, charEnd *int) {
				fmt.Fprintf(out, "view source %s%s\n", docID, location(page, charStart, charEnd))
			},
			OnViewRun: func(runID string) {
				fmt.Fprintf(out, "view run %s\n", runID)
			},
		},
	})
	defer tree.Close()

	b := &browser{
		tree:     tree,
		src:      a.src,
		builder:  a.builder,
		renderer: a.renderer.WithSourceHandler(tree.SourceHandler()),
		errOut:   cmd.ErrOrStderr(),
	}
	intentErr := b.apply(cmd.Context(), cmd.InOrStdin())

	tree.Wait()
	if err := a.renderer.Tree(tree.Snapshot()); err != nil {
		return err
	}
	return intentErr
}

// browser applies intents to a tree; dashboards are built on demand
type browser struct {
	tree     *navtree.Tree
	src      source.Source
	builder  *dashboard.Builder
	renderer *render.Renderer
	errOut   io.Writer
}

// apply runs intents until quit or end of input. Failed intents are reported
// and skipped; the returned error counts them.
func (b *browser) apply(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	line, total, failed := 0, 0, 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}

		total++
		if err := b.intent(ctx, fields); err != nil {
			failed++
			fmt.Fprintf(b.errOut, "line %d: %v\n", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d intents failed", failed, total)
	}
	return nil
}

func (b *browser) intent(ctx context.Context, fields []string) error {
	switch verb, rest := fields[0], fields[1:]; {
	case verb == "tree" && len(rest) == 0:
		return b.renderer.Tree(b.tree.Snapshot())
	case verb == "wait" && len(rest) == 0:
		b.tree.Wait()
		return nil
	case verb == "reload" && len(rest) == 0:
		return b.reload(ctx)
	case verb == "expand" && len(rest) == 1:
		return b.tree.ToggleExpand(rest[0])
	case verb == "select" && len(rest) == 1:
		return b.tree.SelectClaim(rest[0])
	case verb == "doc" && len(rest) == 2:
		return b.tree.SelectDocument(rest[0], rest[1])
	case verb == "show" && len(rest) == 1:
		v, err := b.builder.BuildByID(ctx, rest[0])
		if err != nil {
			return err
		}
		return b.renderer.View(v)
	case verb == "source" && len(rest) == 2:
		return b.viewFactSource(ctx, rest[0], rest[1])
	case verb == "open" && len(rest) == 2:
		return b.openItem(ctx, rest[0], rest[1])
	case verb == "run" && len(rest) == 2:
		return b.viewRun(ctx, rest[0], rest[1])
	default:
		return fmt.Errorf("unknown intent %q", strings.Join(fields, " "))
	}
}

// reload refetches the claim list, bypassing the response cache
func (b *browser) reload(ctx context.Context) error {
	source.Refresh(b.src, "")
	claims, err := b.src.ListClaims(ctx)
	if err != nil {
		return err
	}
	b.tree.SetClaims(claims)
	return nil
}

func (b *browser) viewFactSource(ctx context.Context, claimID, name string) error {
	cf, err := b.src.GetFacts(ctx, claimID)
	if err != nil {
		return err
	}
	f, ok := facts.NewIndex(cf.Facts).Lookup(name)
	if !ok {
		return fmt.Errorf("claim %s has no fact %q", claimID, name)
	}
	if f.SelectedFrom == nil {
		return fmt.Errorf("fact %q: %w", name, navtree.ErrNoSource)
	}
	return b.tree.ViewSource(claimID, *f.SelectedFrom)
}

func (b *browser) openItem(ctx context.Context, claimID, itemID string) error {
	v, err := b.builder.BuildByID(ctx, claimID)
	if err != nil {
		return err
	}
	for _, it := range v.Attention.All() {
		if it.ID != itemID {
			continue
		}
		if !assess.Clickable(it, b.tree.SourceHandler()) {
			return fmt.Errorf("attention item %q: %w", itemID, navtree.ErrNoSource)
		}
		return b.tree.ViewSource(claimID, model.SourceRef{DocID: it.DocID})
	}
	return fmt.Errorf("claim %s has no attention item %q", claimID, itemID)
}

func (b *browser) viewRun(ctx context.Context, claimID, runID string) error {
	entries, err := b.src.GetHistory(ctx, claimID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.RunID == runID {
			return b.tree.ViewRun(claimID, runID)
		}
	}
	return fmt.Errorf("claim %s has no run %q", claimID, runID)
}

// location formats the optional page and character range of a source
func location(page, charStart, charEnd *int) string {
	var b strings.Builder
	if page != nil {
		fmt.Fprintf(&b, " page %d", *page)
	}
	if charStart != nil && charEnd != nil {
		fmt.Fprintf(&b, " chars %d-%d", *charStart, *charEnd)
	}
	return b.String()
}
