package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/claimview/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportDir     string
	exportIDsFile string
	exportWorkers int
	exportTimeout time.Duration
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [claim-id...]",
	Short: "Render claim dashboards to files in parallel",
	Long: `Export renders one dashboard file per claim:
- Claims come from the arguments, --ids-file (one id per line) or the source's claim list
- Dashboards are built concurrently with a configurable worker count
- The file extension follows --format (.txt, .md, .json, .html)

Example:
  claimview export --format html --output-dir ./review
  claimview export CLM-1 CLM-2 --format markdown
  claimview export --ids-file todo.txt --workers 8`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDir, "output-dir", "./claimview-export", "output directory for dashboards")
	exportCmd.Flags().StringVar(&exportIDsFile, "ids-file", "", "file with claim ids to export (one per line)")
	exportCmd.Flags().IntVar(&exportWorkers, "workers", 0, "number of concurrent workers (default: concurrency.export_workers)")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", 10*time.Minute, "total timeout for the export")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), exportTimeout)
	defer cancel()

	ids := args
	switch {
	case len(ids) > 0:
	case exportIDsFile != "":
		if ids, err = export.ReadClaimIDsFromFile(exportIDsFile); err != nil {
			return fmt.Errorf("read claim ids: %w", err)
		}
	default:
		claims, err := a.src.ListClaims(ctx)
		if err != nil {
			return err
		}
		for _, c := range claims {
			ids = append(ids, c.ClaimID)
		}
	}

	workers := exportWorkers
	if workers <= 0 {
		workers = a.cfg.Concurrency.ExportWorkers
	}

	exporter := export.NewExporter(a.builder, a.renderer.Format(), exportDir, workers, a.log)
	results, err := exporter.ExportClaims(ctx, ids)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.ClaimID, r.Error)
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", r.ClaimID, r.Path)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nExported %d of %d claims to %s\n", len(results)-failed, len(results), exportDir)
	if failed > 0 {
		return fmt.Errorf("%d of %d exports failed", failed, len(results))
	}
	return nil
}
