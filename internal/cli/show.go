package cli

import (
	"fmt"

	"github.com/ppiankov/claimview/internal/dashboard"
	"github.com/ppiankov/claimview/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var showRefresh bool

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <claim-id>",
	Short: "Render the review dashboard of one claim",
	Long: `Show assembles one claim's dashboard:
- Status and headline (vehicle, plate, VIN, total amount)
- Items needing attention, errors first
- Extracted facts grouped by source document
- Assumptions ranked by impact
- Documents and assessment history

Sections that fail to load are reported inline; the rest still render.
--refresh drops cached backend responses for the claim before loading.

Example:
  claimview show CLM-1042
  claimview show CLM-1042 --format html > CLM-1042.html`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showRefresh, "refresh", false, "drop cached responses for the claim before loading")
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	if showRefresh && source.Refresh(a.src, "") {
		source.Refresh(a.src, args[0])
		a.log.Debug("dropped cached responses", zap.String("claim_id", args[0]))
	}

	v, err := a.builder.BuildByID(cmd.Context(), args[0])
	if err != nil {
		if dashboard.IsNotFound(err) {
			return fmt.Errorf("claim %s not found", args[0])
		}
		return fmt.Errorf("build dashboard: %w", err)
	}
	return a.renderer.View(v)
}
