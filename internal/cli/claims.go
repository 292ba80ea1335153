package cli

import (
	"github.com/spf13/cobra"
)

// claimsCmd represents the claims command
var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "List claims with their status",
	Long: `List every claim from the configured source with its status label,
claimed amount, document count and quality gate counters.

Example:
  claimview claims --source-dir ./claims
  claimview claims --base-url https://claims.internal/api --format json`,
	Args: cobra.NoArgs,
	RunE: runClaims,
}

func init() {
	rootCmd.AddCommand(claimsCmd)
}

func runClaims(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	claims, err := a.src.ListClaims(cmd.Context())
	if err != nil {
		return err
	}
	return a.renderer.Claims(claims)
}
