package commands

import (
	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/logic"
)

// NewCheckCommand creates a new cobra command for the check subcommand.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check [flags]",
		Short:   "Validate that record files exist and include patterns match records",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logic.RunCheck(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("subject", "", "Only check records of this subject identifier")
	cmd.Flags().StringSliceP("include", "i", nil, "Pattern that must match at least one record name")
	cmd.Flags().String("include-from", "", "JSONC file with include patterns")

	return cmd
}
