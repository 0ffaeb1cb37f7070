package commands

import (
	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "decrypt [flags] [record IDs...]",
		Aliases: []string{"dec"},
		Short:   "Extract archived documents for review",
		Long: `Extracts the archived documents of the selected records into the output
directory, one subdirectory per record. Records and archives are not changed.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logic.RunDecrypt(cmd.Context(), cfg, output)
		},
	}

	selectionFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "decrypted", "Directory to extract into")

	return cmd
}
