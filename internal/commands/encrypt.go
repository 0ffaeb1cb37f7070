package commands

import (
	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/logic"
)

// selectionFlags adds the record selection flags shared by the pipeline commands.
func selectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("subject", "", "Select every record of this subject identifier")
	cmd.Flags().BoolP("all", "a", false, "Select every record")
}

func newPipelineCommand(cfg *config.Config, op logic.Operation, short string, aliases ...string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     op.String() + " [flags] [record IDs...]",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logic.Run(cmd.Context(), cfg, op)
		},
	}

	selectionFlags(cmd)

	return cmd
}

// NewStampCommand creates the stamp subcommand.
func NewStampCommand(cfg *config.Config) *cobra.Command {
	return newPipelineCommand(cfg, logic.Stamp, "Stamp record documents as true copies in place")
}

// NewEncryptCommand creates the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	return newPipelineCommand(cfg, logic.Encrypt, "Replace record documents with encrypted archives", "enc")
}

// NewFinalizeCommand creates the finalize subcommand.
func NewFinalizeCommand(cfg *config.Config) *cobra.Command {
	return newPipelineCommand(cfg, logic.Finalize, "Stamp, then encrypt record documents", "fin")
}
