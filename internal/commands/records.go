package commands

import (
	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/logic"
)

// NewRegisterCommand creates the register subcommand.
func NewRegisterCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register [flags] paths...",
		Short: "Create upload records for documents below the media root",
		Long: `Creates one upload record per file. Directories are walked and filtered
with find -path patterns matched against names relative to the media root.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logic.RunRegister(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("subject", "", "Subject identifier the documents belong to")
	cmd.Flags().String("upload-to", "", "Upload directory for archives, defaults to the document's directory")
	cmd.Flags().StringSliceP("include", "i", nil, "Include pattern (repeatable)")
	cmd.Flags().StringSliceP("exclude", "e", nil, "Exclude pattern (repeatable)")
	cmd.Flags().String("include-from", "", "JSONC file with include patterns")
	cmd.Flags().String("exclude-from", "", "JSONC file with exclude patterns")

	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// NewListCommand creates the list subcommand.
func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [flags]",
		Aliases: []string{"ls"},
		Short:   "List upload records",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logic.RunList(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("subject", "", "Only list records of this subject identifier")

	return cmd
}
