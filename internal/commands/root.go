package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/archive"
	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/document"
)

// NewRootCommand creates the root command with common configuration.
// Every flag can also be set through a TRUECOPY_* environment variable or the --config file.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "truecopy [flags] command [flags]",
		Short: "Certify and archive participant documents",
		Long: `Stamps uploaded participant documents as true copies and replaces them
with password-protected archives, keeping the upload records in step.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()

	flags.StringP("config", "c", "", "Path to a configuration file (yaml, toml or json)")
	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.Bool("stats", false, "Print statistics at the end of the run")
	flags.Bool("dry", false, "Show what would be done without changing anything")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	flags.String("media-root", "media", "Root directory that record file names are relative to")
	flags.String("database", "media/truecopy.db", "SQLite database holding the records")
	flags.StringP("key-file", "f", archive.DefaultKeyFile, "File holding the archive password")

	flags.String("stamp.path", "media/stamp/true-copy.png", "Stamp image (PNG with alpha)")
	flags.String("stamp.size", "500x500", "Stamp size as WxH, 0x0 keeps the image size")
	flags.String("stamp.position", "25,25", "Stamp position on square documents as X,Y")
	flags.Float64("pdf.dpi", document.DefaultDPI, "Resolution PDF pages are rendered at")
	flags.Int("archive.level", archive.DefaultLevel, "Deflate level of archive entries (0-9)")
	flags.String("archive.method", string(archive.AES256), "Archive encryption: aes256 or standard")

	root.AddCommand(
		NewRegisterCommand(cfg),
		NewListCommand(cfg),
		NewCheckCommand(cfg),
		NewStampCommand(cfg),
		NewEncryptCommand(cfg),
		NewFinalizeCommand(cfg),
		NewDecryptCommand(cfg),
		NewConsentCommand(cfg),
		NewAppointmentCommand(cfg),
		NewActionCommand(cfg),
		NewGenerateCommand(cfg),
	)

	return root
}
