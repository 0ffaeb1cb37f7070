package commands

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flourishbhp/truecopy/internal/config"
)

const keyBytes = 32

// NewGenerateCommand creates the generate subcommand, which prints a new archive password.
func NewGenerateCommand(cfg *config.Config) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:     "generate [flags]",
		Aliases: []string{"gen"},
		Short:   "Generate a new archive password",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg),
		RunE: func(_ *cobra.Command, _ []string) error {
			key := make([]byte, keyBytes)
			if _, err := rand.Read(key); err != nil {
				return fmt.Errorf("generating key: %w", err)
			}

			password := hex.EncodeToString(key)

			if !write {
				fmt.Println(password) //nolint:forbidigo

				return nil
			}

			f, err := os.OpenFile(cfg.KeyFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return fmt.Errorf("creating key file: %w", err)
			}

			if _, err := fmt.Fprintln(f, password); err != nil {
				f.Close()

				return fmt.Errorf("writing key file: %w", err)
			}

			return f.Close()
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the password to the key file instead of stdout, never overwriting")

	return cmd
}
