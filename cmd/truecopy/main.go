// Command truecopy stamps participant documents as true copies and archives them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/flourishbhp/truecopy/internal/commands"
	"github.com/flourishbhp/truecopy/internal/config"
)

// version is set at build time.
var version = "unknown - unofficial & generated by unknown" //nolint:gochecknoglobals

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := &config.Config{}

	root := commands.NewRootCommand(cfg, version)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, commands.ErrShown) {
			return
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		stop()
		os.Exit(1) //nolint:gocritic // stop is called above
	}
}
