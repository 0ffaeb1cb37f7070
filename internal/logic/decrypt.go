package logic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flourishbhp/truecopy/internal/archive"
	"github.com/flourishbhp/truecopy/internal/config"
)

// RunDecrypt extracts the archived documents of the selected records into dir,
// one subdirectory per record ID. Records and archives are left untouched.
func RunDecrypt(ctx context.Context, cfg *config.Config, dir string) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	uploads, err := selectUploads(ctx, env.store, cfg)
	if err != nil {
		return fmt.Errorf("selecting records: %w", err)
	}

	password, err := archive.ReadKey(cfg.KeyFile)
	if err != nil {
		return err
	}

	var errored int

	for _, upload := range uploads {
		if !upload.Encrypted() {
			continue
		}

		src, err := env.storage.Path(upload.Name)
		if err != nil {
			return err
		}

		target := filepath.Join(dir, fmt.Sprint(upload.ID))

		if cfg.Dry {
			if !cfg.Quiet {
				fmt.Printf("Processed %q -> %q\n", src, target) //nolint:forbidigo
			}

			continue
		}

		if err := os.MkdirAll(target, 0o700); err != nil {
			return fmt.Errorf("creating %q: %w", target, err)
		}

		out, err := archive.Extract(src, password, target)
		if err != nil {
			errored++

			fmt.Fprintf(os.Stderr, "Error processing upload %d %q: %v\n", upload.ID, src, err)

			continue
		}

		if !cfg.Quiet {
			fmt.Printf("Processed %q -> %q\n", src, out) //nolint:forbidigo
		}
	}

	if errored > 0 {
		return fmt.Errorf("decrypting: %d record(s) failed", errored)
	}

	return nil
}
