package logic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"text/tabwriter"
	"time"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/filter"
	"github.com/flourishbhp/truecopy/internal/record"
)

// RunRegister creates upload records for media files of a subject.
func RunRegister(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	if cfg.Subject == "" {
		return errors.New("registering uploads requires --subject")
	}

	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	includes, err := filter.Merge(cfg.Include, cfg.IncludeFrom)
	if err != nil {
		return fmt.Errorf("loading include patterns: %w", err)
	}

	excludes, err := filter.Merge(cfg.Exclude, cfg.ExcludeFrom)
	if err != nil {
		return fmt.Errorf("loading exclude patterns: %w", err)
	}

	flt, err := filter.New(includes, excludes)
	if err != nil {
		return err
	}

	files, scanned, err := flt.Resolve(cfg.Args, env.storage)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	var (
		registered int
		totalSize  int64
	)

	for _, file := range files {
		uploadTo := cfg.UploadTo
		if uploadTo == "" {
			uploadTo = path.Dir(file.Name) + "/"
		}

		if info, err := os.Stat(file.Path); err == nil {
			totalSize += info.Size()
		}

		if cfg.Dry {
			registered++

			if !cfg.Quiet {
				fmt.Printf("Registered %q\n", file.Name) //nolint:forbidigo
			}

			continue
		}

		upload, err := env.store.CreateUpload(ctx, record.Upload{
			SubjectIdentifier: cfg.Subject,
			Name:              file.Name,
			UploadTo:          uploadTo,
		})
		if err != nil {
			return fmt.Errorf("registering %q: %w", file.Name, err)
		}

		registered++

		if !cfg.Quiet {
			fmt.Printf("Registered %q as upload %d\n", upload.Name, upload.ID) //nolint:forbidigo
		}
	}

	if cfg.Stats {
		printStats(scanned, scanned-len(files), registered, 0, totalSize, time.Since(start))
	}

	return nil
}

// RunList prints the upload records of a subject, or all of them.
func RunList(ctx context.Context, cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	uploads, err := env.store.ListUploads(ctx, cfg.Subject)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd

	fmt.Fprintln(w, "ID\tSUBJECT\tSTATE\tNAME")

	for _, upload := range uploads {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", upload.ID, upload.SubjectIdentifier, state(upload), upload.Name)
	}

	return w.Flush()
}

func state(upload record.Upload) string {
	switch {
	case !upload.HasFile():
		return "empty"
	case upload.Encrypted():
		return "encrypted"
	default:
		return "plain"
	}
}
