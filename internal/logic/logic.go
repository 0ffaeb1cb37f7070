// Package logic implements the commands of truecopy on top of the record store and the pipeline.
package logic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/flourishbhp/truecopy/internal/archive"
	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/record"
)

// ErrNoSelection is returned when no records were selected.
var ErrNoSelection = errors.New("no records selected: pass record IDs, --subject or --all")

// Run applies op to the selected records.
//
//nolint:cyclop,gocognit // parallel processing pipeline with printer goroutine
func Run(ctx context.Context, cfg *config.Config, op Operation) error {
	start := time.Now()

	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	uploads, err := selectUploads(ctx, env.store, cfg)
	if err != nil {
		return fmt.Errorf("selecting records: %w", err)
	}

	scanned := len(uploads)

	pending := make([]record.Upload, 0, len(uploads))

	for _, upload := range uploads {
		if upload.HasFile() && !upload.Encrypted() {
			pending = append(pending, upload)
		}
	}

	excluded := scanned - len(pending)

	if cfg.Dry {
		return dryRun(cfg, env, pending, op, scanned, excluded, start)
	}

	pipeline, err := env.pipeline()
	if err != nil {
		return err
	}

	results := make(chan Result, len(pending))

	group := errgroup.Group{}
	group.SetLimit(cfg.Parallel)

	printed := make(chan struct{})

	var processed, skipped, errored int

	var totalSize int64

	go func() {
		defer close(printed)

		for res := range results {
			switch {
			case res.Error != nil:
				errored++

				fmt.Fprintf(os.Stderr, "Error processing upload %d %q: %v\n", res.Upload.ID, res.Input, res.Error)
			case res.Skipped:
				skipped++

				if !cfg.Quiet {
					fmt.Printf("Skipped upload %d %q\n", res.Upload.ID, res.Upload.Name) //nolint:forbidigo
				}
			default:
				processed++

				totalSize += res.OutputSize

				if !cfg.Quiet {
					fmt.Printf("Processed %q -> %q\n", res.Input, res.Output) //nolint:forbidigo
				}

				if res.Output != res.Input && !cfg.Quiet {
					fmt.Printf("Deleted %q\n", res.Input) //nolint:forbidigo
				}
			}
		}
	}()

	for _, upload := range pending {
		group.Go(func() error {
			res := pipeline.Process(ctx, upload.ID, op)

			results <- res

			return res.Error
		})
	}

	err = group.Wait()

	close(results)

	<-printed

	if cfg.Stats {
		printStats(scanned, excluded+skipped, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running %s: %w", op, err)
	}

	return nil
}

// selectUploads returns the records named by ID, those of a subject, or all of them.
func selectUploads(ctx context.Context, store record.Store, cfg *config.Config) ([]record.Upload, error) {
	switch {
	case len(cfg.Args) > 0 && (cfg.Subject != "" || cfg.All):
		return nil, errors.New("record IDs cannot be combined with --subject or --all")
	case len(cfg.Args) > 0:
		uploads := make([]record.Upload, 0, len(cfg.Args))
		seen := make(map[int64]struct{})

		for _, arg := range cfg.Args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid record ID %q: %w", arg, err)
			}

			if _, ok := seen[id]; ok {
				continue
			}

			seen[id] = struct{}{}

			upload, err := store.GetUpload(ctx, id)
			if err != nil {
				return nil, err
			}

			uploads = append(uploads, upload)
		}

		return uploads, nil
	case cfg.Subject != "" || cfg.All:
		return store.ListUploads(ctx, cfg.Subject)
	default:
		return nil, ErrNoSelection
	}
}

// dryRun previews what would be processed without touching any file.
//
//nolint:unparam // signature kept for consistency with Run
func dryRun(
	cfg *config.Config,
	env *env,
	pending []record.Upload,
	op Operation,
	scanned, excluded int,
	start time.Time,
) error {
	var totalSize int64

	var processed int

	for _, upload := range pending {
		input, err := env.storage.Path(upload.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing upload %d %q: %v\n", upload.ID, upload.Name, err)

			continue
		}

		output := input

		if op != Stamp {
			name := path.Join(upload.UploadTo, archive.Name(upload.SubjectIdentifier, time.Now()))

			if output, err = env.storage.Path(name); err != nil {
				fmt.Fprintf(os.Stderr, "Error processing upload %d %q: %v\n", upload.ID, upload.Name, err)

				continue
			}
		}

		processed++

		if !cfg.Quiet {
			fmt.Printf("Processed %q -> %q\n", input, output) //nolint:forbidigo
		}

		if cfg.Stats {
			if info, err := os.Stat(input); err == nil {
				totalSize += info.Size()
			}
		}
	}

	if cfg.Stats {
		printStats(scanned, excluded, processed, 0, totalSize, time.Since(start))
	}

	return nil
}

func printStats(scanned, excluded, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\nStats\n")
	fmt.Fprintf(os.Stderr, "  Records:   %d\n", scanned)
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", excluded)
	fmt.Fprintf(os.Stderr, "  Processed: %d\n", processed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(os.Stderr, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(os.Stderr, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
