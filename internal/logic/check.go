package logic

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/filter"
	"github.com/flourishbhp/truecopy/internal/record"
	"github.com/flourishbhp/truecopy/pkg/pathmatch"
)

// ErrCheckFailed is returned when the check found problems.
var ErrCheckFailed = errors.New("check failed")

// RunCheck verifies that every record's file exists under the media root and,
// when include patterns are given, that each pattern matches at least one record.
func RunCheck(ctx context.Context, cfg *config.Config) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	uploads, err := env.store.ListUploads(ctx, cfg.Subject)
	if err != nil {
		return err
	}

	failures := checkFiles(env, uploads, cfg.Quiet)

	patterns, err := filter.Merge(cfg.Include, cfg.IncludeFrom)
	if err != nil {
		return fmt.Errorf("loading include patterns: %w", err)
	}

	failures += checkPatterns(patterns, uploads, cfg.Quiet)

	if failures > 0 {
		return fmt.Errorf("%w: %d problem(s)", ErrCheckFailed, failures)
	}

	return nil
}

// checkFiles returns the number of records whose file is missing.
func checkFiles(env *env, uploads []record.Upload, quiet bool) int {
	var failures int

	for _, upload := range uploads {
		if !upload.HasFile() {
			continue
		}

		path, err := env.storage.Path(upload.Name)
		if err == nil {
			_, err = os.Stat(path)
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "upload %d: %s: %v (ERROR)\n", upload.ID, upload.Name, err)

			failures++

			continue
		}

		if !quiet {
			fmt.Fprintf(os.Stderr, "upload %d: %s: %s\n", upload.ID, upload.Name, state(upload))
		}
	}

	return failures
}

// checkPatterns tests each pattern individually against the record names.
// Returns the number of patterns that matched no record.
func checkPatterns(patterns []string, uploads []record.Upload, quiet bool) int {
	var failures int

	for _, pattern := range patterns {
		set, err := pathmatch.Compile(pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "include: %s: invalid pattern: %v\n", pattern, err)

			failures++

			continue
		}

		var count int

		for _, upload := range uploads {
			if upload.HasFile() && set.MatchAny(upload.Name) {
				count++
			}
		}

		if count == 0 {
			fmt.Fprintf(os.Stderr, "include: %s: 0 records (ERROR)\n", pattern)

			failures++
		} else if !quiet {
			fmt.Fprintf(os.Stderr, "include: %s: %d records\n", pattern, count)
		}
	}

	return failures
}
