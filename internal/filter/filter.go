// Package filter selects media files for registration using find -path patterns.
//
// Patterns are matched against media names (slash-separated, relative to the media root),
// so "uploads/*.pdf" selects every PDF below the uploads directory.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flourishbhp/truecopy/pkg/pathmatch"
)

// ErrNoMatch is returned when no file survives filtering.
var ErrNoMatch = errors.New("no files matched the provided patterns")

// Namer maps a filesystem path to its media name.
type Namer interface {
	Name(path string) (string, error)
}

// File is a selected file.
type File struct {
	// Path on the local filesystem
	Path string
	// Name relative to the media root
	Name string
}

// Filter selects files based on include/exclude patterns.
// Empty includes means "match all". Excludes always win.
type Filter struct {
	includes    *pathmatch.Set
	excludes    *pathmatch.Set
	hasIncludes bool
}

// New compiles include/exclude patterns into a reusable filter.
func New(includes, excludes []string) (*Filter, error) {
	inc, err := pathmatch.Compile(normalize(includes)...)
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := pathmatch.Compile(normalize(excludes)...)
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return &Filter{includes: inc, excludes: exc, hasIncludes: len(includes) > 0}, nil
}

// Match reports whether the media name should be selected.
func (f *Filter) Match(name string) bool {
	included := !f.hasIncludes || f.includes.MatchAny(name)

	return included && !f.excludes.MatchAny(name)
}

// Resolve expands args (files or directories) into the files to register.
// Explicit files bypass the patterns; directories are walked and filtered.
// Hidden files such as in-flight temp files are never selected from a walk.
// Returns the selected files and the number of candidates scanned.
func (f *Filter) Resolve(args []string, namer Namer) (files []File, scanned int, err error) {
	seen := make(map[string]struct{})

	add := func(p string) error {
		name, err := namer.Name(p)
		if err != nil {
			return err
		}

		if _, ok := seen[name]; ok {
			return nil
		}

		seen[name] = struct{}{}
		files = append(files, File{Path: p, Name: name})

		return nil
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			scanned++

			if err := add(arg); err != nil {
				return nil, 0, err
			}

			continue
		}

		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			scanned++

			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			name, err := namer.Name(p)
			if err != nil {
				return err
			}

			if !f.Match(name) {
				return nil
			}

			return add(p)
		})
		if err != nil {
			return nil, 0, fmt.Errorf("walking %q: %w", arg, err)
		}
	}

	if len(files) == 0 {
		return nil, scanned, fmt.Errorf("%w: %v", ErrNoMatch, args)
	}

	return files, scanned, nil
}

// normalize strips leading "./" so patterns match cleaned names.
func normalize(patterns []string) []string {
	out := make([]string, len(patterns))

	for i, p := range patterns {
		out[i] = strings.TrimPrefix(p, "./")
	}

	return out
}
