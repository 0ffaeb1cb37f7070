// Package document stamps uploaded images and PDFs as true copies.
package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/flourishbhp/truecopy/internal/fileutil"
	"github.com/flourishbhp/truecopy/internal/record"
	"github.com/flourishbhp/truecopy/internal/stamp"
)

// DefaultDPI renders PDF pages at 300/72 times their point size.
const DefaultDPI = 300

var (
	// ErrNoFile is returned when the record has no file to finalize.
	ErrNoFile = errors.New("record has no file")
	// ErrNoPages is returned for PDFs without pages.
	ErrNoPages = errors.New("pdf has no pages")
)

// Storage resolves record file names to filesystem paths.
type Storage interface {
	Path(name string) (string, error)
}

// Finalizer stamps the files of upload records in place.
type Finalizer struct {
	storage  Storage
	stamper  *stamp.Stamper
	dpi      float64
	parallel int
	logger   *slog.Logger
}

// Option configures a Finalizer.
type Option func(f *Finalizer)

// WithDPI sets the PDF rasterization resolution.
func WithDPI(dpi float64) Option {
	return func(f *Finalizer) {
		f.dpi = dpi
	}
}

// WithParallel bounds how many PDF pages are stamped at once.
func WithParallel(n int) Option {
	return func(f *Finalizer) {
		f.parallel = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finalizer) {
		f.logger = logger
	}
}

// New returns a Finalizer.
func New(storage Storage, stamper *stamp.Stamper, opts ...Option) *Finalizer {
	f := &Finalizer{
		storage:  storage,
		stamper:  stamper,
		dpi:      DefaultDPI,
		parallel: runtime.NumCPU(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.parallel < 1 {
		f.parallel = 1
	}

	return f
}

// IsPDF reports whether path is handled as a PDF. Anything else is treated as a raster image.
func IsPDF(path string) bool {
	return strings.Contains(path, ".pdf")
}

// Finalize stamps the record's file and writes it back to the same path.
func (f *Finalizer) Finalize(ctx context.Context, upload record.Upload) error {
	if !upload.HasFile() {
		return fmt.Errorf("upload %d: %w", upload.ID, ErrNoFile)
	}

	path, err := f.storage.Path(upload.Name)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", upload.Name, err)
	}

	if IsPDF(path) {
		err = f.StampPDF(ctx, path)
	} else {
		err = f.StampImage(ctx, path)
	}

	if err != nil {
		return err
	}

	f.logger.DebugContext(ctx, "stamped document", "upload", upload.ID, "path", path)

	return nil
}

// StampImage stamps the raster image at path in place.
func (f *Finalizer) StampImage(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("detecting image format of %q: %w", path, err)
	}

	base, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decoding image %q: %w", path, err)
	}

	stamped, err := f.stamper.Apply(base)
	if err != nil {
		return fmt.Errorf("stamping %q: %w", path, err)
	}

	return replace(path, func(tc *fileutil.TempContext) error {
		return imaging.Encode(tc.TmpFile, stamped, format)
	})
}

// replace writes the output through a temp file and renames it over path.
func replace(path string, write func(tc *fileutil.TempContext) error) (err error) {
	tc, err := fileutil.NewTempContext(path, path)
	if err != nil {
		return fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	if err = write(tc); err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}

	if err = tc.Commit(path, tc.Perm); err != nil {
		return fmt.Errorf("replacing %q: %w", path, err)
	}

	return nil
}

// stampAll composites one stamp onto each image. Output order matches input order.
func (f *Finalizer) stampAll(ctx context.Context, pages []image.Image) ([]image.Image, error) {
	mark, err := f.stamper.Load()
	if err != nil {
		return nil, err
	}

	return stampPages(ctx, f.parallel, pages, func(page image.Image) (image.Image, error) {
		return f.stamper.Composite(page, mark)
	})
}
