package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/flourishbhp/truecopy/internal/fileutil"
)

var disableConfigDir sync.Once //nolint:gochecknoglobals

// pdfConfiguration returns a pdfcpu configuration that never touches the user's config directory.
func pdfConfiguration() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)

	return model.NewDefaultConfiguration()
}

// StampPDF rasterizes every page of the PDF at path, stamps each page
// and rewrites the file as a PDF of the stamped pages in original order.
func (f *Finalizer) StampPDF(ctx context.Context, path string) error {
	pages, err := Rasterize(ctx, path, f.dpi)
	if err != nil {
		return err
	}

	stamped, err := f.stampAll(ctx, pages)
	if err != nil {
		return fmt.Errorf("stamping %q: %w", path, err)
	}

	return replace(path, func(tc *fileutil.TempContext) error {
		return Assemble(tc.TmpFile, stamped)
	})
}

// Rasterize renders every page of the PDF at path to an image at dpi.
func Rasterize(ctx context.Context, path string, dpi float64) ([]image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %q: %w", path, err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count == 0 {
		return nil, fmt.Errorf("%q: %w", path, ErrNoPages)
	}

	pages := make([]image.Image, count)

	for i := range count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d of %q: %w", i+1, path, err)
		}

		pages[i] = page
	}

	return pages, nil
}

// Assemble writes images as a multi-page PDF to w, one page per image.
// The first image forms the base document and the rest are appended in order.
// Each page's media box matches its image's pixel dimensions.
func Assemble(w io.Writer, pages []image.Image) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	readers := make([]io.Reader, len(pages))

	for i, page := range pages {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
			return fmt.Errorf("encoding page %d: %w", i+1, err)
		}

		readers[i] = &buf
	}

	if err := api.ImportImages(nil, w, readers, pdfcpu.DefaultImportConfig(), pdfConfiguration()); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}

	return nil
}

// stampPages applies fn to every page with at most limit pages in flight.
func stampPages(
	ctx context.Context,
	limit int,
	pages []image.Image,
	fn func(image.Image) (image.Image, error),
) ([]image.Image, error) {
	out := make([]image.Image, len(pages))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, page := range pages {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			stamped, err := fn(page)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}

			out[i] = stamped

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
