package logic

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/flourishbhp/truecopy/internal/archive"
	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/document"
	"github.com/flourishbhp/truecopy/internal/media"
	"github.com/flourishbhp/truecopy/internal/stamp"
	"github.com/flourishbhp/truecopy/internal/storage/sqlite"
)

// NewLogger returns the text logger on stderr at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
}

// env holds the resources shared by a command run.
type env struct {
	cfg     *config.Config
	store   *sqlite.Store
	storage *media.Storage
	logger  *slog.Logger
}

func openEnv(cfg *config.Config) (*env, error) {
	storage, err := media.New(cfg.MediaRoot)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	return &env{cfg: cfg, store: store, storage: storage, logger: NewLogger(cfg)}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("closing record store", "error", err)
	}
}

func (e *env) pipeline() (*Pipeline, error) {
	size, err := e.cfg.StampSize()
	if err != nil {
		return nil, err
	}

	position, err := e.cfg.StampPosition()
	if err != nil {
		return nil, err
	}

	finalizer := document.New(
		e.storage,
		stamp.New(e.cfg.Stamp.Path, size, position),
		document.WithDPI(e.cfg.PDF.DPI),
		document.WithParallel(e.cfg.Parallel),
		document.WithLogger(e.logger),
	)

	encryptor := archive.New(
		e.storage,
		e.store,
		archive.WithKeyFile(e.cfg.KeyFile),
		archive.WithLevel(e.cfg.Archive.Level),
		archive.WithMethod(archive.Method(e.cfg.Archive.Method)),
		archive.WithLogger(e.logger),
	)

	return NewPipeline(e.store, e.storage, finalizer, encryptor, e.logger), nil
}
