package logic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flourishbhp/truecopy/internal/archive"
	"github.com/flourishbhp/truecopy/internal/document"
	"github.com/flourishbhp/truecopy/internal/fileutil"
	"github.com/flourishbhp/truecopy/internal/record"
)

// Operation selects what the pipeline does to a record.
type Operation int

const (
	// Stamp overlays the true-copy stamp on the record's file.
	Stamp Operation = iota
	// Encrypt archives the record's file under the key file password.
	Encrypt
	// Finalize stamps and then encrypts.
	Finalize
)

func (o Operation) String() string {
	switch o {
	case Stamp:
		return "stamp"
	case Encrypt:
		return "encrypt"
	case Finalize:
		return "finalize"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Result represents the outcome of processing a single record.
type Result struct {
	// Upload as it stands after processing
	Upload record.Upload

	// Input file path
	Input string

	// Output file path
	Output string

	// Output file size in bytes
	OutputSize int64

	// Skipped is set when the record had nothing to do
	Skipped bool

	// Any error that occurred during processing
	Error error
}

// Pipeline runs the finalizer and encryptor against stored records.
type Pipeline struct {
	store     record.Store
	finalizer *document.Finalizer
	encryptor *archive.Encryptor
	storage   document.Storage
	locker    *record.Locker
	logger    *slog.Logger
}

// NewPipeline wires a Pipeline.
func NewPipeline(
	store record.Store,
	storage document.Storage,
	finalizer *document.Finalizer,
	encryptor *archive.Encryptor,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		store:     store,
		storage:   storage,
		finalizer: finalizer,
		encryptor: encryptor,
		locker:    record.NewLocker(),
		logger:    logger,
	}
}

// Process applies op to the record with the given ID.
// Operations on the same record never overlap.
func (p *Pipeline) Process(ctx context.Context, id int64, op Operation) (res Result) {
	unlock := p.locker.Lock(id)
	defer unlock()

	upload, err := p.store.GetUpload(ctx, id)
	if err != nil {
		return Result{Upload: record.Upload{ID: id}, Error: err}
	}

	res = Result{Upload: upload}

	// archived records are final
	if !upload.HasFile() || upload.Encrypted() {
		res.Skipped = true

		return res
	}

	if res.Input, err = p.storage.Path(upload.Name); err != nil {
		res.Error = err

		return res
	}

	res.Output = res.Input

	if op == Stamp || op == Finalize {
		if err := p.finalizer.Finalize(ctx, upload); err != nil {
			res.Error = fmt.Errorf("finalizing upload %d: %w", id, err)

			return res
		}
	}

	if op == Encrypt || op == Finalize {
		archived, err := p.encryptor.EncryptAndReplace(ctx, &upload, upload.SubjectIdentifier)

		res.Upload = upload

		if archived != nil {
			res.Output = archived.Archive
			res.OutputSize = archived.Size
		}

		if err != nil {
			res.Error = fmt.Errorf("encrypting upload %d: %w", id, err)

			return res
		}

		return res
	}

	if res.OutputSize, err = fileutil.Size(res.Output); err != nil {
		res.Error = err
	}

	p.logger.DebugContext(ctx, "stamped upload", "upload", id, "name", upload.Name)

	return res
}
