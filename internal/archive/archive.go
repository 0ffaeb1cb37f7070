// Package archive replaces finalized documents with password-protected zip archives.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/klauspost/compress/zip"
	yzip "github.com/yeka/zip"

	"github.com/flourishbhp/truecopy/internal/fileutil"
	"github.com/flourishbhp/truecopy/internal/record"
)

const (
	// DefaultLevel is the deflate level of archive entries.
	DefaultLevel = 8
	// DefaultKeyFile is the key file looked up in the working directory.
	DefaultKeyFile = "filekey.key"

	archivePerm = 0o600
)

// ErrKeyFile is returned when the archive password cannot be read.
var ErrKeyFile = errors.New("reading key file")

// Method selects the zip encryption scheme.
type Method string

const (
	// AES256 is WinZip AES-256 encryption.
	AES256 Method = "aes256"
	// Standard is the legacy PKWARE ZipCrypto scheme understood by minizip.
	Standard Method = "standard"
)

// Storage resolves record file names to filesystem paths.
type Storage interface {
	Path(name string) (string, error)
}

// Saver persists the file reference of a record.
type Saver interface {
	SaveUpload(ctx context.Context, upload record.Upload) error
}

// Result describes one replacement.
type Result struct {
	// Original is the plaintext path that was archived
	Original string
	// Archive is the path of the written archive
	Archive string
	// Size of the archive in bytes
	Size int64
}

// Encryptor archives record files and repoints the records at the archives.
type Encryptor struct {
	storage Storage
	saver   Saver
	keyFile string
	level   int
	method  Method
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures an Encryptor.
type Option func(e *Encryptor)

// WithKeyFile sets the file the password is read from.
func WithKeyFile(path string) Option {
	return func(e *Encryptor) {
		e.keyFile = path
	}
}

// WithLevel sets the deflate level.
func WithLevel(level int) Option {
	return func(e *Encryptor) {
		e.level = level
	}
}

// WithMethod sets the zip encryption scheme.
func WithMethod(method Method) Option {
	return func(e *Encryptor) {
		e.method = method
	}
}

// WithClock sets the clock used for archive names.
func WithClock(now func() time.Time) Option {
	return func(e *Encryptor) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encryptor) {
		e.logger = logger
	}
}

// New returns an Encryptor.
func New(storage Storage, saver Saver, opts ...Option) *Encryptor {
	e := &Encryptor{
		storage: storage,
		saver:   saver,
		keyFile: DefaultKeyFile,
		level:   DefaultLevel,
		method:  AES256,
		now:     time.Now,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Name returns the archive name for subject at t.
// The microsecond fraction keeps repeated archives of one subject apart.
func Name(subject string, t time.Time) string {
	t = t.UTC()

	return fmt.Sprintf("%s_%d.%06d.zip", subject, t.Unix(), t.Nanosecond()/int(time.Microsecond))
}

// ReadKey reads the archive password from path, without trailing whitespace.
func ReadKey(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // configured key file
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrKeyFile, err)
	}

	return strings.TrimRightFunc(string(data), unicode.IsSpace), nil
}

// EncryptAndReplace archives the record's file under a password, points the record at the
// archive and removes the plaintext. A record without a file is left alone.
//
// The archive is durable on disk before the record is saved, and the plaintext is only
// removed once the record is saved. A failed save removes the archive again.
func (e *Encryptor) EncryptAndReplace(ctx context.Context, upload *record.Upload, subject string) (*Result, error) {
	if !upload.HasFile() {
		return nil, nil //nolint:nilnil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original, err := e.storage.Path(upload.Name)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", upload.Name, err)
	}

	name := path.Join(upload.UploadTo, Name(subject, e.now()))

	target, err := e.storage.Path(name)
	if err != nil {
		return nil, fmt.Errorf("resolving archive %q: %w", name, err)
	}

	password, err := ReadKey(e.keyFile)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	if err := e.write(original, target, password); err != nil {
		return nil, err
	}

	updated := *upload
	updated.Name = name

	if err := e.saver.SaveUpload(ctx, updated); err != nil {
		if rmErr := os.Remove(target); rmErr != nil {
			e.logger.ErrorContext(ctx, "removing orphaned archive", "archive", target, "error", rmErr)
		}

		return nil, fmt.Errorf("saving upload %d: %w", upload.ID, err)
	}

	*upload = updated

	result := &Result{Original: original, Archive: target}

	if err := os.Remove(original); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("removing plaintext %q: %w", original, err)
	}

	if result.Size, err = fileutil.Size(target); err != nil {
		e.logger.WarnContext(ctx, "reading archive size", "archive", target, "error", err)
	}

	e.logger.DebugContext(ctx, "encrypted document", "upload", upload.ID, "archive", name)

	return result, nil
}

// write compresses src into a single-entry encrypted archive at target.
func (e *Encryptor) write(src, target, password string) (err error) {
	tc, err := fileutil.NewTempContext(src, target)
	if err != nil {
		return fmt.Errorf("preparing archive: %w", err)
	}

	defer tc.CleanupOnError(&err)

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("opening %q: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("reading %q: %w", src, err)
	}

	zw := zip.NewWriter(tc.TmpFile)

	entry, err := e.entry(zw, info, password)
	if err != nil {
		return fmt.Errorf("creating archive entry: %w", err)
	}

	if _, err = io.Copy(entry, in); err != nil {
		return fmt.Errorf("compressing %q: %w", src, err)
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}

	if err = tc.Commit(target, archivePerm); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	return nil
}

// Extract decrypts the single entry of the archive at src into dir and returns the written path.
// The archive is left in place.
func Extract(src, password, dir string) (out string, err error) {
	r, err := yzip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("opening archive %q: %w", src, err)
	}
	defer r.Close()

	if len(r.File) != 1 {
		return "", fmt.Errorf("archive %q: expected one entry, found %d", src, len(r.File))
	}

	entry := r.File[0]
	if entry.IsEncrypted() {
		entry.SetPassword(password)
	}

	out = filepath.Join(dir, filepath.Base(filepath.FromSlash(entry.Name)))

	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("opening %q in %q: %w", entry.Name, src, err)
	}
	defer rc.Close()

	tc, err := fileutil.NewTempContext(src, out)
	if err != nil {
		return "", fmt.Errorf("preparing %q: %w", out, err)
	}

	defer tc.CleanupOnError(&err)

	if _, err = io.Copy(tc.TmpFile, rc); err != nil { //nolint:gosec // single entry of our own archive
		return "", fmt.Errorf("decrypting %q: %w", entry.Name, err)
	}

	if err = tc.Commit(out, archivePerm); err != nil {
		return "", fmt.Errorf("writing %q: %w", out, err)
	}

	return out, nil
}
