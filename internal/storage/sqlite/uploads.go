package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/flourishbhp/truecopy/internal/record"
)

const uploadColumns = `id, subject_identifier, name, upload_to, created_at, updated_at`

// CreateUpload inserts an upload record and returns it with its assigned ID.
func (s *Store) CreateUpload(ctx context.Context, upload record.Upload) (record.Upload, error) {
	if err := s.ready(); err != nil {
		return record.Upload{}, err
	}

	upload.SubjectIdentifier = strings.TrimSpace(upload.SubjectIdentifier)
	if upload.SubjectIdentifier == "" {
		return record.Upload{}, errors.New("subject identifier is required")
	}

	now := s.now().UTC()
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = now
	}

	upload.UpdatedAt = upload.CreatedAt

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO uploads (subject_identifier, name, upload_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		upload.SubjectIdentifier,
		upload.Name,
		upload.UploadTo,
		toMillis(upload.CreatedAt),
		toMillis(upload.UpdatedAt),
	)
	if err != nil {
		return record.Upload{}, fmt.Errorf("create upload: %w", err)
	}

	if upload.ID, err = result.LastInsertId(); err != nil {
		return record.Upload{}, fmt.Errorf("create upload: %w", err)
	}

	upload.CreatedAt = fromMillis(toMillis(upload.CreatedAt))
	upload.UpdatedAt = upload.CreatedAt

	return upload, nil
}

// GetUpload returns one upload record by ID.
func (s *Store) GetUpload(ctx context.Context, id int64) (record.Upload, error) {
	if err := s.ready(); err != nil {
		return record.Upload{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)

	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Upload{}, fmt.Errorf("upload %d: %w", id, record.ErrNotFound)
	}

	if err != nil {
		return record.Upload{}, fmt.Errorf("get upload %d: %w", id, err)
	}

	return upload, nil
}

// ListUploads returns upload records in ID order, limited to subject when it is set.
func (s *Store) ListUploads(ctx context.Context, subject string) ([]record.Upload, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	query := `SELECT ` + uploadColumns + ` FROM uploads`
	args := []any{}

	if subject = strings.TrimSpace(subject); subject != "" {
		query += ` WHERE subject_identifier = ?`

		args = append(args, subject)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []record.Upload

	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}

		uploads = append(uploads, upload)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	return uploads, nil
}

// SaveUpload persists the file reference of an existing record.
func (s *Store) SaveUpload(ctx context.Context, upload record.Upload) error {
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE uploads SET name = ?, upload_to = ?, updated_at = ? WHERE id = ?`,
		upload.Name,
		upload.UploadTo,
		toMillis(s.now()),
		upload.ID,
	)
	if err != nil {
		return fmt.Errorf("save upload %d: %w", upload.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save upload %d: %w", upload.ID, err)
	}

	if affected == 0 {
		return fmt.Errorf("upload %d: %w", upload.ID, record.ErrNotFound)
	}

	return nil
}

// SubjectUploads adapts the upload table to the action item Model check.
type SubjectUploads struct {
	Store *Store
}

// Exists reports whether the subject has at least one upload.
func (m SubjectUploads) Exists(ctx context.Context, subject string) (bool, error) {
	var found int

	err := m.Store.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM uploads WHERE subject_identifier = ? LIMIT 1`, subject).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("check uploads of %q: %w", subject, err)
	}

	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(row scanner) (record.Upload, error) {
	var (
		upload           record.Upload
		created, updated int64
	)

	if err := row.Scan(
		&upload.ID,
		&upload.SubjectIdentifier,
		&upload.Name,
		&upload.UploadTo,
		&created,
		&updated,
	); err != nil {
		return record.Upload{}, err
	}

	upload.CreatedAt = fromMillis(created)
	upload.UpdatedAt = fromMillis(updated)

	return upload, nil
}
