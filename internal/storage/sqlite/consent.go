package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flourishbhp/truecopy/internal/consent"
	"github.com/flourishbhp/truecopy/internal/storage"
)

// LastDummyConsent returns the most recent child dummy consent of subject.
func (s *Store) LastDummyConsent(ctx context.Context, subject string) (consent.DummyConsent, error) {
	if err := s.ready(); err != nil {
		return consent.DummyConsent{}, err
	}

	var (
		dummy   consent.DummyConsent
		created int64
	)

	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT subject_identifier, relative_identifier, created_at
		   FROM child_dummy_consents
		  WHERE subject_identifier = ?
		  ORDER BY created_at DESC, id DESC
		  LIMIT 1`,
		subject,
	).Scan(&dummy.SubjectIdentifier, &dummy.RelativeIdentifier, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return consent.DummyConsent{}, storage.ErrNotFound
	}

	if err != nil {
		return consent.DummyConsent{}, fmt.Errorf("get child dummy consent: %w", err)
	}

	dummy.CreatedAt = fromMillis(created)

	return dummy, nil
}

// PutDummyConsent records a child dummy consent.
// Consent and screening rows are written by the enrolment forms, not by truecopy;
// the Put methods seed them for imports and tests.
func (s *Store) PutDummyConsent(ctx context.Context, dummy consent.DummyConsent) error {
	if err := s.ready(); err != nil {
		return err
	}

	if dummy.CreatedAt.IsZero() {
		dummy.CreatedAt = s.now()
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO child_dummy_consents (subject_identifier, relative_identifier, created_at) VALUES (?, ?, ?)`,
		dummy.SubjectIdentifier, dummy.RelativeIdentifier, toMillis(dummy.CreatedAt),
	); err != nil {
		return fmt.Errorf("put child dummy consent: %w", err)
	}

	return nil
}

// GetAssent returns the assent of subject.
func (s *Store) GetAssent(ctx context.Context, subject string) (consent.Assent, error) {
	if err := s.ready(); err != nil {
		return consent.Assent{}, err
	}

	var (
		assent   consent.Assent
		assented int64
	)

	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT subject_identifier, version, assented_at FROM child_assents WHERE subject_identifier = ?`,
		subject,
	).Scan(&assent.SubjectIdentifier, &assent.Version, &assented)
	if errors.Is(err, sql.ErrNoRows) {
		return consent.Assent{}, storage.ErrNotFound
	}

	if err != nil {
		return consent.Assent{}, fmt.Errorf("get child assent: %w", err)
	}

	assent.AssentedAt = fromMillis(assented)

	return assent, nil
}

// PutAssent records or replaces the assent of a child. Seeding only.
func (s *Store) PutAssent(ctx context.Context, assent consent.Assent) error {
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO child_assents (subject_identifier, version, assented_at) VALUES (?, ?, ?)
		 ON CONFLICT (subject_identifier) DO UPDATE SET version = excluded.version, assented_at = excluded.assented_at`,
		assent.SubjectIdentifier, assent.Version, toMillis(assent.AssentedAt),
	); err != nil {
		return fmt.Errorf("put child assent: %w", err)
	}

	return nil
}

// GetScreening returns the screening of the given kind for a caregiver.
func (s *Store) GetScreening(ctx context.Context, kind consent.ScreeningKind, subject string) (consent.Screening, error) {
	if err := s.ready(); err != nil {
		return consent.Screening{}, err
	}

	screening := consent.Screening{Kind: kind}

	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT subject_identifier, screening_identifier FROM screenings WHERE kind = ? AND subject_identifier = ?`,
		string(kind), subject,
	).Scan(&screening.SubjectIdentifier, &screening.ScreeningIdentifier)
	if errors.Is(err, sql.ErrNoRows) {
		return consent.Screening{}, storage.ErrNotFound
	}

	if err != nil {
		return consent.Screening{}, fmt.Errorf("get %s screening: %w", kind, err)
	}

	return screening, nil
}

// PutScreening records a caregiver screening. Seeding only.
func (s *Store) PutScreening(ctx context.Context, screening consent.Screening) error {
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO screenings (kind, subject_identifier, screening_identifier) VALUES (?, ?, ?)`,
		string(screening.Kind), screening.SubjectIdentifier, screening.ScreeningIdentifier,
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("put screening: %w", err)
	}

	return nil
}

// GetConsentVersion returns the consent version recorded for a screening.
func (s *Store) GetConsentVersion(ctx context.Context, screeningIdentifier string) (consent.Version, error) {
	if err := s.ready(); err != nil {
		return consent.Version{}, err
	}

	version := consent.Version{ScreeningIdentifier: screeningIdentifier}

	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT version, child_version FROM consent_versions WHERE screening_identifier = ?`,
		screeningIdentifier,
	).Scan(&version.Version, &version.ChildVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return consent.Version{}, storage.ErrNotFound
	}

	if err != nil {
		return consent.Version{}, fmt.Errorf("get consent version: %w", err)
	}

	return version, nil
}

// PutConsentVersion records or replaces the consent version of a screening. Seeding only.
func (s *Store) PutConsentVersion(ctx context.Context, version consent.Version) error {
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO consent_versions (screening_identifier, version, child_version) VALUES (?, ?, ?)
		 ON CONFLICT (screening_identifier) DO UPDATE SET version = excluded.version, child_version = excluded.child_version`,
		version.ScreeningIdentifier, version.Version, version.ChildVersion,
	); err != nil {
		return fmt.Errorf("put consent version: %w", err)
	}

	return nil
}
