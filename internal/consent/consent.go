// Package consent resolves a child participant's caregiver, screening and consent version.
package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flourishbhp/truecopy/internal/storage"
)

// ScreeningKind distinguishes the two caregiver screening forms.
type ScreeningKind string

const (
	// Pregnancy is the screening of pregnant women.
	Pregnancy ScreeningKind = "pregnancy"
	// Prior is the screening of prior study participants.
	Prior ScreeningKind = "prior"
)

// DummyConsent links a child to the caregiver who consented.
type DummyConsent struct {
	SubjectIdentifier  string
	RelativeIdentifier string
	CreatedAt          time.Time
}

// Assent is a child's own assent to take part.
type Assent struct {
	SubjectIdentifier string
	Version           string
	AssentedAt        time.Time
}

// Screening is a caregiver screening form.
type Screening struct {
	Kind                ScreeningKind
	SubjectIdentifier   string
	ScreeningIdentifier string
}

// Version is the consent version recorded for a screening.
type Version struct {
	ScreeningIdentifier string
	Version             string
	ChildVersion        string
}

// Store reads consent related rows. Lookups return storage.ErrNotFound for missing rows.
type Store interface {
	LastDummyConsent(ctx context.Context, subject string) (DummyConsent, error)
	GetAssent(ctx context.Context, subject string) (Assent, error)
	GetScreening(ctx context.Context, kind ScreeningKind, subject string) (Screening, error)
	GetConsentVersion(ctx context.Context, screeningIdentifier string) (Version, error)
}

// Resolver answers consent questions about child participants.
type Resolver struct {
	store Store
}

// NewResolver returns a Resolver backed by store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// CaregiverIdentifier returns the caregiver of the child, or "" when no consent links one.
func (r *Resolver) CaregiverIdentifier(ctx context.Context, child string) (string, error) {
	dummy, err := r.store.LastDummyConsent(ctx, child)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("looking up child consent of %q: %w", child, err)
	}

	return dummy.RelativeIdentifier, nil
}

// Assent returns the child's assent, or nil when there is none.
func (r *Resolver) Assent(ctx context.Context, child string) (*Assent, error) {
	assent, err := r.store.GetAssent(ctx, child)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("looking up assent of %q: %w", child, err)
	}

	return &assent, nil
}

// PregnancyScreening returns the pregnancy screening of the child's caregiver, or nil.
func (r *Resolver) PregnancyScreening(ctx context.Context, child string) (*Screening, error) {
	return r.screening(ctx, Pregnancy, child)
}

// PriorScreening returns the prior-participant screening of the child's caregiver, or nil.
func (r *Resolver) PriorScreening(ctx context.Context, child string) (*Screening, error) {
	return r.screening(ctx, Prior, child)
}

func (r *Resolver) screening(ctx context.Context, kind ScreeningKind, child string) (*Screening, error) {
	caregiver, err := r.CaregiverIdentifier(ctx, child)
	if err != nil {
		return nil, err
	}

	screening, err := r.store.GetScreening(ctx, kind, caregiver)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("looking up %s screening of %q: %w", kind, caregiver, err)
	}

	return &screening, nil
}

// ConsentVersion returns the consent version that applies to the child.
// The child version wins over the caregiver version when both are recorded.
func (r *Resolver) ConsentVersion(ctx context.Context, child string) (string, error) {
	screening, err := r.PregnancyScreening(ctx, child)
	if err != nil {
		return "", err
	}

	if screening == nil {
		if screening, err = r.PriorScreening(ctx, child); err != nil {
			return "", err
		}
	}

	if screening == nil {
		return "", ErrMissingScreening
	}

	version, err := r.store.GetConsentVersion(ctx, screening.ScreeningIdentifier)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrMissingConsentVersion
	}

	if err != nil {
		return "", fmt.Errorf("looking up consent version of %q: %w", screening.ScreeningIdentifier, err)
	}

	if version.ChildVersion != "" {
		return version.ChildVersion, nil
	}

	return version.Version, nil
}
