package consent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/consent"
	"github.com/flourishbhp/truecopy/internal/storage"
)

type fakeStore struct {
	dummies    map[string]consent.DummyConsent
	assents    map[string]consent.Assent
	screenings map[consent.ScreeningKind]map[string]consent.Screening
	versions   map[string]consent.Version
	err        error
}

func (f *fakeStore) LastDummyConsent(_ context.Context, subject string) (consent.DummyConsent, error) {
	if f.err != nil {
		return consent.DummyConsent{}, f.err
	}

	d, ok := f.dummies[subject]
	if !ok {
		return consent.DummyConsent{}, storage.ErrNotFound
	}

	return d, nil
}

func (f *fakeStore) GetAssent(_ context.Context, subject string) (consent.Assent, error) {
	a, ok := f.assents[subject]
	if !ok {
		return consent.Assent{}, storage.ErrNotFound
	}

	return a, nil
}

func (f *fakeStore) GetScreening(_ context.Context, kind consent.ScreeningKind, subject string) (consent.Screening, error) {
	s, ok := f.screenings[kind][subject]
	if !ok {
		return consent.Screening{}, storage.ErrNotFound
	}

	return s, nil
}

func (f *fakeStore) GetConsentVersion(_ context.Context, screening string) (consent.Version, error) {
	v, ok := f.versions[screening]
	if !ok {
		return consent.Version{}, storage.ErrNotFound
	}

	return v, nil
}

func newFake() *fakeStore {
	return &fakeStore{
		dummies: map[string]consent.DummyConsent{
			"B142-040990462-2-10": {SubjectIdentifier: "B142-040990462-2-10", RelativeIdentifier: "B142-040990462-2"},
		},
		assents: map[string]consent.Assent{},
		screenings: map[consent.ScreeningKind]map[string]consent.Screening{
			consent.Pregnancy: {},
			consent.Prior:     {},
		},
		versions: map[string]consent.Version{},
	}
}

const child = "B142-040990462-2-10"

func TestConsentVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(f *fakeStore)
		want    string
		wantErr error
	}{
		{
			name:    "no screening",
			setup:   func(*fakeStore) {},
			wantErr: consent.ErrMissingScreening,
		},
		{
			name: "screening without version",
			setup: func(f *fakeStore) {
				f.screenings[consent.Prior]["B142-040990462-2"] = consent.Screening{ScreeningIdentifier: "S1"}
			},
			wantErr: consent.ErrMissingConsentVersion,
		},
		{
			name: "caregiver version",
			setup: func(f *fakeStore) {
				f.screenings[consent.Prior]["B142-040990462-2"] = consent.Screening{ScreeningIdentifier: "S1"}
				f.versions["S1"] = consent.Version{ScreeningIdentifier: "S1", Version: "2"}
			},
			want: "2",
		},
		{
			name: "child version preferred",
			setup: func(f *fakeStore) {
				f.screenings[consent.Prior]["B142-040990462-2"] = consent.Screening{ScreeningIdentifier: "S1"}
				f.versions["S1"] = consent.Version{ScreeningIdentifier: "S1", Version: "2", ChildVersion: "3"}
			},
			want: "3",
		},
		{
			name: "pregnancy screening checked first",
			setup: func(f *fakeStore) {
				f.screenings[consent.Pregnancy]["B142-040990462-2"] = consent.Screening{ScreeningIdentifier: "P1"}
				f.screenings[consent.Prior]["B142-040990462-2"] = consent.Screening{ScreeningIdentifier: "S1"}
				f.versions["P1"] = consent.Version{Version: "4"}
				f.versions["S1"] = consent.Version{Version: "2"}
			},
			want: "4",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFake()
			tc.setup(store)

			got, err := consent.NewResolver(store).ConsentVersion(context.Background(), child)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				var validation *consent.ValidationError
				assert.True(t, errors.As(err, &validation))
				assert.Contains(t, validation.Message, "Please complete it before proceeding.")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLookupsTolerateMissingRows(t *testing.T) {
	t.Parallel()

	resolver := consent.NewResolver(newFake())
	ctx := context.Background()

	caregiver, err := resolver.CaregiverIdentifier(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, caregiver)

	assent, err := resolver.Assent(ctx, child)
	require.NoError(t, err)
	assert.Nil(t, assent)

	screening, err := resolver.PregnancyScreening(ctx, child)
	require.NoError(t, err)
	assert.Nil(t, screening)
}

func TestLookupErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	store := newFake()
	store.err = boom

	_, err := consent.NewResolver(store).ConsentVersion(context.Background(), child)
	assert.ErrorIs(t, err, boom)
}
