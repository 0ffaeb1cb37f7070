// Package schedule answers questions about a participant's appointments.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flourishbhp/truecopy/internal/storage"
)

// excluded marks sub-study schedules that never count as the main visit sequence.
var excluded = []string{"tb", "facet"} //nolint:gochecknoglobals

// Appointment is a scheduled visit of a participant.
type Appointment struct {
	ID                int64
	SubjectIdentifier string
	ScheduleName      string
	VisitCode         string
	VisitCodeSequence int
	Timepoint         int
	ApptDatetime      time.Time
}

// Store reads schedule history and appointments.
type Store interface {
	// ScheduleNames returns every schedule the subject was put on.
	ScheduleNames(ctx context.Context, subject string) ([]string, error)
	// LatestAppointmentBefore returns the latest main-sequence appointment before the given time
	// on one of the schedules, or storage.ErrNotFound.
	LatestAppointmentBefore(ctx context.Context, subject string, before time.Time, schedules []string) (Appointment, error)
	// PreviousByTimepoint returns the main-sequence appointment preceding appt on its schedule,
	// or storage.ErrNotFound.
	PreviousByTimepoint(ctx context.Context, appt Appointment) (Appointment, error)
}

// Lookup resolves appointment relationships.
type Lookup struct {
	store Store
}

// NewLookup returns a Lookup backed by store.
func NewLookup(store Store) *Lookup {
	return &Lookup{store: store}
}

// OnScheduleNames returns the subject's schedules, leaving out the tb and facet sub-studies.
func (l *Lookup) OnScheduleNames(ctx context.Context, subject string) ([]string, error) {
	names, err := l.store.ScheduleNames(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("listing schedules of %q: %w", subject, err)
	}

	kept := make([]string, 0, len(names))

	for _, name := range names {
		if !isExcluded(name) {
			kept = append(kept, name)
		}
	}

	return kept, nil
}

// PreviousAppointment returns the appointment before appt, or nil when appt is the first.
func (l *Lookup) PreviousAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	names, err := l.OnScheduleNames(ctx, appt.SubjectIdentifier)
	if err != nil {
		return nil, err
	}

	previous, err := l.store.LatestAppointmentBefore(ctx, appt.SubjectIdentifier, appt.ApptDatetime, names)
	if err == nil {
		return &previous, nil
	}

	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("looking up appointment before %s: %w", appt.ApptDatetime.Format(time.RFC3339), err)
	}

	previous, err = l.store.PreviousByTimepoint(ctx, appt)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("looking up appointment by timepoint: %w", err)
	}

	return &previous, nil
}

func isExcluded(name string) bool {
	lower := strings.ToLower(name)

	for _, marker := range excluded {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}
