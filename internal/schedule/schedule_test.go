package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/schedule"
	"github.com/flourishbhp/truecopy/internal/storage"
)

type fakeStore struct {
	names        []string
	appointments []schedule.Appointment
	gotSchedules []string
}

func (f *fakeStore) ScheduleNames(context.Context, string) ([]string, error) {
	return f.names, nil
}

func (f *fakeStore) LatestAppointmentBefore(
	_ context.Context, subject string, before time.Time, schedules []string,
) (schedule.Appointment, error) {
	f.gotSchedules = schedules

	var (
		best  schedule.Appointment
		found bool
	)

	for _, a := range f.appointments {
		if a.SubjectIdentifier != subject || !a.ApptDatetime.Before(before) || a.VisitCodeSequence != 0 {
			continue
		}

		if !contains(schedules, a.ScheduleName) {
			continue
		}

		if !found || a.ApptDatetime.After(best.ApptDatetime) {
			best, found = a, true
		}
	}

	if !found {
		return schedule.Appointment{}, storage.ErrNotFound
	}

	return best, nil
}

func (f *fakeStore) PreviousByTimepoint(_ context.Context, appt schedule.Appointment) (schedule.Appointment, error) {
	for _, a := range f.appointments {
		if a.ScheduleName == appt.ScheduleName && a.Timepoint == appt.Timepoint-1 {
			return a, nil
		}
	}

	return schedule.Appointment{}, storage.ErrNotFound
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

var day = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func TestOnScheduleNamesExcludesSubStudies(t *testing.T) {
	t.Parallel()

	store := &fakeStore{names: []string{"child_a_enrol_schedule1", "child_tb_2_months_schedule1", "child_FACET_schedule1"}}

	names, err := schedule.NewLookup(store).OnScheduleNames(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"child_a_enrol_schedule1"}, names)
}

func TestPreviousAppointment(t *testing.T) {
	t.Parallel()

	enrol := schedule.Appointment{
		ID: 1, SubjectIdentifier: "C1", ScheduleName: "child_a_enrol_schedule1",
		VisitCode: "2000", ApptDatetime: day,
	}
	unscheduled := schedule.Appointment{
		ID: 2, SubjectIdentifier: "C1", ScheduleName: "child_a_enrol_schedule1",
		VisitCode: "2000", VisitCodeSequence: 1, ApptDatetime: day.AddDate(0, 0, 10),
	}
	tb := schedule.Appointment{
		ID: 3, SubjectIdentifier: "C1", ScheduleName: "child_tb_2_months_schedule1",
		VisitCode: "2100T", ApptDatetime: day.AddDate(0, 0, 20),
	}
	quarterly := schedule.Appointment{
		ID: 4, SubjectIdentifier: "C1", ScheduleName: "child_a_quart_schedule1",
		VisitCode: "2001", Timepoint: 1, ApptDatetime: day.AddDate(0, 3, 0),
	}

	store := &fakeStore{
		names:        []string{"child_a_enrol_schedule1", "child_tb_2_months_schedule1", "child_a_quart_schedule1"},
		appointments: []schedule.Appointment{enrol, unscheduled, tb, quarterly},
	}

	got, err := schedule.NewLookup(store).PreviousAppointment(context.Background(), quarterly)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, enrol.ID, got.ID)
	assert.NotContains(t, store.gotSchedules, "child_tb_2_months_schedule1")
}

func TestPreviousAppointmentFallsBackToTimepoint(t *testing.T) {
	t.Parallel()

	first := schedule.Appointment{
		ID: 1, SubjectIdentifier: "C1", ScheduleName: "other_schedule", ApptDatetime: day,
	}
	second := schedule.Appointment{
		ID: 2, SubjectIdentifier: "C1", ScheduleName: "other_schedule", Timepoint: 1, ApptDatetime: day.AddDate(0, 1, 0),
	}

	store := &fakeStore{names: []string{"child_tb_schedule"}, appointments: []schedule.Appointment{first, second}}

	got, err := schedule.NewLookup(store).PreviousAppointment(context.Background(), second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)

	got, err = schedule.NewLookup(store).PreviousAppointment(context.Background(), first)
	require.NoError(t, err)
	assert.Nil(t, got)
}
