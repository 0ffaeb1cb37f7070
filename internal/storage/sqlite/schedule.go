package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flourishbhp/truecopy/internal/schedule"
	"github.com/flourishbhp/truecopy/internal/storage"
)

const appointmentColumns = `id, subject_identifier, schedule_name, visit_code, visit_code_sequence, timepoint, appt_datetime`

// ScheduleNames returns the schedules the subject was put on.
func (s *Store) ScheduleNames(ctx context.Context, subject string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT schedule_name FROM schedule_history WHERE subject_identifier = ? ORDER BY schedule_name`, subject)
	if err != nil {
		return nil, fmt.Errorf("list schedule history: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schedule history: %w", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// PutOnSchedule records that subject was put on a schedule.
// Schedules and appointments belong to the visit scheduler; this and CreateAppointment
// only seed those tables.
func (s *Store) PutOnSchedule(ctx context.Context, subject, scheduleName string) error {
	if err := s.ready(); err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO schedule_history (subject_identifier, schedule_name) VALUES (?, ?)`,
		subject, scheduleName,
	); err != nil {
		return fmt.Errorf("put schedule history: %w", err)
	}

	return nil
}

// CreateAppointment inserts an appointment and returns it with its ID. Seeding only.
func (s *Store) CreateAppointment(ctx context.Context, appt schedule.Appointment) (schedule.Appointment, error) {
	if err := s.ready(); err != nil {
		return schedule.Appointment{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO appointments (subject_identifier, schedule_name, visit_code, visit_code_sequence, timepoint, appt_datetime)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		appt.SubjectIdentifier, appt.ScheduleName, appt.VisitCode, appt.VisitCodeSequence, appt.Timepoint,
		toMillis(appt.ApptDatetime),
	)
	if err != nil {
		return schedule.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	if appt.ID, err = result.LastInsertId(); err != nil {
		return schedule.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	return appt, nil
}

// GetAppointment returns the appointment with the given ID.
func (s *Store) GetAppointment(ctx context.Context, id int64) (schedule.Appointment, error) {
	if err := s.ready(); err != nil {
		return schedule.Appointment{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)

	appt, err := scanAppointment(row)
	if err != nil {
		return schedule.Appointment{}, fmt.Errorf("appointment %d: %w", id, err)
	}

	return appt, nil
}

// LatestAppointmentBefore returns the latest main-sequence appointment before the given time
// on one of schedules.
func (s *Store) LatestAppointmentBefore(
	ctx context.Context, subject string, before time.Time, schedules []string,
) (schedule.Appointment, error) {
	if err := s.ready(); err != nil {
		return schedule.Appointment{}, err
	}

	if len(schedules) == 0 {
		return schedule.Appointment{}, storage.ErrNotFound
	}

	args := []any{subject, toMillis(before)}
	for _, name := range schedules {
		args = append(args, name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(schedules)), ", ")

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+`
		   FROM appointments
		  WHERE subject_identifier = ?
		    AND appt_datetime < ?
		    AND visit_code_sequence = 0
		    AND schedule_name IN (`+placeholders+`)
		  ORDER BY appt_datetime DESC
		  LIMIT 1`,
		args...,
	)

	return scanAppointment(row)
}

// PreviousByTimepoint returns the main-sequence appointment preceding appt on its schedule.
func (s *Store) PreviousByTimepoint(ctx context.Context, appt schedule.Appointment) (schedule.Appointment, error) {
	if err := s.ready(); err != nil {
		return schedule.Appointment{}, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+`
		   FROM appointments
		  WHERE subject_identifier = ?
		    AND schedule_name = ?
		    AND timepoint < ?
		    AND visit_code_sequence = 0
		  ORDER BY timepoint DESC
		  LIMIT 1`,
		appt.SubjectIdentifier, appt.ScheduleName, appt.Timepoint,
	)

	return scanAppointment(row)
}

func scanAppointment(row scanner) (schedule.Appointment, error) {
	var (
		appt schedule.Appointment
		at   int64
	)

	err := row.Scan(
		&appt.ID,
		&appt.SubjectIdentifier,
		&appt.ScheduleName,
		&appt.VisitCode,
		&appt.VisitCodeSequence,
		&appt.Timepoint,
		&at,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Appointment{}, storage.ErrNotFound
	}

	if err != nil {
		return schedule.Appointment{}, fmt.Errorf("scan appointment: %w", err)
	}

	appt.ApptDatetime = fromMillis(at)

	return appt, nil
}
