package logic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/flourishbhp/truecopy/internal/actionitem"
	"github.com/flourishbhp/truecopy/internal/config"
	"github.com/flourishbhp/truecopy/internal/consent"
	"github.com/flourishbhp/truecopy/internal/schedule"
	"github.com/flourishbhp/truecopy/internal/storage"
	"github.com/flourishbhp/truecopy/internal/storage/sqlite"
)

// RunConsent prints the consent details of a child participant.
func RunConsent(ctx context.Context, cfg *config.Config, child string) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	resolver := consent.NewResolver(env.store)

	caregiver, err := resolver.CaregiverIdentifier(ctx, child)
	if err != nil {
		return err
	}

	assent, err := resolver.Assent(ctx, child)
	if err != nil {
		return err
	}

	version, err := resolver.ConsentVersion(ctx, child)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd

	fmt.Fprintf(w, "Subject:\t%s\n", child)
	fmt.Fprintf(w, "Caregiver:\t%s\n", caregiver)

	if assent != nil {
		fmt.Fprintf(w, "Assent:\t%s\n", assent.AssentedAt.Format(time.DateOnly))
	} else {
		fmt.Fprintf(w, "Assent:\t-\n")
	}

	fmt.Fprintf(w, "Consent version:\t%s\n", version)

	return w.Flush()
}

// RunPreviousAppointment prints the appointment before the one with the given ID.
func RunPreviousAppointment(ctx context.Context, cfg *config.Config, id int64) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	appt, err := env.store.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	previous, err := schedule.NewLookup(env.store).PreviousAppointment(ctx, appt)
	if err != nil {
		return err
	}

	if previous == nil {
		fmt.Printf("Appointment %d has no previous appointment\n", id) //nolint:forbidigo

		return nil
	}

	fmt.Printf("%d\t%s\t%s.%d\t%s\n", //nolint:forbidigo
		previous.ID,
		previous.ScheduleName,
		previous.VisitCode,
		previous.VisitCodeSequence,
		previous.ApptDatetime.Format(time.RFC3339),
	)

	return nil
}

// RunTrigger raises or withdraws the action item of a subject depending on whether
// the subject has uploads.
func RunTrigger(ctx context.Context, cfg *config.Config, actionName, subject string, repeat bool) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	service := actionitem.New(env.store, env.logger)

	return service.Trigger(ctx, sqlite.SubjectUploads{Store: env.store}, actionName, subject, repeat)
}

// RunNotify assigns a data action item to a user.
func RunNotify(ctx context.Context, cfg *config.Config, subject, title, user string, groups []string, comment string) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	return actionitem.New(env.store, env.logger).Notify(ctx, subject, title, user, groups, comment)
}

// RunAddActionType registers action types that Trigger may raise.
func RunAddActionType(ctx context.Context, cfg *config.Config, names []string) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	for _, name := range names {
		if err := env.store.RegisterActionType(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

// RunAddUser creates a user that Notify may assign items to, optionally in groups.
func RunAddUser(ctx context.Context, cfg *config.Config, username string, groups []string) error {
	env, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.store.CreateUser(ctx, username); err != nil {
		return err
	}

	for _, group := range groups {
		if err := env.store.CreateGroup(ctx, group); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
	}

	if len(groups) == 0 {
		return nil
	}

	_, err = env.store.AddUserToGroups(ctx, username, groups)

	return err
}
