// Package actionitem raises and clears workflow action items for participants.
package actionitem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flourishbhp/truecopy/internal/storage"
)

// Action item statuses.
const (
	StatusNew    = "New"
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// PriorityHigh is the priority of data manager notifications.
const PriorityHigh = "high"

// DefaultGroups are the groups a notified user is placed in when they belong to none.
var DefaultGroups = []string{"assignable users"} //nolint:gochecknoglobals

// ErrUnknownAction is returned for action names without a registered action type.
var ErrUnknownAction = errors.New("unknown action type")

// ActionItem is a workflow task tracked for a participant.
type ActionItem struct {
	ID                int64
	SubjectIdentifier string
	ActionType        string
	Status            string
	CreatedAt         time.Time
}

// DataActionItem is a data manager task assigned to a user.
type DataActionItem struct {
	ID                int64
	SubjectIdentifier string
	UserCreated       string
	Status            string
	Priority          string
	Assigned          string
	Subject           string
	Comment           string
	CreatedAt         time.Time
}

// Store persists users, groups and action items.
type Store interface {
	UserExists(ctx context.Context, username string) (bool, error)
	UserInGroups(ctx context.Context, username string, groups []string) (bool, error)
	// AddUserToGroups adds the user to every listed group that exists and reports how many were added.
	AddUserToGroups(ctx context.Context, username string, groups []string) (int, error)
	CreateDataActionItem(ctx context.Context, item DataActionItem) (DataActionItem, error)

	// FindActionItem returns the action item of the type for the subject in one of statuses
	// (any status when none are given), or storage.ErrNotFound.
	FindActionItem(ctx context.Context, subject, actionType string, statuses ...string) (ActionItem, error)
	// CreateActionItem returns ErrUnknownAction when the action type is not registered.
	CreateActionItem(ctx context.Context, item ActionItem) (ActionItem, error)
	UpdateActionItemStatus(ctx context.Context, id int64, status string) error
	DeleteActionItem(ctx context.Context, id int64) error
}

// Model reports whether the form that an action item asks for already exists.
type Model interface {
	Exists(ctx context.Context, subject string) (bool, error)
}

// Service raises, reopens and clears action items.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New returns a Service backed by store.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: store, logger: logger}
}

// Notify assigns a high priority data action item to userCreated.
// Unknown or empty users are ignored. A user outside all of groups is added to each of them first.
func (s *Service) Notify(ctx context.Context, subject, title, userCreated string, groups []string, comment string) error {
	if userCreated == "" {
		return nil
	}

	if len(groups) == 0 {
		groups = DefaultGroups
	}

	exists, err := s.store.UserExists(ctx, userCreated)
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", userCreated, err)
	}

	if !exists {
		s.logger.DebugContext(ctx, "skipping notification for unknown user", "user", userCreated)

		return nil
	}

	member, err := s.store.UserInGroups(ctx, userCreated, groups)
	if err != nil {
		return fmt.Errorf("checking groups of %q: %w", userCreated, err)
	}

	if !member {
		added, err := s.store.AddUserToGroups(ctx, userCreated, groups)
		if err != nil {
			return fmt.Errorf("adding %q to groups: %w", userCreated, err)
		}

		s.logger.InfoContext(ctx, "added user to groups", "user", userCreated, "groups", added)
	}

	if _, err := s.store.CreateDataActionItem(ctx, DataActionItem{
		SubjectIdentifier: subject,
		UserCreated:       userCreated,
		Status:            StatusOpen,
		Priority:          PriorityHigh,
		Assigned:          userCreated,
		Subject:           title,
		Comment:           comment,
	}); err != nil {
		return fmt.Errorf("creating data action item: %w", err)
	}

	return nil
}

// Trigger raises the action while model has no form for subject, or always when repeat is set.
// Otherwise a pending item of that action is withdrawn.
func (s *Service) Trigger(ctx context.Context, model Model, actionName, subject string, repeat bool) error {
	exists, err := model.Exists(ctx, subject)
	if err != nil {
		return fmt.Errorf("checking form of %q: %w", subject, err)
	}

	if !exists || repeat {
		return s.raise(ctx, actionName, subject)
	}

	item, err := s.store.FindActionItem(ctx, subject, actionName, StatusNew, StatusOpen)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("looking up %s action item: %w", actionName, err)
	}

	if err := s.store.DeleteActionItem(ctx, item.ID); err != nil {
		return fmt.Errorf("deleting action item %d: %w", item.ID, err)
	}

	s.logger.InfoContext(ctx, "withdrew action item", "action", actionName, "subject", subject)

	return nil
}

func (s *Service) raise(ctx context.Context, actionName, subject string) error {
	item, err := s.store.FindActionItem(ctx, subject, actionName)
	if errors.Is(err, storage.ErrNotFound) {
		if _, err := s.store.CreateActionItem(ctx, ActionItem{
			SubjectIdentifier: subject,
			ActionType:        actionName,
			Status:            StatusNew,
		}); err != nil {
			return fmt.Errorf("creating %s action item: %w", actionName, err)
		}

		s.logger.InfoContext(ctx, "raised action item", "action", actionName, "subject", subject)

		return nil
	}

	if err != nil {
		return fmt.Errorf("looking up %s action item: %w", actionName, err)
	}

	if err := s.store.UpdateActionItemStatus(ctx, item.ID, StatusOpen); err != nil {
		return fmt.Errorf("reopening action item %d: %w", item.ID, err)
	}

	return nil
}
