package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/flourishbhp/truecopy/internal/actionitem"
	"github.com/flourishbhp/truecopy/internal/storage"
)

// CreateUser registers a user.
func (s *Store) CreateUser(ctx context.Context, username string) error {
	return s.insertName(ctx, `INSERT INTO users (username) VALUES (?)`, username)
}

// CreateGroup registers a user group.
func (s *Store) CreateGroup(ctx context.Context, name string) error {
	return s.insertName(ctx, `INSERT INTO user_groups (name) VALUES (?)`, name)
}

// RegisterActionType registers an action type that action items can be raised for.
func (s *Store) RegisterActionType(ctx context.Context, name string) error {
	err := s.insertName(ctx, `INSERT INTO action_types (name) VALUES (?)`, name)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil
	}

	return err
}

func (s *Store) insertName(ctx context.Context, query, name string) error {
	if err := s.ready(); err != nil {
		return err
	}

	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, query, name); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("insert %q: %w", name, err)
	}

	return nil
}

// UserExists reports whether username is registered.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE username = ?`, username)
}

// UserInGroups reports whether the user belongs to any of groups.
func (s *Store) UserInGroups(ctx context.Context, username string, groups []string) (bool, error) {
	if len(groups) == 0 {
		return false, nil
	}

	args := []any{username}
	for _, g := range groups {
		args = append(args, g)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(groups)), ", ")

	return s.exists(ctx,
		`SELECT 1 FROM user_group_members WHERE username = ? AND group_name IN (`+placeholders+`) LIMIT 1`,
		args...)
}

// AddUserToGroups adds the user to each existing group in groups.
func (s *Store) AddUserToGroups(ctx context.Context, username string, groups []string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	added := 0

	for _, group := range groups {
		result, err := s.sqlDB.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_group_members (username, group_name)
			 SELECT ?, name FROM user_groups WHERE name = ?`,
			username, group,
		)
		if err != nil {
			return added, fmt.Errorf("add %q to %q: %w", username, group, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("add %q to %q: %w", username, group, err)
		}

		added += int(n)
	}

	return added, nil
}

// CreateDataActionItem inserts a data manager action item.
func (s *Store) CreateDataActionItem(ctx context.Context, item actionitem.DataActionItem) (actionitem.DataActionItem, error) {
	if err := s.ready(); err != nil {
		return actionitem.DataActionItem{}, err
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO data_action_items
		   (subject_identifier, user_created, status, action_priority, assigned, subject, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.SubjectIdentifier, item.UserCreated, item.Status, item.Priority, item.Assigned,
		item.Subject, item.Comment, toMillis(item.CreatedAt),
	)
	if err != nil {
		return actionitem.DataActionItem{}, fmt.Errorf("create data action item: %w", err)
	}

	if item.ID, err = result.LastInsertId(); err != nil {
		return actionitem.DataActionItem{}, fmt.Errorf("create data action item: %w", err)
	}

	return item, nil
}

// ListDataActionItems returns the data action items of subject in creation order.
func (s *Store) ListDataActionItems(ctx context.Context, subject string) ([]actionitem.DataActionItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, subject_identifier, user_created, status, action_priority, assigned, subject, comment, created_at
		   FROM data_action_items WHERE subject_identifier = ? ORDER BY id`, subject)
	if err != nil {
		return nil, fmt.Errorf("list data action items: %w", err)
	}
	defer rows.Close()

	var items []actionitem.DataActionItem

	for rows.Next() {
		var (
			item    actionitem.DataActionItem
			created int64
		)

		if err := rows.Scan(&item.ID, &item.SubjectIdentifier, &item.UserCreated, &item.Status, &item.Priority,
			&item.Assigned, &item.Subject, &item.Comment, &created); err != nil {
			return nil, fmt.Errorf("scan data action item: %w", err)
		}

		item.CreatedAt = fromMillis(created)
		items = append(items, item)
	}

	return items, rows.Err()
}

// FindActionItem returns the newest action item of the type for subject, restricted to statuses when given.
func (s *Store) FindActionItem(
	ctx context.Context, subject, actionType string, statuses ...string,
) (actionitem.ActionItem, error) {
	if err := s.ready(); err != nil {
		return actionitem.ActionItem{}, err
	}

	query := `SELECT id, subject_identifier, action_type, status, created_at
	            FROM action_items
	           WHERE subject_identifier = ? AND action_type = ?`
	args := []any{subject, actionType}

	if len(statuses) > 0 {
		query += ` AND status IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ") + `)`

		for _, status := range statuses {
			args = append(args, status)
		}
	}

	var (
		item    actionitem.ActionItem
		created int64
	)

	err := s.sqlDB.QueryRowContext(ctx, query+` ORDER BY id DESC LIMIT 1`, args...).
		Scan(&item.ID, &item.SubjectIdentifier, &item.ActionType, &item.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return actionitem.ActionItem{}, storage.ErrNotFound
	}

	if err != nil {
		return actionitem.ActionItem{}, fmt.Errorf("find action item: %w", err)
	}

	item.CreatedAt = fromMillis(created)

	return item, nil
}

// CreateActionItem inserts an action item of a registered type.
func (s *Store) CreateActionItem(ctx context.Context, item actionitem.ActionItem) (actionitem.ActionItem, error) {
	if err := s.ready(); err != nil {
		return actionitem.ActionItem{}, err
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO action_items (subject_identifier, action_type, status, created_at) VALUES (?, ?, ?, ?)`,
		item.SubjectIdentifier, item.ActionType, item.Status, toMillis(item.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return actionitem.ActionItem{}, fmt.Errorf("%w: %q", actionitem.ErrUnknownAction, item.ActionType)
		}

		return actionitem.ActionItem{}, fmt.Errorf("create action item: %w", err)
	}

	if item.ID, err = result.LastInsertId(); err != nil {
		return actionitem.ActionItem{}, fmt.Errorf("create action item: %w", err)
	}

	return item, nil
}

// UpdateActionItemStatus sets the status of an action item.
func (s *Store) UpdateActionItemStatus(ctx context.Context, id int64, status string) error {
	return s.affectOne(ctx, `UPDATE action_items SET status = ? WHERE id = ?`, status, id)
}

// DeleteActionItem removes an action item.
func (s *Store) DeleteActionItem(ctx context.Context, id int64) error {
	return s.affectOne(ctx, `DELETE FROM action_items WHERE id = ?`, id)
}

func (s *Store) affectOne(ctx context.Context, query string, args ...any) error {
	if err := s.ready(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update action item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update action item: %w", err)
	}

	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	var found int

	err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("query: %w", err)
	}

	return true, nil
}
