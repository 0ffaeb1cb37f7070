package actionitem_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flourishbhp/truecopy/internal/actionitem"
	"github.com/flourishbhp/truecopy/internal/storage"
	"github.com/flourishbhp/truecopy/internal/storage/sqlite"
)

const action = "submit-consent-copy"

type model bool

func (m model) Exists(context.Context, string) (bool, error) {
	return bool(m), nil
}

func setup(t *testing.T) (*sqlite.Store, *actionitem.Service) {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "truecopy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.RegisterActionType(ctx, action))
	require.NoError(t, store.CreateUser(ctx, "ra"))
	require.NoError(t, store.CreateGroup(ctx, "assignable users"))

	return store, actionitem.New(store, nil)
}

func TestTriggerCreatesWhenFormMissing(t *testing.T) {
	t.Parallel()

	store, svc := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Trigger(ctx, model(false), action, "C1", false))

	item, err := store.FindActionItem(ctx, "C1", action)
	require.NoError(t, err)
	assert.Equal(t, actionitem.StatusNew, item.Status)
}

func TestTriggerReopensExisting(t *testing.T) {
	t.Parallel()

	store, svc := setup(t)
	ctx := context.Background()

	created, err := store.CreateActionItem(ctx, actionitem.ActionItem{
		SubjectIdentifier: "C1", ActionType: action, Status: actionitem.StatusClosed,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Trigger(ctx, model(true), action, "C1", true))

	item, err := store.FindActionItem(ctx, "C1", action)
	require.NoError(t, err)
	assert.Equal(t, created.ID, item.ID)
	assert.Equal(t, actionitem.StatusOpen, item.Status)
}

func TestTriggerWithdrawsPendingWhenFormExists(t *testing.T) {
	t.Parallel()

	store, svc := setup(t)
	ctx := context.Background()

	_, err := store.CreateActionItem(ctx, actionitem.ActionItem{
		SubjectIdentifier: "C1", ActionType: action, Status: actionitem.StatusOpen,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Trigger(ctx, model(true), action, "C1", false))

	_, err = store.FindActionItem(ctx, "C1", action)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// nothing pending is not an error
	require.NoError(t, svc.Trigger(ctx, model(true), action, "C1", false))
}

func TestTriggerUnknownAction(t *testing.T) {
	t.Parallel()

	_, svc := setup(t)

	err := svc.Trigger(context.Background(), model(false), "no-such-action", "C1", false)
	assert.ErrorIs(t, err, actionitem.ErrUnknownAction)
}

func TestNotify(t *testing.T) {
	t.Parallel()

	store, svc := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "C1", "Consent copy rejected", "ra", nil, "stamp missing"))

	member, err := store.UserInGroups(ctx, "ra", actionitem.DefaultGroups)
	require.NoError(t, err)
	assert.True(t, member)

	items, err := store.ListDataActionItems(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, actionitem.StatusOpen, items[0].Status)
	assert.Equal(t, actionitem.PriorityHigh, items[0].Priority)
	assert.Equal(t, "ra", items[0].Assigned)
	assert.Equal(t, "stamp missing", items[0].Comment)
}

func TestNotifyIgnoresUnknownUsers(t *testing.T) {
	t.Parallel()

	store, svc := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "C1", "title", "", nil, ""))
	require.NoError(t, svc.Notify(ctx, "C1", "title", "ghost", nil, ""))

	items, err := store.ListDataActionItems(ctx, "C1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

type failingModel struct{}

func (failingModel) Exists(context.Context, string) (bool, error) {
	return false, errors.New("unavailable")
}

func TestTriggerModelError(t *testing.T) {
	t.Parallel()

	_, svc := setup(t)

	assert.Error(t, svc.Trigger(context.Background(), failingModel{}, action, "C1", false))
}
