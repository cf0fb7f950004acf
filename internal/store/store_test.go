package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/store"
	"github.com/nhle/mail-agent/tests/testutil"
)

func newRun(messageID, status string) model.DraftRun {
	return model.DraftRun{
		ID:        uuid.NewString(),
		MessageID: messageID,
		Subject:   "hello",
		Recipient: "jane@example.com",
		Status:    status,
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, newRun("<a@x>", model.RunStatusCreated)))
	require.NoError(t, s.RecordRun(ctx, newRun("<b@x>", model.RunStatusFailed)))

	runs, err := s.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	failed := model.RunStatusFailed
	runs, err = s.ListRuns(ctx, store.RunFilter{Status: &failed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "<b@x>", runs[0].MessageID)
}

func TestListRunsByMessageID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, newRun("<a@x>", model.RunStatusCreated)))
	require.NoError(t, s.RecordRun(ctx, newRun("<a@x>", model.RunStatusCreated)))
	require.NoError(t, s.RecordRun(ctx, newRun("<b@x>", model.RunStatusCreated)))

	id := "<a@x>"
	runs, err := s.ListRuns(ctx, store.RunFilter{MessageID: &id})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestHasDraftFor(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, newRun("<a@x>", model.RunStatusCreated)))
	require.NoError(t, s.RecordRun(ctx, newRun("<b@x>", model.RunStatusFailed)))

	ok, err := s.HasDraftFor(ctx, "<a@x>")
	require.NoError(t, err)
	assert.True(t, ok)

	// Failed runs don't count as an existing draft.
	ok, err = s.HasDraftFor(ctx, "<b@x>")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasDraftFor(ctx, "<missing@x>")
	require.NoError(t, err)
	assert.False(t, ok)

	// Empty Message-IDs never match, even if rows with empty ids exist.
	require.NoError(t, s.RecordRun(ctx, newRun("", model.RunStatusCreated)))
	ok, err = s.HasDraftFor(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRunsLimit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRun(ctx, newRun("<a@x>", model.RunStatusCreated)))
	}

	runs, err := s.ListRuns(ctx, store.RunFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
