package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-agent/internal/agent"
	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/store"
	"github.com/nhle/mail-agent/tests/testutil"
)

// fakeMailer serves scripted records and captures created drafts.
type fakeMailer struct {
	records  []model.EmailRecord
	fetchErr error
	draftErr error
	drafts   []string
}

func (f *fakeMailer) FetchEmails(
	_ context.Context, limit int,
) ([]model.EmailRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeMailer) CreateReplyDraft(
	_ context.Context, responseText string, _ model.EmailRecord,
) error {
	if f.draftErr != nil {
		return f.draftErr
	}
	f.drafts = append(f.drafts, responseText)
	return nil
}

// fixedGenerator returns a constant response.
type fixedGenerator struct {
	out string
	err error
}

func (g fixedGenerator) Run(context.Context, string) (string, error) {
	return g.out, g.err
}

func record(id, subject string) model.EmailRecord {
	return model.EmailRecord{
		Sender:    "Jane <jane@x>",
		Subject:   subject,
		MessageID: id,
	}
}

func TestProcessorCreatesDrafts(t *testing.T) {
	ledger := testutil.NewTestStore(t)
	mailer := &fakeMailer{records: []model.EmailRecord{
		record("<a@x>", "one"),
		record("<b@x>", "two"),
	}}

	p := agent.New(mailer, fixedGenerator{out: "Dear Jane"}, ledger, false)

	sum, err := p.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Fetched)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 0, sum.Failed)
	assert.Len(t, mailer.drafts, 2)

	runs, err := ledger.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.RunStatusCreated, runs[0].Status)
	assert.Equal(t, "jane@x", runs[0].Recipient)
}

func TestProcessorSkipsAlreadyDrafted(t *testing.T) {
	ledger := testutil.NewTestStore(t)
	mailer := &fakeMailer{records: []model.EmailRecord{record("<a@x>", "one")}}

	p := agent.New(mailer, fixedGenerator{out: "draft"}, ledger, false)

	sum, err := p.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)

	// Second run over the same message is skipped via the ledger.
	sum, err = p.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Len(t, mailer.drafts, 1)
}

func TestProcessorContinuesAfterDraftFailure(t *testing.T) {
	ledger := testutil.NewTestStore(t)
	mailer := &fakeMailer{
		records:  []model.EmailRecord{record("<a@x>", "one"), record("<b@x>", "two")},
		draftErr: errors.New("append refused"),
	}

	p := agent.New(mailer, fixedGenerator{out: "draft"}, ledger, false)

	sum, err := p.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 0, sum.Created)

	failed := model.RunStatusFailed
	runs, err := ledger.ListRuns(context.Background(), store.RunFilter{Status: &failed})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestProcessorFetchFailureIsFatal(t *testing.T) {
	mailer := &fakeMailer{fetchErr: errors.New("login failed")}

	p := agent.New(mailer, fixedGenerator{out: "x"}, nil, false)

	_, err := p.Run(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching emails")
}

func TestProcessorDryRunCommitsNothing(t *testing.T) {
	ledger := testutil.NewTestStore(t)
	mailer := &fakeMailer{records: []model.EmailRecord{record("<a@x>", "one")}}

	p := agent.New(mailer, fixedGenerator{out: "draft"}, ledger, true)

	sum, err := p.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, mailer.drafts)

	runs, err := ledger.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
