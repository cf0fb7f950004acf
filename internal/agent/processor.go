package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nhle/mail-agent/internal/mail"
	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/pipeline"
	"github.com/nhle/mail-agent/internal/store"
)

// Mailer is the mailbox surface the processor needs: ingestion and
// draft commit.
type Mailer interface {
	FetchEmails(ctx context.Context, limit int) ([]model.EmailRecord, error)
	CreateReplyDraft(
		ctx context.Context, responseText string, original model.EmailRecord,
	) error
}

// Generator produces response text for one email's formatted context.
type Generator interface {
	Run(ctx context.Context, seed string) (string, error)
}

// Summary reports the outcome of one processing run.
type Summary struct {
	Fetched int
	Created int
	Skipped int
	Failed  int
}

// Processor drives the fetch -> generate -> draft loop. It is strictly
// sequential: one email at a time, one draft commit per email, no shared
// state between runs.
type Processor struct {
	mail   Mailer
	chain  Generator
	ledger store.Store
	dryRun bool
}

// New creates a processor.
func New(m Mailer, chain Generator, ledger store.Store, dryRun bool) *Processor {
	return &Processor{
		mail:   m,
		chain:  chain,
		ledger: ledger,
		dryRun: dryRun,
	}
}

// Run fetches the limit most recent emails and processes each in turn.
// A failure while fetching the batch fails the run; a failure processing
// one email records it in the ledger and continues with the next.
func (p *Processor) Run(ctx context.Context, limit int) (Summary, error) {
	var sum Summary

	records, err := p.mail.FetchEmails(ctx, limit)
	if err != nil {
		return sum, fmt.Errorf("fetching emails: %w", err)
	}
	sum.Fetched = len(records)

	if len(records) == 0 {
		slog.Info("no emails to process")
		return sum, nil
	}

	for i, rec := range records {
		slog.Info("processing email",
			"index", i+1,
			"total", len(records),
			"from", rec.Sender,
			"subject", rec.Subject)

		switch err := p.processOne(ctx, rec); {
		case err == nil:
			if p.dryRun {
				sum.Skipped++
			} else {
				sum.Created++
			}
		case errors.Is(err, errAlreadyDrafted):
			slog.Info("draft already exists, skipping",
				"message_id", rec.MessageID)
			sum.Skipped++
		default:
			slog.Error("processing email failed",
				"subject", rec.Subject, "error", err)
			sum.Failed++
		}
	}

	return sum, nil
}

// errAlreadyDrafted marks an email skipped because the ledger already has
// a created draft for its Message-ID.
var errAlreadyDrafted = errors.New("draft already created")

// processOne runs the pipeline for a single email and commits the draft.
// Note that the skip is a courtesy for repeated runs, keyed on the ledger:
// the draft commit itself never deduplicates, so two processors pointed at
// separate ledgers will produce two independent drafts.
func (p *Processor) processOne(ctx context.Context, rec model.EmailRecord) error {
	if p.ledger != nil && rec.MessageID != "" {
		exists, err := p.ledger.HasDraftFor(ctx, rec.MessageID)
		if err != nil {
			return fmt.Errorf("checking ledger: %w", err)
		}
		if exists {
			return errAlreadyDrafted
		}
	}

	responseText, err := p.chain.Run(ctx, pipeline.FormatEmail(rec))
	if err != nil {
		p.record(ctx, rec, model.RunStatusFailed, err)
		return fmt.Errorf("generating response: %w", err)
	}

	if p.dryRun {
		slog.Info("dry run, draft not committed",
			"subject", rec.Subject,
			"draft", responseText)
		return nil
	}

	if err := p.mail.CreateReplyDraft(ctx, responseText, rec); err != nil {
		p.record(ctx, rec, model.RunStatusFailed, err)
		return fmt.Errorf("creating draft: %w", err)
	}

	p.record(ctx, rec, model.RunStatusCreated, nil)
	return nil
}

// record writes one ledger entry; ledger errors are logged, not fatal.
func (p *Processor) record(
	ctx context.Context, rec model.EmailRecord, status string, runErr error,
) {
	if p.ledger == nil {
		return
	}

	run := model.DraftRun{
		ID:        uuid.NewString(),
		MessageID: rec.MessageID,
		Subject:   rec.Subject,
		Recipient: mail.ResolveRecipient(rec.Sender),
		Status:    status,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := p.ledger.RecordRun(ctx, run); err != nil {
		slog.Error("recording run failed",
			"message_id", rec.MessageID, "error", err)
	}
}
