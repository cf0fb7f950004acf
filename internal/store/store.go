package store

import (
	"context"

	"github.com/nhle/mail-agent/internal/model"
)

// RunFilter controls filtering and pagination for ledger queries.
type RunFilter struct {
	Status    *string
	MessageID *string
	Limit     int
	Offset    int
}

// Store is the persistence interface for the draft run ledger.
type Store interface {
	// RecordRun inserts one ledger entry.
	RecordRun(ctx context.Context, run model.DraftRun) error

	// ListRuns returns ledger entries, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.DraftRun, error)

	// HasDraftFor reports whether a draft was already created for the
	// given original Message-ID. Empty ids never match.
	HasDraftFor(ctx context.Context, messageID string) (bool, error)

	// Close releases the underlying resources.
	Close() error
}
