package model

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// EmailRecord is the normalized form of one fetched message. Ingestion
// constructs it once per fetch; downstream consumers treat it as read-only.
type EmailRecord struct {
	// Sender is the decoded display-name + address string from the
	// From header (e.g. `Jane Doe <jane@example.com>`).
	Sender string `json:"sender"`

	// Subject is the decoded Subject header; empty if absent.
	Subject string `json:"subject"`

	// Date is the raw Date header value, unparsed.
	Date string `json:"date"`

	// MessageID is the Message-ID assigned by the originating mail
	// system; empty if the header is missing.
	MessageID string `json:"message_id"`

	// References is the raw space-separated ancestor id list; may be empty.
	References string `json:"references"`

	// InReplyTo is the parent message id; may be empty.
	InReplyTo string `json:"in_reply_to"`

	// Body is the decoded plain-text content. Always a string: messages
	// with no text/plain part yield "", and decode failures degrade to
	// best-effort text rather than an error.
	Body string `json:"body"`

	// UID is the message's IMAP UID in the selected mailbox.
	UID imap.UID `json:"uid"`
}

// Draft run status values recorded in the ledger.
const (
	RunStatusCreated = "created"
	RunStatusFailed  = "failed"
	RunStatusSkipped = "skipped"
)

// DraftRun is one ledger entry: the outcome of processing a single email
// through the pipeline and draft commit.
type DraftRun struct {
	// ID is the internal unique identifier for this run.
	ID string `json:"id"`

	// MessageID is the Message-ID of the original email; may be empty
	// when the original carried none.
	MessageID string `json:"message_id"`

	// Subject is the original email's decoded subject.
	Subject string `json:"subject"`

	// Recipient is the resolved reply recipient address.
	Recipient string `json:"recipient"`

	// Status is one of the RunStatus* constants.
	Status string `json:"status"`

	// Error holds the failure message when Status is "failed".
	Error string `json:"error"`

	// CreatedAt is when this run was recorded.
	CreatedAt time.Time `json:"created_at"`
}
