package mail

import (
	"bytes"
	"io"
	"strings"
	"testing"

	gomessage "github.com/emersion/go-message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-agent/internal/model"
)

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"plain", "Quarterly report", "Re: Quarterly report"},
		{"single prefix", "Re: Quarterly report", "Re: Quarterly report"},
		{"upper prefix", "RE: Quarterly report", "Re: Quarterly report"},
		{"lower prefix", "re: hello", "Re: hello"},
		{"stacked prefixes", "Re: RE: re: hello", "Re: hello"},
		{"surrounding whitespace", "  Re:  hi  ", "Re: hi"},
		{"empty", "", "Re: "},
		// Literal prefix trimming only: "Reorder" does not start with
		// "Re: ", so nothing is stripped.
		{"re without space", "Reorder needed", "Re: Reorder needed"},
		{"refund request", "REFUND REQUEST", "Re: REFUND REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSubject(tt.subject))
		})
	}
}

func TestResolveRecipient(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		want   string
	}{
		{"angle brackets", "Jane Doe <jane@example.com>", "jane@example.com"},
		{"brackets win over bare", "bob@spam.com <jane@example.com>", "jane@example.com"},
		{"bare address", "jane.doe@example.co.uk", "jane.doe@example.co.uk"},
		{"bare address in text", "reply to jane@example.com please", "jane@example.com"},
		{"no address", "Mailer Daemon", "Mailer Daemon"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRecipient(tt.sender))
		})
	}
}

func TestBuildDraftEnvelopeThreading(t *testing.T) {
	original := model.EmailRecord{
		Sender:     "Jane <jane@x>",
		Subject:    "hello",
		MessageID:  "<abc@x>",
		References: "<p1@x> <p2@x>",
		InReplyTo:  "<p2@x>",
	}

	env := BuildDraftEnvelope("Thanks, will do.", original)

	assert.Equal(t, "<abc@x>", env.InReplyTo)
	// <p2@x> is already present in the reference list and must not be
	// appended a second time.
	assert.Equal(t, "<p1@x> <p2@x> <abc@x>", env.References)
}

func TestBuildDraftEnvelopeNoMessageID(t *testing.T) {
	original := model.EmailRecord{
		Sender:    "Jane <jane@x>",
		Subject:   "hello",
		InReplyTo: "<p2@x>",
	}

	env := BuildDraftEnvelope("Thanks.", original)

	assert.Empty(t, env.InReplyTo)
	assert.Empty(t, env.References)
	assert.Equal(t, "Re: hello", env.Subject)
}

func TestBuildDraftEnvelopeUnreferencedParent(t *testing.T) {
	original := model.EmailRecord{
		Sender:    "Jane <jane@x>",
		Subject:   "hello",
		MessageID: "<abc@x>",
		InReplyTo: "<p9@x>",
	}

	env := BuildDraftEnvelope("ok", original)

	assert.Equal(t, "<p9@x> <abc@x>", env.References)
}

func TestBuildDraftEnvelopeSubjectFromResponse(t *testing.T) {
	original := model.EmailRecord{
		Sender:  "Jane <jane@x>",
		Subject: "original topic",
	}

	text := "Subject: Re: custom topic\n\nHi Jane,\n\nAll set.\n"
	env := BuildDraftEnvelope(text, original)

	assert.Equal(t, "Re: custom topic", env.Subject)
	assert.Equal(t, "Hi Jane,\n\nAll set.", env.Body)
}

func TestCleanBodyStripsHeaderLines(t *testing.T) {
	text := "Subject: something\nTo: a@b.c\nFrom: x@y.z\nDate: today\n\nHello there,\n\nregards\n"
	assert.Equal(t, "Hello there,\n\nregards", cleanBody(text))
}

func TestCleanBodyKeepsOrdinaryLines(t *testing.T) {
	text := "Dates for the meeting:\n- Monday\n- Tuesday"
	assert.Equal(t, text, cleanBody(text))
}

func TestPickDraftsFolder(t *testing.T) {
	tests := []struct {
		name    string
		folders []string
		want    string
		ok      bool
	}{
		{"custom name", []string{"INBOX", "Sent", "Custom Drafts"}, "Custom Drafts", true},
		{"lowercase", []string{"INBOX", "drafts"}, "drafts", true},
		{"namespaced", []string{"INBOX", "INBOX.Draftbox"}, "INBOX.Draftbox", true},
		{"none", []string{"INBOX", "Sent", "Trash"}, "", false},
		{"empty", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickDraftsFolder(tt.folders)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildMessage(t *testing.T) {
	env := DraftEnvelope{
		To:         "jane@example.com",
		Subject:    "Re: hello",
		Body:       "Hi Jane,\n\nAll set.",
		InReplyTo:  "<abc@x>",
		References: "<p1@x> <abc@x>",
	}

	raw, err := buildMessage("me@example.com", env)
	require.NoError(t, err)

	ent, err := gomessage.Read(bytes.NewReader(raw))
	require.NoError(t, err)

	h := ent.Header
	assert.Equal(t, "me@example.com", h.Get("From"))
	assert.Equal(t, "jane@example.com", h.Get("To"))
	assert.Equal(t, "Re: hello", h.Get("Subject"))
	assert.Equal(t, "<abc@x>", h.Get("In-Reply-To"))
	assert.Equal(t, "<p1@x> <abc@x>", h.Get("References"))
	assert.Contains(t, h.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(ent.Body)
	require.NoError(t, err)
	// The wire format carries CRLF line endings.
	normalized := strings.ReplaceAll(string(body), "\r\n", "\n")
	assert.Equal(t, "Hi Jane,\n\nAll set.", normalized)
}

func TestBuildMessageOmitsThreadingHeaders(t *testing.T) {
	env := DraftEnvelope{
		To:      "jane@example.com",
		Subject: "Re: hello",
		Body:    "ok",
	}

	raw, err := buildMessage("me@example.com", env)
	require.NoError(t, err)

	ent, err := gomessage.Read(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Empty(t, ent.Header.Get("In-Reply-To"))
	assert.Empty(t, ent.Header.Get("References"))
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	env := DraftEnvelope{
		To:      "jane@example.com",
		Subject: "Re: ありがとう",
		Body:    "ok",
	}

	raw, err := buildMessage("me@example.com", env)
	require.NoError(t, err)

	// The wire form of the header must stay ASCII.
	headerEnd := bytes.Index(raw, []byte("\r\n\r\n"))
	require.Greater(t, headerEnd, 0)
	assert.False(t, bytes.Contains(raw[:headerEnd], []byte("ありがとう")))

	ent, err := gomessage.Read(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := ent.Header.Text("Subject")
	require.NoError(t, err)
	assert.Equal(t, "Re: ありがとう", subject)
}
