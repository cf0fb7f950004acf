package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"

	"github.com/nhle/mail-agent/internal/model"
)

// DraftEnvelope is the derived reply to be committed. It exists only as
// input to building the outgoing message and is discarded once the append
// call returns.
type DraftEnvelope struct {
	// To is the resolved recipient address.
	To string

	// Subject carries exactly one leading "Re: " prefix.
	Subject string

	// Body is the response text with header-like lines stripped.
	Body string

	// InReplyTo and References are the threading header values; both
	// empty when the original message carried no Message-ID.
	InReplyTo  string
	References string
}

// draftsFolderCandidates are the mailbox names tried before falling back
// to a LIST scan. Gmail exposes its drafts under the [Gmail] namespace;
// most other providers use plain "Drafts".
var draftsFolderCandidates = []string{"[Gmail]/Drafts", "Drafts"}

var (
	angleAddrPattern   = regexp.MustCompile(`<([^>]+)>`)
	bareAddrPattern    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	subjectLinePattern = regexp.MustCompile(`(?i)subject:[ \t]*([^\n]+)`)
	headerLinePattern  = regexp.MustCompile(`(?i)^(subject|to|from|date):`)
)

// ResolveRecipient extracts the reply address from a sender string. An
// address inside angle brackets wins; otherwise the first bare address
// anywhere in the string; otherwise the raw sender string verbatim.
func ResolveRecipient(sender string) string {
	if m := angleAddrPattern.FindStringSubmatch(sender); m != nil {
		return m[1]
	}
	if m := bareAddrPattern.FindString(sender); m != "" {
		return m
	}
	return sender
}

// NormalizeSubject strips any existing leading "Re: "/"RE: "/"re: "
// prefixes (literal prefix trimming only) and prepends exactly one "Re: ".
func NormalizeSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		trimmed := false
		for _, prefix := range []string{"Re: ", "RE: ", "re: "} {
			if strings.HasPrefix(s, prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				trimmed = true
			}
		}
		if !trimmed {
			break
		}
	}
	return "Re: " + s
}

// resolveSubject picks the draft subject: a "Subject: <value>" line inside
// the response text wins, otherwise the original subject, then normalized.
func resolveSubject(responseText, originalSubject string) string {
	candidate := originalSubject
	if m := subjectLinePattern.FindStringSubmatch(responseText); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	return NormalizeSubject(candidate)
}

// cleanBody strips Subject:/To:/From:/Date: header-like lines from the
// response text and trims surrounding whitespace.
func cleanBody(responseText string) string {
	lines := strings.Split(responseText, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if headerLinePattern.MatchString(strings.TrimRight(line, "\r")) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// threadingReferences builds the outgoing References value: the original
// reference list, then the original In-Reply-To if not already present,
// then the original Message-ID if not already present. Presence is a
// substring match against the joined list.
func threadingReferences(references, inReplyTo, messageID string) string {
	parts := strings.Fields(references)

	if inReplyTo != "" && !strings.Contains(strings.Join(parts, " "), inReplyTo) {
		parts = append(parts, inReplyTo)
	}
	if messageID != "" && !strings.Contains(strings.Join(parts, " "), messageID) {
		parts = append(parts, messageID)
	}

	return strings.Join(parts, " ")
}

// BuildDraftEnvelope derives the reply envelope from free-form response
// text and the original message record. Threading headers are set only
// when the original carries a Message-ID.
func BuildDraftEnvelope(
	responseText string, original model.EmailRecord,
) DraftEnvelope {
	env := DraftEnvelope{
		To:      ResolveRecipient(original.Sender),
		Subject: resolveSubject(responseText, original.Subject),
		Body:    cleanBody(responseText),
	}

	if original.MessageID != "" {
		env.InReplyTo = original.MessageID
		env.References = threadingReferences(
			original.References, original.InReplyTo, original.MessageID,
		)
	}

	return env
}

// buildMessage renders the envelope as an RFC 5322 message: text/plain
// UTF-8 body, RFC 2047 encoded subject, threading headers when present.
func buildMessage(from string, env DraftEnvelope) ([]byte, error) {
	var buf bytes.Buffer

	var h gomail.Header
	h.SetDate(time.Now())
	h.Set("From", from)
	h.Set("To", env.To)
	h.SetSubject(env.Subject)
	if env.InReplyTo != "" {
		h.Set("In-Reply-To", env.InReplyTo)
	}
	if env.References != "" {
		h.Set("References", env.References)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	if _, err := io.WriteString(w, env.Body); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing message body: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}

	return buf.Bytes(), nil
}

// pickDraftsFolder scans mailbox names for the first case-insensitive
// "draft" match.
func pickDraftsFolder(names []string) (string, bool) {
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), "draft") {
			return name, true
		}
	}
	return "", false
}

// appendMessage appends a raw message to the named mailbox.
func appendMessage(
	client *imapclient.Client, mailbox string, raw []byte,
) error {
	cmd := client.Append(mailbox, int64(len(raw)), nil)
	if _, err := cmd.Write(raw); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("writing append literal to %q: %w", mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append to %q: %w", mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %q: %w", mailbox, err)
	}
	return nil
}

// CreateReplyDraft derives the reply envelope for the original message,
// builds the outgoing message, and appends it to the account's drafts
// mailbox. Folder naming varies across providers, so the append walks an
// ordered list of strategies: the Gmail-style name, the generic name, then
// a LIST scan for any folder containing "draft". Every run appends a new
// draft; there is no deduplication across identical inputs.
func (c *Client) CreateReplyDraft(
	ctx context.Context, responseText string, original model.EmailRecord,
) error {
	env := BuildDraftEnvelope(responseText, original)

	if original.MessageID == "" {
		slog.Warn("original message has no Message-ID; "+
			"reply threading may not work",
			"subject", original.Subject)
	}

	raw, err := buildMessage(c.cfg.Address, env)
	if err != nil {
		return err
	}

	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	attempted := make([]string, 0, len(draftsFolderCandidates)+1)
	for _, mbox := range draftsFolderCandidates {
		if err := appendMessage(client, mbox, raw); err == nil {
			return nil
		}
		attempted = append(attempted, mbox)
	}

	// Neither canonical name exists; ask the server what it has.
	boxes, err := client.List("", "*", nil).Collect()
	if err != nil {
		return fmt.Errorf("listing mailboxes: %w", err)
	}

	names := make([]string, 0, len(boxes))
	for _, b := range boxes {
		names = append(names, b.Mailbox)
	}

	folder, ok := pickDraftsFolder(names)
	if !ok {
		return &FolderNotFoundError{Attempted: attempted}
	}

	if err := appendMessage(client, folder, raw); err != nil {
		return fmt.Errorf("appending draft: %w", err)
	}

	return nil
}
