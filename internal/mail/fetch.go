package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomessage "github.com/emersion/go-message"

	"github.com/nhle/mail-agent/internal/model"
)

// FetchEmails connects to IMAP, selects INBOX, and returns the limit most
// recent messages as normalized records, newest first. Connection, login,
// and search failures fail the whole call; a failure fetching or parsing
// one individual message drops that message from the result only.
func (c *Client) FetchEmails(
	ctx context.Context, limit int,
) ([]model.EmailRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("fetch limit must be >= 1, got %d", limit)
	}

	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	// SEARCH ALL; the server reports UIDs oldest first.
	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := newestFirst(searchData.AllUIDs(), limit)

	records := make([]model.EmailRecord, 0, len(uids))
	for _, uid := range uids {
		rec, err := c.fetchOne(client, uid)
		if err != nil {
			slog.Debug("skipping message",
				"uid", uid, "error", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// newestFirst reverses the server's oldest-first UID ordering and truncates
// to at most limit entries.
func newestFirst(uids []imap.UID, limit int) []imap.UID {
	reversed := make([]imap.UID, 0, len(uids))
	for i := len(uids) - 1; i >= 0; i-- {
		reversed = append(reversed, uids[i])
	}
	if limit > 0 && len(reversed) > limit {
		reversed = reversed[:limit]
	}
	return reversed
}

// fetchOne retrieves the full RFC 822 content of a single message and
// parses it into a record.
func (c *Client) fetchOne(
	client *imapclient.Client, uid imap.UID,
) (model.EmailRecord, error) {
	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uid), fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return model.EmailRecord{}, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return model.EmailRecord{}, fmt.Errorf("collecting message data: %w", err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return model.EmailRecord{}, fmt.Errorf("message UID %d has no body section", uid)
	}

	rec, err := parseRecord(raw)
	if err != nil {
		return model.EmailRecord{}, err
	}
	rec.UID = uid

	if err := fetchCmd.Close(); err != nil {
		return rec, fmt.Errorf("closing fetch: %w", err)
	}

	return rec, nil
}

// parseRecord normalizes a raw RFC 822 message into an EmailRecord.
// Header values are decoded from MIME encoded-word form; an unknown
// charset is tolerated rather than fatal.
func parseRecord(raw []byte) (model.EmailRecord, error) {
	ent, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !gomessage.IsUnknownCharset(err) {
		return model.EmailRecord{}, fmt.Errorf("parsing message: %w", err)
	}

	h := ent.Header

	return model.EmailRecord{
		Sender:     decodeHeader(h.Get("From")),
		Subject:    decodeHeader(h.Get("Subject")),
		Date:       h.Get("Date"),
		MessageID:  strings.TrimSpace(h.Get("Message-Id")),
		References: strings.TrimSpace(h.Get("References")),
		InReplyTo:  strings.TrimSpace(h.Get("In-Reply-To")),
		Body:       extractPlainBody(raw),
	}, nil
}
