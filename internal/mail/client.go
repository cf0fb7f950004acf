package mail

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/mail-agent/internal/model"
)

// Client wraps go-imap v2 for fetching inbox messages and committing reply
// drafts. Each public operation opens its own IMAP session and closes it
// before returning; sessions are never pooled or shared across calls.
type Client struct {
	cfg      model.MailConfig
	password string
}

// NewClient creates a new mail client from the account configuration and
// the separately-supplied password.
func NewClient(cfg model.MailConfig, password string) *Client {
	return &Client{
		cfg:      cfg,
		password: password,
	}
}

// connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *Client) connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.cfg.Host + ":" + strconv.Itoa(c.cfg.Port)

	var client *imapclient.Client
	var err error

	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Address, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Account: c.cfg.Address,
			Message: fmt.Sprintf("authentication failed: %v", err),
		}
	}

	return client, nil
}

// ValidateConnection verifies credentials by connecting, authenticating,
// and selecting INBOX. Returns the account address on success.
func (c *Client) ValidateConnection(ctx context.Context) (string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating mail connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting INBOX: %w", err)
	}

	return c.cfg.Address, nil
}
