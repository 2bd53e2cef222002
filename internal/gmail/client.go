package gmail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vipul43/label-mirror/internal/repository"
	"github.com/vipul43/label-mirror/internal/service"
)

// userID addresses the authenticated user in every Gmail API call
const userID = "me"

// metadataHeaders are the only headers requested per message
var metadataHeaders = []string{"Subject", "From"}

type Client struct {
	config   *oauth2.Config
	accounts AccountStore
	limiter  *rate.Limiter
	endpoint string // Optional: overrides the Gmail API base URL
	log      logrus.FieldLogger
}

func NewClient(clientID, clientSecret, redirectURL string, accounts AccountStore, limiter *rate.Limiter, log logrus.FieldLogger) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Client{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailReadonlyScope},
		},
		accounts: accounts,
		limiter:  limiter,
		log:      log.WithField("component", "gmail"),
	}
}

// SetEndpoint points the client at a different Gmail API base URL
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// AuthCodeURL returns the consent page URL requesting offline access
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and stores them
func (c *Client) Exchange(ctx context.Context, code string) error {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	if err := c.accounts.SaveTokens(ctx, accountFromToken(token)); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}

	c.log.WithField("expires_at", token.Expiry).Info("Tokens acquired")
	return nil
}

// ListMessageIDs lists up to pageSize ids of messages carrying labelID.
// Unknown labels yield an empty list.
func (c *Client) ListMessageIDs(ctx context.Context, labelID string, pageSize int) ([]string, error) {
	gmailService, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate wait canceled: %w", err)
	}
	listResp, err := gmailService.Users.Messages.List(userID).
		LabelIds(labelID).
		MaxResults(int64(pageSize)).
		Context(ctx).
		Do()
	if err != nil {
		if isUnknownLabel(err) {
			c.log.WithField("label", labelID).Warn("Label not found, treating as empty")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	c.log.WithFields(logrus.Fields{"label": labelID, "count": len(listResp.Messages)}).Debug("Gmail API returned message IDs")

	messageIDs := make([]string, 0, len(listResp.Messages))
	for _, msg := range listResp.Messages {
		messageIDs = append(messageIDs, msg.Id)
	}
	return messageIDs, nil
}

// FetchMessage fetches a single message's metadata by its Gmail message ID
func (c *Client) FetchMessage(ctx context.Context, messageID string) (*service.RemoteMessage, error) {
	gmailService, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate wait canceled: %w", err)
	}
	msg, err := gmailService.Users.Messages.Get(userID, messageID).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return parseMessage(msg), nil
}

// ListLabels lists every label of the mailbox
func (c *Client) ListLabels(ctx context.Context) ([]service.RemoteLabel, error) {
	gmailService, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate wait canceled: %w", err)
	}
	resp, err := gmailService.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]service.RemoteLabel, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, service.RemoteLabel{ID: l.Id, Name: l.Name, Type: l.Type})
	}
	return labels, nil
}

// service builds a Gmail service authorized with the stored tokens
func (c *Client) service(ctx context.Context) (*gmail.Service, error) {
	account, err := c.accounts.GetByID(ctx, accountKey)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, service.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	opts := []option.ClientOption{option.WithTokenSource(c.tokenSource(ctx, tokenFromAccount(account)))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	gmailService, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return gmailService, nil
}

// parseMessage maps a Gmail message onto the provider-neutral record
func parseMessage(msg *gmail.Message) *service.RemoteMessage {
	remote := &service.RemoteMessage{
		ID:             msg.Id,
		Snippet:        msg.Snippet,
		InternalDateMs: msg.InternalDate,
		LabelIDs:       msg.LabelIds,
	}
	if msg.Payload == nil {
		return remote
	}

	remote.Payload = &service.MessagePayload{Headers: make([]service.Header, 0, len(msg.Payload.Headers))}
	for _, header := range msg.Payload.Headers {
		remote.Payload.Headers = append(remote.Payload.Headers, service.Header{Name: header.Name, Value: header.Value})
	}
	return remote
}
