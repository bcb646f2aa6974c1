package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"pricecatalog/internal"
	"pricecatalog/internal/config"
	"pricecatalog/internal/connectors"
)

type Connector struct {
	service *gmail.Service
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	for _, req := range [][2]string{
		{"GMAIL_CLIENT_ID", cfg.GmailClientID},
		{"GMAIL_CLIENT_SECRET", cfg.GmailClientSecret},
		{"GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken},
	} {
		if err := cfg.Require(req[0], req[1]); err != nil {
			return nil, err
		}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Connector{service: svc}, nil
}

// FetchInbox lists unread messages with attachments and downloads each one
// in raw RFC 822 form. Headers are read from the raw message itself.
func (c *Connector) FetchInbox(ctx context.Context, query internal.MailQuery) ([]internal.FetchedMailMessage, error) {
	listCall := c.service.Users.Messages.List("me").Q(searchQuery(query)).Context(ctx)
	if label := strings.TrimSpace(query.Label); label != "" {
		listCall = listCall.LabelIds(label)
	}
	if query.Max > 0 {
		listCall = listCall.MaxResults(int64(query.Max))
	}
	listResp, err := listCall.Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", ref.Id, err)
		}
		if msg.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(msg.Raw)
		if err != nil {
			return nil, err
		}

		received := time.Now().UTC()
		if msg.InternalDate > 0 {
			received = time.UnixMilli(msg.InternalDate).UTC()
		}
		fetched, err := connectors.MessageFromRaw("gmail", ref.Id, raw, received)
		if err != nil {
			return nil, err
		}
		out = append(out, fetched)
	}

	return out, nil
}

// searchQuery builds a Gmail search expression limited to unread mail with
// attachments.
func searchQuery(query internal.MailQuery) string {
	parts := []string{"is:unread", "has:attachment"}
	if subject := strings.TrimSpace(query.Subject); subject != "" {
		parts = append(parts, fmt.Sprintf("subject:(%s)", subject))
	}
	return strings.Join(parts, " ")
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
