package connectors

import (
	"bytes"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"pricecatalog/internal"
)

// MessageFromRaw fills a FetchedMailMessage from the headers of a raw RFC 822
// message. fallbackID is used when the message carries no Message-ID.
func MessageFromRaw(provider, fallbackID string, raw []byte, received time.Time) (internal.FetchedMailMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.FetchedMailMessage{}, err
	}

	messageID := strings.TrimSpace(env.GetHeader("Message-ID"))
	if messageID == "" {
		messageID = fallbackID
	}

	return internal.FetchedMailMessage{
		Provider:   provider,
		MessageID:  messageID,
		Subject:    env.GetHeader("Subject"),
		From:       env.GetHeader("From"),
		ReceivedAt: received.UTC().Format(time.RFC3339),
		Raw:        raw,
	}, nil
}
