package connectors

import (
	"context"

	"pricecatalog/internal"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, query internal.MailQuery) ([]internal.FetchedMailMessage, error)
}
