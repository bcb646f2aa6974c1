package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"pricecatalog/internal"
	"pricecatalog/internal/config"
	"pricecatalog/internal/connectors"
)

type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	markSeen bool
}

func NewConnector(cfg config.Config) (*Connector, error) {
	for _, req := range []struct{ name, value string }{
		{"IMAP_HOST", cfg.IMAPHost},
		{"IMAP_USER", cfg.IMAPUser},
		{"IMAP_PASSWORD", cfg.IMAPPassword},
	} {
		if err := cfg.Require(req.name, req.value); err != nil {
			return nil, err
		}
	}

	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
	}, nil
}

// FetchInbox returns unseen messages of query.Label that carry a price-list
// attachment, newest query.Max of them. Messages are screened on their body
// structure first; only matching ones are downloaded and marked seen.
func (c *Connector) FetchInbox(ctx context.Context, query internal.MailQuery) ([]internal.FetchedMailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer client.Logout()

	if _, err := client.Select(query.Label, false); err != nil {
		return nil, err
	}

	uids, err := client.UidSearch(searchCriteria(query))
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}

	uids, err = priceListUIDs(client, uids)
	if err != nil {
		return nil, err
	}
	if query.Max > 0 && len(uids) > query.Max {
		uids = uids[len(uids)-query.Max:]
	}
	if len(uids) == 0 || ctx.Err() != nil {
		return nil, ctx.Err()
	}

	out, err := fetchMessages(client, uids)
	if err != nil {
		return nil, err
	}

	if c.markSeen && len(out) > 0 {
		seen := new(imap.SeqSet)
		seen.AddNum(uids...)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := client.UidStore(seen, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Connector) dial() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.Dial(addr)
	}
	if err != nil {
		return nil, err
	}
	if err := client.Login(c.user, c.password); err != nil {
		client.Logout()
		return nil, err
	}
	return client, nil
}

// priceListUIDs keeps the uids whose body structure names a spreadsheet
// attachment, in ascending order.
func priceListUIDs(client *imapclient.Client, uids []uint32) ([]uint32, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- client.UidFetch(seqset, []imap.FetchItem{imap.FetchUid, imap.FetchBodyStructure}, messages)
	}()

	keep := map[uint32]bool{}
	for msg := range messages {
		if msg != nil && hasPriceList(msg.BodyStructure) {
			keep[msg.Uid] = true
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}

	out := make([]uint32, 0, len(keep))
	for _, uid := range uids {
		if keep[uid] {
			out = append(out, uid)
		}
	}
	return out, nil
}

func fetchMessages(client *imapclient.Client, uids []uint32) ([]internal.FetchedMailMessage, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- client.UidFetch(seqset, items, messages) }()

	out := make([]internal.FetchedMailMessage, 0, len(uids))
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			readErr = err
			continue
		}
		out = append(out, fetchedMessage(msg, raw))
	}
	if err := <-done; err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}
	return out, nil
}

func fetchedMessage(msg *imap.Message, raw []byte) internal.FetchedMailMessage {
	fetched := internal.FetchedMailMessage{
		Provider:   "imap",
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if msg.Envelope != nil {
		fetched.MessageID = msg.Envelope.MessageId
		fetched.Subject = msg.Envelope.Subject
		fetched.From = formatAddresses(msg.Envelope.From)
	}
	if fetched.MessageID == "" {
		fetched.MessageID = fmt.Sprintf("imap-%d", msg.Uid)
	}
	if !msg.InternalDate.IsZero() {
		fetched.ReceivedAt = msg.InternalDate.UTC().Format(time.RFC3339)
	}
	return fetched
}

// hasPriceList walks a body structure looking for a part whose filename has
// a spreadsheet extension.
func hasPriceList(bs *imap.BodyStructure) bool {
	if bs == nil {
		return false
	}
	found := false
	bs.Walk(func(_ []int, part *imap.BodyStructure) bool {
		if found {
			return false
		}
		if name, _ := part.Filename(); connectors.IsPriceListFile(name) {
			found = true
		}
		return !found
	})
	return found
}

// searchCriteria matches unseen messages, narrowed by subject when set.
func searchCriteria(query internal.MailQuery) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	if subject := strings.TrimSpace(query.Subject); subject != "" {
		criteria.Header.Add("Subject", subject)
	}
	return criteria
}

func formatAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(strings.Join([]string{a.MailboxName, a.HostName}, "@"), "@")
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
