package internal

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const DefaultUnit = "st"

// PriceItem is one normalized catalog entry. Identifier is either a real
// catalog code (EM number) or a synthesized NAME:<name> key.
type PriceItem struct {
	Identifier  string          `json:"emNr"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	SourceSheet string          `json:"sourceSheet"`
}

// MarshalJSON writes the price as a JSON number with the exact decimal
// digits.
func (p PriceItem) MarshalJSON() ([]byte, error) {
	type plain PriceItem
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(p), json.Number(p.Price.String())})
}

type ExtractPath string

const (
	PathStructured ExtractPath = "structured"
	PathKeyword    ExtractPath = "keyword_header"
	PathHeuristic  ExtractPath = "heuristic"
	PathEmpty      ExtractPath = "empty"
)

// SheetStats describes how one sheet was ingested.
type SheetStats struct {
	Sheet     string      `json:"sheet"`
	Path      ExtractPath `json:"path"`
	HeaderRow int         `json:"headerRow"`
	Rows      int         `json:"rows"`
	Extracted int         `json:"extracted"`
	Added     int         `json:"added"`
	Replaced  int         `json:"replaced"`
	Kept      int         `json:"kept"`
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// IntakeRow is a price-list attachment received by mail.
type IntakeRow struct {
	ID         int
	Provider   string
	MessageID  string
	Filename   string
	ReceivedAt string
	Hash       string
	Path       string
	Status     string
}

type ReloadRow struct {
	ID         int
	TraceID    string
	Source     string
	Status     string
	Error      *string
	Extracted  int
	Items      int
	DurationMs float64
	SheetsJSON string
	CreatedAt  string
}

// MailQuery selects unseen messages in Label whose subject contains
// Subject. Max caps the number of messages fetched.
type MailQuery struct {
	Label   string
	Subject string
	Max     int
}
