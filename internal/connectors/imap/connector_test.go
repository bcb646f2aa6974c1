package imap

import (
	"testing"

	"github.com/emersion/go-imap"

	"pricecatalog/internal"
)

func TestSearchCriteria(t *testing.T) {
	c := searchCriteria(internal.MailQuery{Subject: " Prislista "})
	if len(c.WithoutFlags) != 1 || c.WithoutFlags[0] != imap.SeenFlag {
		t.Fatalf("flags=%v", c.WithoutFlags)
	}
	if got := c.Header.Get("Subject"); got != "Prislista" {
		t.Fatalf("subject=%q", got)
	}

	if c := searchCriteria(internal.MailQuery{}); len(c.Header) != 0 {
		t.Fatalf("header=%v", c.Header)
	}
}

func TestFormatAddresses(t *testing.T) {
	got := formatAddresses([]*imap.Address{
		{PersonalName: "Leverantör AB", MailboxName: "pris", HostName: "example.test"},
		nil,
		{MailboxName: "inkop", HostName: "example.test"},
	})
	want := "Leverantör AB <pris@example.test>, inkop@example.test"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if formatAddresses(nil) != "" {
		t.Fatal("expected empty")
	}
}

func TestHasPriceList(t *testing.T) {
	attachment := func(name string) *imap.BodyStructure {
		return &imap.BodyStructure{
			MIMEType:          "application",
			MIMESubType:       "octet-stream",
			Disposition:       "attachment",
			DispositionParams: map[string]string{"filename": name},
		}
	}
	text := &imap.BodyStructure{MIMEType: "text", MIMESubType: "plain"}

	tests := []struct {
		name string
		bs   *imap.BodyStructure
		want bool
	}{
		{name: "nil", bs: nil, want: false},
		{name: "plain text only", bs: text, want: false},
		{name: "spreadsheet attachment", bs: &imap.BodyStructure{MIMEType: "multipart", MIMESubType: "mixed", Parts: []*imap.BodyStructure{text, attachment("Prislista 2024.XLSX")}}, want: true},
		{name: "pdf attachment", bs: &imap.BodyStructure{MIMEType: "multipart", MIMESubType: "mixed", Parts: []*imap.BodyStructure{text, attachment("offert.pdf")}}, want: false},
		{name: "nested html export", bs: &imap.BodyStructure{MIMEType: "multipart", MIMESubType: "mixed", Parts: []*imap.BodyStructure{
			{MIMEType: "multipart", MIMESubType: "alternative", Parts: []*imap.BodyStructure{text}},
			{MIMEType: "multipart", MIMESubType: "mixed", Parts: []*imap.BodyStructure{attachment("export.xls")}},
		}}, want: true},
		{name: "name in content type", bs: &imap.BodyStructure{MIMEType: "application", MIMESubType: "vnd.ms-excel", Params: map[string]string{"name": "lista.xls"}}, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasPriceList(tc.bs); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
