package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrSourceMissing means the price-list resource does not exist.
	ErrSourceMissing = errors.New("price list source not found")
	// ErrFormatUnreadable means no supported reader accepted the resource.
	ErrFormatUnreadable = errors.New("price list format unreadable")
)

// Open decodes a resource, trying xlsx first, then the legacy xls format,
// then an HTML table export.
func Open(blob []byte) (*Workbook, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty resource", ErrFormatUnreadable)
	}

	wb, xlsxErr := readXLSX(blob)
	if xlsxErr == nil {
		return wb, nil
	}
	wb, xlsErr := readXLS(blob)
	if xlsErr == nil {
		return wb, nil
	}
	wb, htmlErr := readHTML(blob)
	if htmlErr == nil {
		return wb, nil
	}

	return nil, fmt.Errorf("%w: xlsx: %v; xls: %v; html: %v", ErrFormatUnreadable, xlsxErr, xlsErr, htmlErr)
}

func OpenFile(path string) (*Workbook, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, path)
	}
	if err != nil {
		return nil, err
	}
	return Open(blob)
}
