package workbook

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pricecatalog/internal/util"
)

type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindFormula
	KindError
)

const dateLayout = "2006-01-02"

// plainNumber is the only text shape read as a typed number. ParseFloat alone
// would also accept "Inf", "NaN" and hex floats.
var plainNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// Cell is one spreadsheet cell as read from the resource. For formulas,
// Result holds the evaluated value when Evaluated is set and Cached holds the
// value stored in the file.
type Cell struct {
	Kind      CellKind
	Value     string
	Num       float64
	Time      time.Time
	Formula   string
	Result    string
	Evaluated bool
	Cached    string
}

func StringCell(v string) Cell { return Cell{Kind: KindString, Value: v} }

func NumberCell(v float64) Cell { return Cell{Kind: KindNumber, Num: v} }

func BoolCell(v bool) Cell { return Cell{Kind: KindBool, Value: strconv.FormatBool(v)} }

func DateCell(t time.Time) Cell { return Cell{Kind: KindDate, Time: t} }

// Text renders the cell for display and keyword matching.
func (c Cell) Text() string {
	switch c.Kind {
	case KindString:
		return strings.TrimSpace(c.Value)
	case KindNumber:
		return formatNumber(c.Num)
	case KindBool:
		return c.Value
	case KindDate:
		if c.Time.IsZero() {
			return strings.TrimSpace(c.Value)
		}
		return c.Time.Format(dateLayout)
	case KindFormula:
		if c.Evaluated {
			if n, ok := parsePlainNumber(c.Result); ok {
				return formatNumber(n)
			}
			return strings.TrimSpace(c.Result)
		}
		return strings.TrimSpace(c.Cached)
	default:
		return ""
	}
}

// Number extracts a numeric value. ok is false when the cell holds no usable
// number; text that normalizes to zero counts as no number. Dates never
// yield a number, and neither do infinities or NaN.
func (c Cell) Number() (float64, bool) {
	n, ok := c.number()
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func (c Cell) number() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Num, true
	case KindString:
		return util.ParseLocaleNumber(c.Value)
	case KindFormula:
		if c.Evaluated {
			if n, ok := parsePlainNumber(c.Result); ok {
				return n, true
			}
			if n, ok := util.ParseLocaleNumber(c.Result); ok {
				return n, true
			}
		}
		return util.ParseLocaleNumber(c.Cached)
	default:
		return 0, false
	}
}

func parsePlainNumber(v string) (float64, bool) {
	t := strings.TrimSpace(v)
	if !plainNumber.MatchString(t) {
		return 0, false
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func formatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return ""
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// textCell classifies untyped text coming from readers that only expose
// strings (legacy xls, HTML).
func textCell(v string) Cell {
	t := strings.TrimSpace(v)
	if t == "" {
		return Cell{}
	}
	if n, ok := parsePlainNumber(t); ok {
		return NumberCell(n)
	}
	return StringCell(v)
}
