package pipeline

import (
	"strings"

	"pricecatalog/internal/util"
	"pricecatalog/internal/workbook"
)

type Role string

const (
	RoleName          Role = "name"
	RoleIdentifier    Role = "identifier"
	RoleArticle       Role = "article"
	RoleCustomerPrice Role = "customer_price"
	RolePurchasePrice Role = "purchase_price"
	RoleUnit          Role = "unit"
	RoleQuantity      Role = "quantity"
	RoleService       Role = "service"
)

type columnRule struct {
	role     Role
	keywords []string
}

// columnRules are evaluated in order; the first rule a header cell matches
// decides its role. Order matters: "material" must win over "art", and
// "em" over the price rules.
var columnRules = []columnRule{
	{RoleName, []string{"material", "benämning"}},
	{RoleIdentifier, []string{"em"}},
	{RoleArticle, []string{"art nr", "artnr", "art"}},
	{RoleCustomerPrice, []string{"pris till", "pris kund"}},
	{RolePurchasePrice, []string{"pris inköp", "pris/inköp"}},
	{RoleUnit, []string{"enhet", "unit"}},
	{RoleQuantity, []string{"antal", "per lok"}},
	{RoleService, []string{"kr/tim", "tid", "litt"}},
}

// ColumnMap maps a role to its column index.
type ColumnMap map[Role]int

func (m ColumnMap) Index(role Role) int {
	if idx, ok := m[role]; ok {
		return idx
	}
	return -1
}

// ClassifyHeader returns the role for one header cell text.
func ClassifyHeader(text string) (Role, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	for _, rule := range columnRules {
		if util.ContainsAny(t, rule.keywords...) {
			return rule.role, true
		}
	}
	return "", false
}

// MapColumns classifies every header cell. When two cells claim the same
// role the later column wins.
func MapColumns(header []workbook.Cell) ColumnMap {
	m := ColumnMap{}
	for idx, c := range header {
		if role, ok := ClassifyHeader(c.Text()); ok {
			m[role] = idx
		}
	}
	return m
}
