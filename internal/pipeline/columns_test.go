package pipeline

import "testing"

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		text string
		want Role
		ok   bool
	}{
		{"Material", RoleName, true},
		{"Art nr/Benämning", RoleName, true},
		{"EM nr / Leverantör", RoleIdentifier, true},
		{"Art nr", RoleArticle, true},
		{"ArtNr", RoleArticle, true},
		{"Pris till kund", RoleCustomerPrice, true},
		{"Pris kund", RoleCustomerPrice, true},
		{"Pris inköp", RolePurchasePrice, true},
		{"Pris/inköp", RolePurchasePrice, true},
		{"Enhet", RoleUnit, true},
		{"Unit", RoleUnit, true},
		{"Antal", RoleQuantity, true},
		{"Kr/timme", RoleService, true},
		{"Tid", RoleService, true},
		{"", "", false},
		{"Kommentar", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ClassifyHeader(tc.text)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ClassifyHeader(%q)=%q,%v want %q,%v", tc.text, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMapColumnsLaterColumnWins(t *testing.T) {
	cols := MapColumns(mkSheet("x", []any{"Material", "EM nr", "Pris inköp", nil, "Pris inköp"}).Row(0))
	if cols.Index(RoleName) != 0 || cols.Index(RoleIdentifier) != 1 {
		t.Fatalf("cols=%v", cols)
	}
	if cols.Index(RolePurchasePrice) != 4 {
		t.Fatalf("purchase price column=%d", cols.Index(RolePurchasePrice))
	}
	if cols.Index(RoleUnit) != -1 {
		t.Fatalf("unit should be unmapped, got %d", cols.Index(RoleUnit))
	}
}
