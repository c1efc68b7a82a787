package taxonomy

import (
	"strings"
	"testing"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		description string
		want        string
	}{
		{"raw keyword", "Tuition", "", "Tuition & Fees"},
		{"raw keyword any case", "UNIVERSITY TUITION PAYMENT", "", "Tuition & Fees"},
		{"raw keyword with noise", "Books & supplies (Q3)", "", "Books & Supplies"},
		{"raw wins over description", "restaurant", "Conference hotel", "Food & Dining"},
		{"description fallback", "misc", "Networking Event - Finance Club", "Networking"},
		{"description textbook", "", "Strategic Management Textbook", "Books & Supplies"},
		{"lunch", "", "Lunch with study group", "Food & Dining"},
		{"rent", "", "Monthly rent payment", "Housing"},
		{"declared order breaks ties", "conference flight", "", "Networking"},
		{"rideshare", "Uber", "", "Transportation"},
		{"registrar", "", "Registrar transcript request", "Tuition & Fees"},
		{"stationery", "Stationery", "", "Books & Supplies"},
		{"concert", "", "Symphony concert tickets", "Entertainment"},
		{"coffee is not a fee", "", "Coffee before class", "Food & Dining"},
		{"facebook is not a book", "", "Facebook ads", Other},
		{"no match", "Sundries", "Misc purchase", Other},
		{"empty", "", "", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Map(tt.raw, tt.description); got != tt.want {
				t.Errorf("Map(%q, %q) = %q, want %q", tt.raw, tt.description, got, tt.want)
			}
		})
	}
}

func TestMapAlwaysReturnsDeclaredCategory(t *testing.T) {
	tx := Default()
	inputs := []string{"", "???", "gym", "hotel", "software license", "zzz"}
	for _, in := range inputs {
		got := tx.Map(in, in)
		if got == "" || !tx.IsCategory(got) {
			t.Errorf("Map(%q) = %q, not a declared category", in, got)
		}
		if again := tx.Map(in, in); again != got {
			t.Errorf("Map(%q) not deterministic: %q then %q", in, got, again)
		}
	}
}

func TestHierarchy(t *testing.T) {
	tx := Default()

	edu := tx.Children("education")
	if len(edu) != 2 || edu[0] != "Tuition & Fees" || edu[1] != "Books & Supplies" {
		t.Errorf("Children(education) = %v", edu)
	}
	if got := tx.Children("Nope"); got != nil {
		t.Errorf("Children(Nope) = %v, want nil", got)
	}

	if got := tx.ParentOf("Travel"); got != "Lifestyle" {
		t.Errorf("ParentOf(Travel) = %q", got)
	}
	if got := tx.ParentOf("Unknown"); got != Other {
		t.Errorf("ParentOf(Unknown) = %q, want Other", got)
	}
	if !tx.InParent("Housing", "LIVING") {
		t.Error("Housing should be under Living")
	}
	if tx.InParent("Housing", "Education") {
		t.Error("Housing should not be under Education")
	}

	// every category belongs to exactly one declared parent
	seen := map[string]int{}
	for _, p := range tx.Parents() {
		for _, c := range tx.Children(p) {
			seen[c]++
		}
	}
	for _, c := range tx.Categories() {
		if seen[c] != 1 {
			t.Errorf("category %q appears under %d parents", c, seen[c])
		}
	}
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "undeclared parent",
			yaml:    "parents: [Other]\ncategories:\n  - {name: Other, parent: Other}\n  - {name: Rent, parent: Living}\n",
			wantErr: "undeclared parent",
		},
		{
			name:    "duplicate category",
			yaml:    "parents: [Other]\ncategories:\n  - {name: Other, parent: Other}\n  - {name: Other, parent: Other}\n",
			wantErr: "declared twice",
		},
		{
			name:    "missing Other",
			yaml:    "parents: [Living]\ncategories:\n  - {name: Rent, parent: Living}\n",
			wantErr: "required",
		},
		{
			name:    "bad yaml",
			yaml:    "parents: [",
			wantErr: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestColorIndexStable(t *testing.T) {
	a := ColorIndex("Housing", 8)
	if b := ColorIndex("Housing", 8); a != b {
		t.Errorf("ColorIndex not stable: %d vs %d", a, b)
	}
	if a < 0 || a >= 8 {
		t.Errorf("ColorIndex out of range: %d", a)
	}
	if ColorIndex("Housing", 0) != 0 {
		t.Error("ColorIndex with empty palette should be 0")
	}
}
