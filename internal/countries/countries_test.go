package countries

import (
	"reflect"
	"testing"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := Parse([]string{
		"CI|Côte d'Ivoire|Ivory Coast",
		"DE|Germany|Deutschland",
		"GB|United Kingdom|UK;Great Britain",
		"TR|Türkiye|Turkey",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tbl
}

func TestResolve(t *testing.T) {
	tbl := testTable(t)
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"DE", "DE", true},
		{"de", "DE", true},
		{"germany", "DE", true},
		{"  Deutschland ", "DE", true},
		{"cote d'ivoire", "CI", true},
		{"COTE DIVOIRE", "CI", true},
		{"Côte d’Ivoire", "CI", true},
		{"ivory coast", "CI", true},
		{"turkiye", "TR", true},
		{"u.k.", "GB", true},
		{"great-britain", "GB", true},
		{"atlantis", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := tbl.Resolve(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Resolve(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	tbl := testTable(t)
	if got := tbl.Name("gb"); got != "United Kingdom" {
		t.Fatalf("Name = %q", got)
	}
	if got := tbl.Name("XX"); got != "" {
		t.Fatalf("Name(unknown) = %q", got)
	}
	if got := tbl.Alternates("GB"); !reflect.DeepEqual(got, []string{"UK", "Great Britain"}) {
		t.Fatalf("Alternates = %v", got)
	}
	if !tbl.IsValid("Türkiye") || tbl.IsValid("Narnia") {
		t.Fatal("IsValid mismatch")
	}
	if got := tbl.Filter("zz"); len(got) != 0 {
		t.Fatalf("Filter(zz) = %v", got)
	}
	if got := tbl.Filter("king"); len(got) != 1 || got[0].Code != "GB" {
		t.Fatalf("Filter(king) = %v", got)
	}
	if got := tbl.Filter(""); len(got) != tbl.Len() {
		t.Fatalf("Filter(\"\") = %d entries", len(got))
	}
}

func TestParseRejectsBadLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"missing name", []string{"FR"}},
		{"long code", []string{"FRA|France"}},
		{"duplicate", []string{"FR|France", "FR|Frankreich"}},
		{"too many fields", []string{"FR|France|Frankreich|extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.lines); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	tbl, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, code := range []string{"FR", "DE", "JP", "BR", "ZA", "MN", "BT"} {
		if tbl.Name(code) == "" {
			t.Errorf("embedded table is missing %s", code)
		}
	}
	if got, ok := tbl.Resolve("são tomé and príncipe"); !ok || got != "ST" {
		t.Fatalf("Resolve = %q,%v", got, ok)
	}
}
