package catalog

import "testing"

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"978-0-441-17271-9", "9780441172719"},
		{"0441172717", "9780441172719"},
		{"0-8044-2957-X", "9780804429573"},
		{"9780441172718", ""},
		{"12345", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanISBN(tt.in); got != tt.want {
			t.Errorf("CleanISBN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestISBN10To13_Invalid(t *testing.T) {
	if got := ISBN10To13("0441172718"); got != "" {
		t.Errorf("expected empty result for bad check digit, got %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Book "); !ok || c != CategoryBook {
		t.Errorf("ParseCategory(Book) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("movietv"); ok {
		t.Error("movietv is a query scope, not a category")
	}
	if len(Categories()) != 7 {
		t.Errorf("expected 7 categories, got %d", len(Categories()))
	}
}
