package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "Wireless Mouse", "wireless-mouse"},
		{"accents transliterated", "Café Crème Brûlée", "cafe-creme-brulee"},
		{"punctuation stripped", "50% Off! Best Deal (Today)", "50-off-best-deal-today"},
		{"underscores become hyphens", "snake_case_name", "snake-case-name"},
		{"consecutive separators collapse", "a  --  b", "a-b"},
		{"empty input", "", ""},
		{"only symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.expected {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGenerateTruncates(t *testing.T) {
	long := strings.Repeat("word ", 40)
	got := Generate(long)
	if len(got) > maxLength {
		t.Errorf("slug length %d exceeds %d", len(got), maxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with hyphen: %q", got)
	}
}

func TestFromProduct(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		externalID string
		expected   string
	}{
		{"title and id", "Wireless Mouse", "B08N5WRWNW", "wireless-mouse-b08n5wrwnw"},
		{"title only", "Wireless Mouse", "", "wireless-mouse"},
		{"id only", "", "B08N5WRWNW", "b08n5wrwnw"},
		{"neither", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromProduct(tt.title, tt.externalID); got != tt.expected {
				t.Errorf("FromProduct(%q, %q) = %q, want %q", tt.title, tt.externalID, got, tt.expected)
			}
		})
	}
}

func TestFromProductLongTitleKeepsID(t *testing.T) {
	title := strings.Repeat("very long product name ", 10)
	got := FromProduct(title, "B08N5WRWNW")
	if len(got) > maxLength {
		t.Errorf("slug length %d exceeds %d", len(got), maxLength)
	}
	if !strings.HasSuffix(got, "-b08n5wrwnw") {
		t.Errorf("expected id suffix preserved, got %q", got)
	}
}

func TestMakeUnique(t *testing.T) {
	if got := MakeUnique("mug", 0); got != "mug" {
		t.Errorf("MakeUnique(mug, 0) = %q", got)
	}
	if got := MakeUnique("mug", 12); got != "mug-12" {
		t.Errorf("MakeUnique(mug, 12) = %q", got)
	}
}
