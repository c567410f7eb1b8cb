package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Ada Lovelace  ",
			want:  "Ada Lovelace",
		},
		{
			name:  "multiple spaces between words",
			input: "Ada    Lovelace",
			want:  "Ada Lovelace",
		},
		{
			name:  "tabs and newlines",
			input: "Ada\t\nLovelace",
			want:  "Ada Lovelace",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café & Friends™ ",
			want:  "Café & Friends™",
		},
		{
			name:  "non latin characters",
			input: " ערב שירה ",
			want:  "ערב שירה",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ada@Example.COM", "ada@example.com"},
		{"  ada@example.com\n", "ada@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keeps inner line breaks",
			input: "  Bring snacks.\n\nDoors at 7.  ",
			want:  "Bring snacks.\n\nDoors at 7.",
		},
		{
			name:  "unifies crlf",
			input: "line one\r\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "whitespace only",
			input: " \r\n ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	p := Pipeline{
		func(s string) string { return s + "a" },
		func(s string) string { return s + "b" },
	}
	if got := p.Apply("x"); got != "xab" {
		t.Errorf("Apply() = %q, want %q", got, "xab")
	}
}
