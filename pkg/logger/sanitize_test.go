package logger

import "testing"

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice@example.com", "a****@*******.com"},
		{"a@example.com", "a@*******.com"},
		{"bob@mail.example.org", "b**@****.*******.org"},
		{"not-an-email", "[invalid-email]"},
		{"two@@signs", "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizedEmail(tt.input); got != tt.want {
				t.Errorf("SanitizedEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"limit=20&offset=40", false},
		{"author=someone", false},
		{"password=hunter2", true},
		{"limit=5&Token=abc", true},
		{"email=a%40b.com", true},
		{"%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := SanitizeQueryString(tt.query); got != tt.want {
				t.Errorf("SanitizeQueryString(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
