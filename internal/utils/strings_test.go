package utils

import (
	"strings"
	"testing"
)

// TestTruncateString_ShortInput_Unchanged verifies that strings within the
// limit pass through untouched.
func TestTruncateString_ShortInput_Unchanged(t *testing.T) {
	if got := TruncateString("hello", 10); got != "hello" {
		t.Errorf("TruncateString() = %q, want %q", got, "hello")
	}
}

// TestTruncateString_LongInput_AddsSuffix verifies the truncation marker and
// the recorded total length.
func TestTruncateString_LongInput_AddsSuffix(t *testing.T) {
	got := TruncateString(strings.Repeat("a", 20), 5)
	if !strings.HasPrefix(got, "aaaaa...") {
		t.Errorf("expected truncated prefix, got %q", got)
	}
	if !strings.Contains(got, "total: 20 chars") {
		t.Errorf("expected total length in suffix, got %q", got)
	}
}

// TestTruncateString_NonPositiveLimit_UsesDefault verifies the fallback limit.
func TestTruncateString_NonPositiveLimit_UsesDefault(t *testing.T) {
	input := strings.Repeat("b", DefaultMaxStringLength+1)
	got := TruncateString(input, 0)
	if !strings.HasPrefix(got, strings.Repeat("b", DefaultMaxStringLength)+"...") {
		t.Errorf("expected default-length truncation, got %q", TruncateString(got, 40))
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{name: "ascii within limit", input: "abc", maxRunes: 5, want: "abc"},
		{name: "ascii exact limit", input: "abcde", maxRunes: 5, want: "abcde"},
		{name: "ascii truncated", input: "abcdef", maxRunes: 3, want: "abc"},
		{name: "multi-byte truncated", input: "日本語の要約", maxRunes: 3, want: "日本語"},
		{name: "emoji kept whole", input: "a🙂b", maxRunes: 2, want: "a🙂"},
		{name: "zero limit", input: "abc", maxRunes: 0, want: ""},
		{name: "empty input", input: "", maxRunes: 4, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.maxRunes); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		mustHave  []string
		mustLack  []string
		unchanged bool
	}{
		{
			name:     "gemini key parameter",
			input:    "https://example.test/v1beta/models/m:streamGenerateContent?alt=sse&key=secret123",
			mustHave: []string{"alt=sse", "key=REDACTED"},
			mustLack: []string{"secret123"},
		},
		{
			name:     "api_key parameter",
			input:    "https://example.test/path?api_key=abc&x=1",
			mustHave: []string{"api_key=REDACTED", "x=1"},
			mustLack: []string{"abc"},
		},
		{
			name:      "no secrets",
			input:     "https://api.openai.com/v1/responses",
			unchanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactURL(tt.input)
			if tt.unchanged && got != tt.input {
				t.Errorf("RedactURL() = %q, want unchanged", got)
			}
			for _, s := range tt.mustHave {
				if !strings.Contains(got, s) {
					t.Errorf("RedactURL() = %q, missing %q", got, s)
				}
			}
			for _, s := range tt.mustLack {
				if strings.Contains(got, s) {
					t.Errorf("RedactURL() = %q, still contains %q", got, s)
				}
			}
		})
	}
}
