package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple", input: "London", want: "London"},
		{name: "trims whitespace", input: "  London  ", want: "London"},
		{name: "multi word", input: "New York", want: "New York"},
		{name: "comma and country", input: "Paris, FR", want: "Paris, FR"},
		{name: "hyphenated", input: "Stratford-upon-Avon", want: "Stratford-upon-Avon"},
		{name: "unicode letters", input: "Zürich", want: "Zürich"},
		{name: "empty", input: "", wantErr: ErrCityEmpty},
		{name: "whitespace only", input: "   ", wantErr: ErrCityEmpty},
		{name: "too long", input: strings.Repeat("a", 101), wantErr: ErrCityTooLong},
		{name: "at length bound", input: strings.Repeat("a", 100), want: strings.Repeat("a", 100)},
		{name: "path traversal", input: "../etc/passwd", wantErr: ErrCityInvalidChars},
		{name: "angle brackets", input: "<script>", wantErr: ErrCityInvalidChars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCity(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateCity(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ValidateCity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "two characters", input: "NY", want: "NY"},
		{name: "trimmed", input: " London ", want: "London"},
		{name: "one character", input: "L", wantErr: ErrQueryTooShort},
		{name: "whitespace only", input: "   ", wantErr: ErrQueryTooShort},
		{name: "two runes non-ascii", input: "京都", want: "京都"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSearchQuery(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateSearchQuery(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ValidateSearchQuery(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
