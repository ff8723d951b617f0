// Package validation holds boundary input checks shared by HTTP handlers.
package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrCityEmpty is returned when a city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrCityTooLong is returned when a city name exceeds the maximum length.
var ErrCityTooLong = errors.New("city name too long")

// ErrCityInvalidChars is returned when a city name contains disallowed characters.
var ErrCityInvalidChars = errors.New("city name contains invalid characters")

// ErrQueryTooShort is returned when a search query is under the minimum length.
var ErrQueryTooShort = errors.New("query must be at least 2 characters")

const (
	maxCityLen        = 100
	minSearchQueryLen = 2
)

// ValidateCity trims the input, enforces a length bound, and restricts to
// letters (Unicode), digits, space, comma, hyphen. Returns the trimmed string
// or an error suitable for a 400 response.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrCityEmpty
	}
	if len(r) > maxCityLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

// isAllowedCityRune returns true for letters (Unicode), digits, space, comma, hyphen.
func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-':
		return true
	}
	return false
}

// ValidateSearchQuery trims the input and enforces the minimum length for
// geocoding searches.
func ValidateSearchQuery(input string) (string, error) {
	s := strings.TrimSpace(input)
	if len([]rune(s)) < minSearchQueryLen {
		return "", ErrQueryTooShort
	}
	return s, nil
}
