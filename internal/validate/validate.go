package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	rePhone = regexp.MustCompile(`^[0-9+ ().-]{6,20}$`)
	// photo names are generated server-side: request_<stamp>_<hex>_<i>.<ext>
	rePhoto = regexp.MustCompile(`^request_[0-9]{14}(_[0-9a-f]{8})?_[0-9]\.(jpg|png)$`)
)

// ID parses a positive record id from a path or form value.
func ID(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Price parses a whole, non-negative amount. Spaces and a trailing € are tolerated.
func Price(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Text trims s and enforces a maximum length in runes.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > max {
		return s, false
	}
	return s, true
}

// Phone accepts an empty value or a loosely formatted phone number.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, rePhone.MatchString(s)
}

// PhotoName validates a stored photo reference.
func PhotoName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhoto.MatchString(s)
}

// Question validates an assistant prompt.
func Question(s string) (string, bool) {
	return Text(s, 2000)
}
