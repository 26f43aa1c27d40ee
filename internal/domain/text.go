package domain

import "strings"

func trim(s string) string { return strings.TrimSpace(s) }

func requireText(ve *ValidationError, s *string, field string) {
	*s = trim(*s)
	if *s == "" {
		ve.Add(field, "required")
	}
}
