package utils

import "strings"

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

var phoneReplacer = strings.NewReplacer(" ", "", "-", "", "+", "")

// NormalizePhone strips spaces, hyphens and plus signs so "+1 234-567" and "1234567" match.
func NormalizePhone(phone string) string {
	return phoneReplacer.Replace(strings.TrimSpace(phone))
}
