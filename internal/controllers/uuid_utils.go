package controllers

import (
	"strings"

	"github.com/google/uuid"
)

// parseUserID normalizes a user_id path parameter, which must be a UUID.
func parseUserID(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	val, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return val.String(), true
}
