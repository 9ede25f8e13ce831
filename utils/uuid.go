package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GetToken returns a fresh opaque token without dashes.
func GetToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetUUID returns a standard dashed uuid string.
func GetUUID() string {
	return uuid.NewString()
}
