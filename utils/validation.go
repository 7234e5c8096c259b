package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/circularprotocol/cep/types"
)

var hexPattern = regexp.MustCompile("^[0-9a-fA-F]+$")

// ValidateAddress rejects empty or whitespace-only account addresses.
func ValidateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return types.NewError(types.ErrInvalidAddress, "Invalid address")
	}
	return nil
}

// ValidateTransactionID checks that id is a non-empty hex string once
// normalized.
func ValidateTransactionID(id string) error {
	id = HexFix(strings.TrimSpace(id))
	if id == "" {
		return types.NewError(types.ErrInvalidRequest, "transaction id cannot be empty")
	}
	if !IsHexString(id) {
		return types.NewError(types.ErrInvalidRequest, "transaction id must be valid hex")
	}
	return nil
}

// IsHexString reports whether s is made only of hex digits.
func IsHexString(s string) bool {
	return hexPattern.MatchString(s)
}

// ParseTimestamp parses a NAG timestamp back into a UTC time.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
