package utils

import (
	"encoding/hex"
	"time"

	"github.com/circularprotocol/cep/types"
)

// TimestampLayout is the UTC layout the NAG parses: YYYY:MM:DD-HH:MM:SS.
const TimestampLayout = "2006:01:02-15:04:05"

// HexFix removes any leading 0x prefix. Hex digits are not validated.
func HexFix(s string) string {
	for len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return s
}

// StringToHex encodes raw bytes as lowercase hex without prefix.
func StringToHex(data []byte) string {
	return hex.EncodeToString(data)
}

// HexToString decodes hex produced by StringToHex. A 0x prefix is accepted;
// anything else that is not hex, whitespace included, is a DECODE_ERROR.
func HexToString(s string) ([]byte, error) {
	s = HexFix(s)
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, types.WrapError(types.ErrDecode, err, "invalid hex string")
	}
	return decoded, nil
}

// FormattedTimestamp renders t in UTC using TimestampLayout.
func FormattedTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Timestamp returns the current wall-clock time in TimestampLayout.
func Timestamp() string {
	return FormattedTimestamp(time.Now())
}
