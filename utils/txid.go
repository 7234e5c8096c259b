package utils

import (
	"strconv"
	"strings"
)

// TransactionID is the sha256 hex the NAG recomputes for every transaction:
// blockchain, sender and recipient (all without 0x), then the payload hex,
// the decimal nonce and the timestamp, concatenated.
func TransactionID(blockchain, from, to, payloadHex string, nonce int64, timestamp string) string {
	var b strings.Builder
	b.WriteString(HexFix(blockchain))
	b.WriteString(HexFix(from))
	b.WriteString(HexFix(to))
	b.WriteString(payloadHex)
	b.WriteString(strconv.FormatInt(nonce, 10))
	b.WriteString(timestamp)
	return SHA256Hex([]byte(b.String()))
}
