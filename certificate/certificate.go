// Package certificate implements the application-data envelope that is
// certified on the Circular ledger.
package certificate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/circularprotocol/cep/types"
	"github.com/circularprotocol/cep/utils"
)

// Certificate carries application data plus the linkage to a previous
// transaction and block. Linkage is a mapping chain; callers supply it.
type Certificate struct {
	data          string
	PreviousTxID  string
	PreviousBlock string
	version       string
}

// jsonCertificate fixes the canonical field order of the JSON form.
type jsonCertificate struct {
	Data          string  `json:"data"`
	PreviousTxID  *string `json:"previousTxID"`
	PreviousBlock *string `json:"previousBlock"`
	Version       string  `json:"version"`
}

// New returns an empty certificate stamped with the library version.
func New() *Certificate {
	return NewWithVersion(types.LibVersion)
}

// NewWithVersion returns an empty certificate stamped with version.
func NewWithVersion(version string) *Certificate {
	return &Certificate{version: version}
}

// SetData stores the application data (hex encoded internally).
func (c *Certificate) SetData(data []byte) {
	c.data = utils.StringToHex(data)
}

// SetDataString is SetData for text content.
func (c *Certificate) SetDataString(data string) {
	c.SetData([]byte(data))
}

// GetData returns the application data as set.
func (c *Certificate) GetData() ([]byte, error) {
	return utils.HexToString(c.data)
}

// Version returns the schema version stamped on the certificate.
func (c *Certificate) Version() string {
	return c.version
}

// GetJSONCertificate returns the canonical JSON form. Unset linkage fields
// are encoded as null. Data that is not valid UTF-8 cannot be carried in
// the JSON form and fails with DECODE_ERROR.
func (c *Certificate) GetJSONCertificate() (string, error) {
	data, err := c.GetData()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", types.NewError(types.ErrDecode, "certificate data is not valid UTF-8")
	}

	cert := jsonCertificate{
		Data:          string(data),
		PreviousTxID:  optional(c.PreviousTxID),
		PreviousBlock: optional(c.PreviousBlock),
		Version:       c.version,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cert); err != nil {
		return "", fmt.Errorf("failed to encode certificate: %w", err)
	}
	// Encode appends a newline which is not part of the certificate
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// GetCertificateSize returns the size in bytes of GetJSONCertificate.
func (c *Certificate) GetCertificateSize() (int, error) {
	js, err := c.GetJSONCertificate()
	if err != nil {
		return 0, err
	}
	return len(js), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
