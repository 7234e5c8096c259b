package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Well-known network names accepted by the discovery endpoint.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkDevnet  = "devnet"
)

// NetworkDiscoveryResponse is the reply of the NAG discovery endpoint.
type NetworkDiscoveryResponse struct {
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResponseKind tags the shape of a TransactionResponse.
type ResponseKind int

const (
	// ResponseEmpty means the gateway sent no Response or null.
	ResponseEmpty ResponseKind = iota
	// ResponseMessage means the gateway sent a bare status string.
	ResponseMessage
	// ResponseDetail means the gateway sent a transaction record.
	ResponseDetail
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseMessage:
		return "message"
	case ResponseDetail:
		return "detail"
	default:
		return "empty"
	}
}

// TransactionResponse is the Response field of a transaction lookup. The
// gateway puts either a string ("Transaction Not Found") or an object in the
// same position, so the shape is decided once at decode time.
type TransactionResponse struct {
	Kind    ResponseKind
	Message string
	Detail  *TransactionDetail
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *TransactionResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = TransactionResponse{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		if err := json.Unmarshal(data, &r.Message); err != nil {
			return err
		}
		r.Kind = ResponseMessage
		return nil
	case data[0] == '{':
		var detail TransactionDetail
		if err := json.Unmarshal(data, &detail); err != nil {
			return err
		}
		r.Kind = ResponseDetail
		r.Detail = &detail
		return nil
	default:
		return fmt.Errorf("unexpected transaction response shape: %.32s", data)
	}
}

// MarshalJSON implements json.Marshaler.
func (r TransactionResponse) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResponseMessage:
		return json.Marshal(r.Message)
	case ResponseDetail:
		return json.Marshal(r.Detail)
	default:
		return []byte("null"), nil
	}
}

// IsNotFound reports whether the gateway answered with the not-found sentinel.
func (r TransactionResponse) IsNotFound() bool {
	return r.Kind == ResponseMessage && r.Message == TransactionNotFound
}

// TransactionDetail is a transaction record as stored by the ledger. Only
// Status is interpreted; every field is kept for the caller.
type TransactionDetail struct {
	Status string
	Fields map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *TransactionDetail) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	d.Fields = fields
	d.Status = ""
	if raw, ok := fields["Status"]; ok {
		// a non-string Status is left empty rather than failing the lookup
		_ = json.Unmarshal(raw, &d.Status)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d TransactionDetail) MarshalJSON() ([]byte, error) {
	if d.Fields == nil {
		return json.Marshal(map[string]string{"Status": d.Status})
	}
	return json.Marshal(d.Fields)
}

// IsPending reports whether the ledger has not finalized the transaction yet.
func (d *TransactionDetail) IsPending() bool {
	return strings.EqualFold(strings.TrimSpace(d.Status), StatusPending)
}

// Field decodes a single raw field into out.
func (d *TransactionDetail) Field(name string, out interface{}) error {
	raw, ok := d.Fields[name]
	if !ok {
		return fmt.Errorf("field %s not present", name)
	}
	return json.Unmarshal(raw, out)
}

// String returns a string field, or "" when absent or not a string.
func (d *TransactionDetail) String(name string) string {
	var s string
	if err := d.Field(name, &s); err != nil {
		return ""
	}
	return s
}
