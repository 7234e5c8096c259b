package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Library constants sent to, or expected by, the NAG.
const (
	LibVersion   = "1.0.13"
	NetworkURL   = "https://circularlabs.io/network/getNAG?network="
	DefaultChain = "0x8a20baa40c45dc5055aeb26197c203e576ef389d9acb171bd62da11dc5ad72b2"
	DefaultNAG   = "https://nag.circularlabs.io/NAG.php?cep="
)

// Transaction and action tags understood by the ledger.
const (
	TxTypeCertificate   = "C_TYPE_CERTIFICATE"
	ActionCertificate   = "CP_CERTIFICATE"
	ResultOK            = 200
	StatusPending       = "Pending"
	TransactionNotFound = "Transaction Not Found"
)

// NAG endpoint names. Node-routed endpoints get the network node appended.
const (
	EndpointWalletNonce       = "Circular_GetWalletNonce_"
	EndpointTransactionByID   = "Circular_GetTransactionbyID_"
	EndpointAddTransaction    = "Circular_AddTransaction_"
	DefaultPollInterval       = 2 * time.Second
	DefaultRequestTimeout     = 30 * time.Second
	DefaultOutcomeSearchStart = 0
	DefaultOutcomeSearchEnd   = 10
)

// Config is the immutable per-session configuration. It replaces the
// process-wide constants of older SDKs.
type Config struct {
	// Version is sent on every request for server-side compatibility checks.
	Version string `json:"version" yaml:"version" toml:"version" validate:"required"`

	// NetworkURL is the discovery endpoint; the network name is appended.
	NetworkURL string `json:"networkUrl" yaml:"networkUrl" toml:"networkUrl" validate:"required,url"`

	// DefaultChain is the blockchain used until SetBlockchain is called.
	DefaultChain string `json:"defaultChain" yaml:"defaultChain" toml:"defaultChain" validate:"required"`

	// DefaultNAG is the gateway base URL used until SetNetwork is called.
	DefaultNAG string `json:"defaultNag" yaml:"defaultNag" toml:"defaultNag" validate:"required,url"`

	PollInterval      time.Duration `json:"pollInterval" yaml:"pollInterval" toml:"pollInterval" validate:"gte=0"`
	RequestTimeout    time.Duration `json:"requestTimeout" yaml:"requestTimeout" toml:"requestTimeout" validate:"gte=0"`
	RequestsPerSecond float64       `json:"requestsPerSecond,omitempty" yaml:"requestsPerSecond" toml:"requestsPerSecond" validate:"gte=0"`
	LogLevel          string        `json:"logLevel,omitempty" yaml:"logLevel" toml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	LogFile           string        `json:"logFile,omitempty" yaml:"logFile" toml:"logFile"`
	EnableMetrics     bool          `json:"enableMetrics,omitempty" yaml:"enableMetrics" toml:"enableMetrics"`
}

// DefaultConfig returns the configuration matching the public Circular network.
func DefaultConfig() Config {
	return Config{
		Version:        LibVersion,
		NetworkURL:     NetworkURL,
		DefaultChain:   DefaultChain,
		DefaultNAG:     DefaultNAG,
		PollInterval:   DefaultPollInterval,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
	}
}

// WalletNonceRequest is the body of Circular_GetWalletNonce_.
type WalletNonceRequest struct {
	Blockchain string `json:"Blockchain"`
	Address    string `json:"Address"`
	Version    string `json:"Version"`
}

// WalletNonceResponse is the reply of Circular_GetWalletNonce_.
type WalletNonceResponse struct {
	Result   int          `json:"Result"`
	Response *NonceRecord `json:"Response,omitempty"`
}

// NonceRecord carries the last nonce the ledger accepted for an address.
// The gateway sends it as a number, older nodes as a quoted number.
type NonceRecord struct {
	Nonce *decimal.Decimal `json:"Nonce,omitempty"`
}

// UnmarshalJSON tolerates a string Response (e.g. an error message), which
// leaves the nonce unset instead of failing the whole decode.
func (n *NonceRecord) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*n = NonceRecord{}
		return nil
	}
	type plain NonceRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = NonceRecord(p)
	return nil
}

// TransactionByIDRequest is the body of Circular_GetTransactionbyID_.
type TransactionByIDRequest struct {
	Blockchain string `json:"Blockchain"`
	ID         string `json:"ID"`
	Start      string `json:"Start"`
	End        string `json:"End"`
	Version    string `json:"Version"`
}

// TransactionLookup is the decoded reply of Circular_GetTransactionbyID_.
type TransactionLookup struct {
	Result   int                 `json:"Result"`
	Response TransactionResponse `json:"Response"`
}

// Transaction is the record posted to Circular_AddTransaction_.
type Transaction struct {
	ID         string `json:"ID" validate:"required,hexadecimal,len=64"`
	From       string `json:"From" validate:"required,hexadecimal"`
	To         string `json:"To" validate:"required,hexadecimal"`
	Timestamp  string `json:"Timestamp" validate:"required,len=19"`
	Payload    string `json:"Payload" validate:"required,hexadecimal"`
	Nonce      string `json:"Nonce" validate:"required,numeric"`
	Signature  string `json:"Signature" validate:"required,hexadecimal"`
	Blockchain string `json:"Blockchain" validate:"required,hexadecimal"`
	Type       string `json:"Type" validate:"required"`
	Version    string `json:"Version" validate:"required"`
}

// ActionPayload wraps application data inside a transaction payload.
type ActionPayload struct {
	Action string `json:"Action"`
	Data   string `json:"Data"`
}

// GatewayResponse is a gateway reply returned to the caller verbatim.
// Response keeps its raw JSON because its shape depends on the endpoint
// and the outcome.
type GatewayResponse struct {
	Result   int             `json:"Result"`
	Response json.RawMessage `json:"Response,omitempty"`
	Node     string          `json:"Node,omitempty"`
}

// Message returns Response as a string when the gateway sent one.
func (g *GatewayResponse) Message() (string, bool) {
	var s string
	if len(g.Response) == 0 || g.Response[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(g.Response, &s); err != nil {
		return "", false
	}
	return s, true
}

// VerificationResult is the outcome of a local check of a signed transaction.
type VerificationResult struct {
	IsValid       bool       `json:"isValid"`
	InvalidReason string     `json:"invalidReason,omitempty"`
	ID            string     `json:"id,omitempty"`
	Sender        string     `json:"sender,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Data          string     `json:"data,omitempty"`
}
