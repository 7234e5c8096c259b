package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/circularprotocol/cep/certificate"
	"github.com/circularprotocol/cep/clients"
	"github.com/circularprotocol/cep/logger"
	"github.com/circularprotocol/cep/metrics"
	"github.com/circularprotocol/cep/types"
	"github.com/circularprotocol/cep/utils"
	"github.com/circularprotocol/cep/verification"
)

// Account is a session bound to one ledger address. It tracks the nonce and
// gateway target and builds, signs and submits certificate transactions.
//
// An Account is not safe for concurrent use.
type Account struct {
	address      string
	publicKey    string
	blockchain   string
	nagURL       string
	networkNode  string
	latestTxID   string
	lastError    string
	nonce        int64
	pollInterval time.Duration

	config     types.Config
	client     clients.Client
	httpClient *http.Client
	logger     logger.Logger
	log        logger.Logger
	metrics    metrics.Recorder
	verifier   verification.Verifier
	now        func() time.Time
	wait       func(ctx context.Context, d time.Duration) error
}

// NewAccount creates a closed account. Call Open before any network operation.
func NewAccount(opts ...Option) *Account {
	a := &Account{
		config:  types.DefaultConfig(),
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		now:     time.Now,
		wait:    sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logger.NoopLogger{}
	}
	if a.metrics == nil {
		a.metrics = metrics.NoopRecorder{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.wait == nil {
		a.wait = sleepContext
	}
	if a.client == nil {
		a.client = clients.NewNAGClient(a.config,
			clients.WithHTTPClient(a.httpClient),
			clients.WithClientLogger(a.logger),
			clients.WithClientMetrics(a.metrics),
		)
	}

	a.reset()
	return a
}

var maxRemoteNonce = decimal.NewFromInt(math.MaxInt64)

// reset puts every session field back to its configured default.
func (a *Account) reset() {
	a.address = ""
	a.publicKey = ""
	a.blockchain = a.config.DefaultChain
	a.nagURL = a.config.DefaultNAG
	a.networkNode = ""
	a.latestTxID = ""
	a.lastError = ""
	a.nonce = 0
	a.pollInterval = a.config.PollInterval
	if a.pollInterval <= 0 {
		a.pollInterval = types.DefaultPollInterval
	}
	a.log = a.logger
}

// Open binds the account to address. It may be called again to rebind.
func (a *Account) Open(address string) error {
	if err := utils.ValidateAddress(address); err != nil {
		return a.fail(err)
	}
	a.address = strings.TrimSpace(address)
	a.lastError = ""
	a.log = logger.With(a.logger, map[string]any{"address": a.address})
	return nil
}

// Close clears the session. Network operations fail with NOT_OPEN until
// Open is called again; gateway and chain return to the configured defaults.
func (a *Account) Close() {
	a.reset()
}

// IsOpen reports whether an address is bound.
func (a *Account) IsOpen() bool {
	return a.address != ""
}

func (a *Account) Address() string             { return a.address }
func (a *Account) Blockchain() string          { return a.blockchain }
func (a *Account) Nonce() int64                { return a.nonce }
func (a *Account) NAGURL() string              { return a.nagURL }
func (a *Account) NetworkNode() string         { return a.networkNode }
func (a *Account) LatestTxID() string          { return a.latestTxID }
func (a *Account) PollInterval() time.Duration { return a.pollInterval }
func (a *Account) PublicKey() string           { return a.publicKey }

// LastError returns the message of the most recent failed operation. Any
// later successful operation clears it, as does Close.
func (a *Account) LastError() string {
	return a.lastError
}

// SetBlockchain selects the target chain.
func (a *Account) SetBlockchain(blockchain string) {
	a.blockchain = blockchain
}

// SetNetworkNode selects the node suffix used for routed NAG endpoints.
func (a *Account) SetNetworkNode(node string) {
	a.networkNode = node
}

// SetNAGURL points the account at a gateway directly, bypassing discovery.
func (a *Account) SetNAGURL(nagURL string) {
	a.nagURL = nagURL
}

// SetPollInterval changes the wait between outcome polls.
func (a *Account) SetPollInterval(d time.Duration) {
	if d > 0 {
		a.pollInterval = d
	}
}

// SetPublicKey records the account public key. It is informational only.
func (a *Account) SetPublicKey(publicKey string) {
	a.publicKey = publicKey
}

// SetNetwork resolves a network name ("mainnet", "testnet", "devnet") to its
// gateway URL through the discovery endpoint. On success the URL is also
// assigned to the account; on failure the account is left unchanged.
func (a *Account) SetNetwork(ctx context.Context, network string) (string, error) {
	nagURL, err := a.client.ResolveNetwork(ctx, network)
	if err != nil {
		a.log.Error("Error fetching network URL", map[string]any{
			"network": network,
			"error":   err,
		})
		return "", a.fail(err)
	}
	a.nagURL = nagURL
	a.lastError = ""
	return nagURL, nil
}

// UpdateAccount refreshes the nonce from the gateway, setting it to the
// ledger's last nonce plus one.
//
// NOT_OPEN is returned immediately. Every other failure is soft: the nonce
// is left unchanged, LastError is set and the error is returned.
func (a *Account) UpdateAccount(ctx context.Context) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	labels := map[string]string{"endpoint": types.EndpointWalletNonce}

	req := &types.WalletNonceRequest{
		Blockchain: utils.HexFix(a.blockchain),
		Address:    utils.HexFix(a.address),
		Version:    a.config.Version,
	}
	resp, err := a.client.GetWalletNonce(ctx, a.nagURL, req)
	if err != nil {
		return a.nonceFailed(labels, err)
	}

	if resp.Result != types.ResultOK {
		return a.nonceFailed(labels, types.NewError(types.ErrGatewayRejection,
			"Invalid response format or missing Nonce field (result %d)", resp.Result))
	}
	if resp.Response == nil || resp.Response.Nonce == nil || !resp.Response.Nonce.IsInteger() {
		return a.nonceFailed(labels, types.NewError(types.ErrDecode,
			"Invalid response format or missing Nonce field"))
	}
	// the next nonce must still fit in an int64
	if nonce := *resp.Response.Nonce; nonce.IsNegative() || !nonce.LessThan(maxRemoteNonce) {
		return a.nonceFailed(labels, types.NewError(types.ErrDecode,
			"Nonce %s out of range", nonce.String()))
	}

	a.nonce = resp.Response.Nonce.IntPart() + 1
	a.lastError = ""
	a.metrics.IncCounter(metrics.EventNonceRefresh, labels)
	return nil
}

func (a *Account) nonceFailed(labels map[string]string, err error) error {
	a.metrics.IncCounter(metrics.EventNonceFailed, labels)
	a.log.Warn("nonce refresh failed", map[string]any{
		"error": err,
	})
	return a.fail(err)
}

// SignData signs sha256(data) with a hex secp256k1 private key and returns
// the DER signature as hex.
func (a *Account) SignData(data, privateKey string) (string, error) {
	if err := a.requireOpen(); err != nil {
		return "", err
	}
	sig, err := utils.SignDER([]byte(data), privateKey)
	if err != nil {
		return "", a.fail(err)
	}
	a.lastError = ""
	return sig, nil
}

// BuildCertificatePayload wraps data in a CP_CERTIFICATE action and returns
// the hex of its JSON.
func BuildCertificatePayload(data []byte) (string, error) {
	action := types.ActionPayload{
		Action: types.ActionCertificate,
		Data:   utils.StringToHex(data),
	}
	js, err := json.Marshal(action)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return utils.StringToHex(js), nil
}

// DeriveTransactionID computes the transaction id the gateway recomputes:
// sha256 over blockchain, sender, recipient, payload, nonce and timestamp.
// Certificates are sent to self, so the address appears twice.
func (a *Account) DeriveTransactionID(payloadHex, timestamp string) string {
	return TransactionID(a.blockchain, a.address, a.address, payloadHex, a.nonce, timestamp)
}

// TransactionID is the pure form of DeriveTransactionID.
func TransactionID(blockchain, from, to, payloadHex string, nonce int64, timestamp string) string {
	return utils.TransactionID(blockchain, from, to, payloadHex, nonce, timestamp)
}

// SubmitCertificate certifies data on the ledger using the current nonce.
// Callers refresh the nonce with UpdateAccount first. The gateway reply is
// returned as received; its Result code is not interpreted here. The
// transaction id is available from LatestTxID afterwards.
func (a *Account) SubmitCertificate(ctx context.Context, data []byte, privateKey string) (*types.GatewayResponse, error) {
	if err := a.requireOpen(); err != nil {
		return nil, err
	}
	labels := map[string]string{"endpoint": types.EndpointAddTransaction}

	payload, err := BuildCertificatePayload(data)
	if err != nil {
		return nil, a.fail(types.WrapError(types.ErrInvalidRequest, err, "invalid certificate payload"))
	}
	timestamp := utils.FormattedTimestamp(a.now())
	id := a.DeriveTransactionID(payload, timestamp)

	signature, err := a.SignData(id, privateKey)
	if err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		ID:         id,
		From:       utils.HexFix(a.address),
		To:         utils.HexFix(a.address),
		Timestamp:  timestamp,
		Payload:    payload,
		Nonce:      strconv.FormatInt(a.nonce, 10),
		Signature:  signature,
		Blockchain: utils.HexFix(a.blockchain),
		Type:       types.TxTypeCertificate,
		Version:    a.config.Version,
	}
	if err := utils.ValidateTransaction(tx); err != nil {
		return nil, a.fail(err)
	}
	if a.verifier != nil {
		if err := a.preflight(tx, privateKey); err != nil {
			return nil, a.fail(err)
		}
	}

	resp, err := a.client.AddTransaction(ctx, a.nagURL, a.networkNode, tx)
	if err != nil {
		a.metrics.IncCounter(metrics.EventSubmitFailed, labels)
		return nil, a.fail(err)
	}

	a.latestTxID = id
	a.lastError = ""
	a.metrics.IncCounter(metrics.EventSubmit, labels)
	a.log.Info("certificate submitted", map[string]any{
		"id":     id,
		"nonce":  a.nonce,
		"result": resp.Result,
	})
	return resp, nil
}

// preflight runs the configured verifier against the signed transaction.
// The public key set on the account is used when present, otherwise it is
// derived from privateKey.
func (a *Account) preflight(tx *types.Transaction, privateKey string) error {
	publicKey := a.publicKey
	if publicKey == "" {
		var err error
		if publicKey, err = utils.PublicKeyHex(privateKey); err != nil {
			return err
		}
	}
	result, err := a.verifier.Verify(tx, publicKey)
	if err != nil {
		return err
	}
	if !result.IsValid {
		return types.NewError(types.ErrInvalidRequest, "transaction failed verification: %s", result.InvalidReason)
	}
	return nil
}

// SubmitCertificateObject submits the JSON form of a certificate.
func (a *Account) SubmitCertificateObject(ctx context.Context, cert *certificate.Certificate, privateKey string) (*types.GatewayResponse, error) {
	if err := a.requireOpen(); err != nil {
		return nil, err
	}
	js, err := cert.GetJSONCertificate()
	if err != nil {
		return nil, a.fail(err)
	}
	return a.SubmitCertificate(ctx, []byte(js), privateKey)
}

// GetTransactionByID searches blocks start..end for a transaction.
func (a *Account) GetTransactionByID(ctx context.Context, txID string, start, end int64) (*types.TransactionLookup, error) {
	if err := a.requireOpen(); err != nil {
		return nil, err
	}
	if err := utils.ValidateTransactionID(txID); err != nil {
		return nil, a.fail(err)
	}

	req := &types.TransactionByIDRequest{
		Blockchain: utils.HexFix(a.blockchain),
		ID:         utils.HexFix(txID),
		Start:      strconv.FormatInt(start, 10),
		End:        strconv.FormatInt(end, 10),
		Version:    a.config.Version,
	}
	resp, err := a.client.GetTransactionByID(ctx, a.nagURL, a.networkNode, req)
	if err != nil {
		return nil, a.fail(err)
	}
	a.lastError = ""
	return resp, nil
}

// GetTransaction looks a transaction up in a single block.
func (a *Account) GetTransaction(ctx context.Context, blockNum int64, txID string) (*types.TransactionLookup, error) {
	return a.GetTransactionByID(ctx, txID, blockNum, blockNum)
}

// requireOpen is the hard precondition of every network operation.
func (a *Account) requireOpen() error {
	if a.address == "" {
		return a.fail(types.NewError(types.ErrNotOpen, "Account is not open"))
	}
	return nil
}

func (a *Account) fail(err error) error {
	a.lastError = err.Error()
	return err
}
