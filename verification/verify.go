package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/circularprotocol/cep/types"
	"github.com/circularprotocol/cep/utils"
)

// Verifier checks a signed transaction against the public key of its sender.
type Verifier interface {
	Verify(tx *types.Transaction, publicKey string) (*types.VerificationResult, error)
}

var _ Verifier = (*VerificationService)(nil)

// VerificationService re-runs locally the checks the NAG applies to a
// certificate transaction before accepting it.
type VerificationService struct {
	maxSkew time.Duration
	now     func() time.Time
}

// NewVerificationService creates a verifier. A positive maxSkew also rejects
// transactions whose timestamp is further than maxSkew from the local clock.
func NewVerificationService(maxSkew time.Duration) *VerificationService {
	return &VerificationService{
		maxSkew: maxSkew,
		now:     time.Now,
	}
}

// Verify checks a transaction. A transaction that fails a check yields a
// result with IsValid false and a nil error. A nil transaction or an
// unparsable public key is an error.
func (s *VerificationService) Verify(tx *types.Transaction, publicKey string) (*types.VerificationResult, error) {
	if tx == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "transaction is nil")
	}
	if _, err := utils.ParsePublicKeyHex(publicKey); err != nil {
		return nil, err
	}

	if err := utils.ValidateTransaction(tx); err != nil {
		return invalid(tx, "invalid transaction: %v", err), nil
	}
	if tx.Type != types.TxTypeCertificate {
		return invalid(tx, "unsupported transaction type %s", tx.Type), nil
	}
	if !strings.EqualFold(utils.HexFix(tx.From), utils.HexFix(tx.To)) {
		return invalid(tx, "certificate must be sent to its own address"), nil
	}

	ts, err := utils.ParseTimestamp(tx.Timestamp)
	if err != nil {
		return invalid(tx, "invalid timestamp: %v", err), nil
	}
	if s.maxSkew > 0 {
		skew := s.now().Sub(ts)
		if skew < 0 {
			skew = -skew
		}
		if skew > s.maxSkew {
			return invalid(tx, "timestamp is %s away from local time", skew.Round(time.Second)), nil
		}
	}

	nonce, err := strconv.ParseInt(tx.Nonce, 10, 64)
	if err != nil {
		return invalid(tx, "invalid nonce %q", tx.Nonce), nil
	}
	id := utils.TransactionID(tx.Blockchain, tx.From, tx.To, tx.Payload, nonce, tx.Timestamp)
	if !strings.EqualFold(id, utils.HexFix(tx.ID)) {
		return invalid(tx, "transaction id does not match its contents"), nil
	}

	data, err := certificateData(tx.Payload)
	if err != nil {
		return invalid(tx, "invalid payload: %v", err), nil
	}

	ok, err := utils.VerifyDER([]byte(id), tx.Signature, publicKey)
	if err != nil {
		return invalid(tx, "invalid signature: %v", err), nil
	}
	if !ok {
		return invalid(tx, "signature does not match public key"), nil
	}

	return &types.VerificationResult{
		IsValid:   true,
		ID:        id,
		Sender:    utils.HexFix(tx.From),
		Timestamp: &ts,
		Data:      data,
	}, nil
}

// BatchVerify verifies multiple transactions from one sender concurrently.
// Results keep the order of txs.
func (s *VerificationService) BatchVerify(ctx context.Context, txs []*types.Transaction, publicKey string) ([]*types.VerificationResult, error) {
	results := make([]*types.VerificationResult, len(txs))
	errs := make([]error, len(txs))

	type verificationResult struct {
		index  int
		result *types.VerificationResult
		err    error
	}
	resultChan := make(chan verificationResult, len(txs))

	for i, tx := range txs {
		go func(index int, tx *types.Transaction) {
			result, err := s.Verify(tx, publicKey)
			resultChan <- verificationResult{index: index, result: result, err: err}
		}(i, tx)
	}

	for range txs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-resultChan:
			results[res.index] = res.result
			errs[res.index] = res.err
		}
	}

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// certificateData unwraps a CP_CERTIFICATE payload and returns the
// certified data.
func certificateData(payloadHex string) (string, error) {
	raw, err := utils.HexToString(payloadHex)
	if err != nil {
		return "", err
	}
	var action types.ActionPayload
	if err := json.Unmarshal(raw, &action); err != nil {
		return "", fmt.Errorf("payload is not JSON: %w", err)
	}
	if action.Action != types.ActionCertificate {
		return "", fmt.Errorf("unexpected action %q", action.Action)
	}
	data, err := utils.HexToString(action.Data)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func invalid(tx *types.Transaction, format string, args ...any) *types.VerificationResult {
	return &types.VerificationResult{
		IsValid:       false,
		InvalidReason: fmt.Sprintf(format, args...),
		ID:            tx.ID,
		Sender:        utils.HexFix(tx.From),
	}
}
