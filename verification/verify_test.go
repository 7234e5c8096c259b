package verification

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circularprotocol/cep/types"
	"github.com/circularprotocol/cep/utils"
)

const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	otherKey    = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	testAddress = "0x5c3b7a1f2e8d9c4b6a0f1e2d3c4b5a69788796a5b4c3d2e1f0a9b8c7d6e5f4a3"
)

var testTime = time.Date(2025, time.March, 3, 9, 5, 7, 0, time.UTC)

func signedTx(t *testing.T, data string, nonce int64) *types.Transaction {
	t.Helper()
	action, err := json.Marshal(types.ActionPayload{
		Action: types.ActionCertificate,
		Data:   utils.StringToHex([]byte(data)),
	})
	require.NoError(t, err)
	payload := utils.StringToHex(action)
	timestamp := utils.FormattedTimestamp(testTime)

	id := utils.TransactionID(types.DefaultChain, testAddress, testAddress, payload, nonce, timestamp)
	sig, err := utils.SignDER([]byte(id), testKey)
	require.NoError(t, err)

	return &types.Transaction{
		ID:         id,
		From:       utils.HexFix(testAddress),
		To:         utils.HexFix(testAddress),
		Timestamp:  timestamp,
		Payload:    payload,
		Nonce:      strconv.FormatInt(nonce, 10),
		Signature:  sig,
		Blockchain: utils.HexFix(types.DefaultChain),
		Type:       types.TxTypeCertificate,
		Version:    types.LibVersion,
	}
}

func publicKey(t *testing.T, key string) string {
	t.Helper()
	pub, err := utils.PublicKeyHex(key)
	require.NoError(t, err)
	return pub
}

func TestVerifyValidTransaction(t *testing.T) {
	svc := NewVerificationService(0)
	tx := signedTx(t, "hello", 7)

	result, err := svc.Verify(tx, publicKey(t, testKey))
	require.NoError(t, err)
	assert.True(t, result.IsValid, result.InvalidReason)
	assert.Equal(t, tx.ID, result.ID)
	assert.Equal(t, "hello", result.Data)
	assert.Equal(t, utils.HexFix(testAddress), result.Sender)
	require.NotNil(t, result.Timestamp)
	assert.True(t, result.Timestamp.Equal(testTime))
}

func TestVerifyRejectsTamperedTransactions(t *testing.T) {
	tests := map[string]struct {
		mutate func(tx *types.Transaction)
		reason string
	}{
		"nonce changed": {
			func(tx *types.Transaction) { tx.Nonce = "8" },
			"transaction id does not match its contents",
		},
		"payload changed": {
			func(tx *types.Transaction) { tx.Payload = utils.StringToHex([]byte(`{"Action":"CP_CERTIFICATE","Data":"00"}`)) },
			"transaction id does not match its contents",
		},
		"recipient changed": {
			func(tx *types.Transaction) { tx.To = "abcdef" },
			"certificate must be sent to its own address",
		},
		"wrong type": {
			func(tx *types.Transaction) { tx.Type = "C_TYPE_COIN" },
			"unsupported transaction type C_TYPE_COIN",
		},
		"signature from other key": {
			func(tx *types.Transaction) {
				sig, err := utils.SignDER([]byte(tx.ID), otherKey)
				if err == nil {
					tx.Signature = sig
				}
			},
			"signature does not match public key",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc := NewVerificationService(0)
			tx := signedTx(t, "hello", 7)
			tt.mutate(tx)

			result, err := svc.Verify(tx, publicKey(t, testKey))
			require.NoError(t, err)
			assert.False(t, result.IsValid)
			assert.Equal(t, tt.reason, result.InvalidReason)
		})
	}
}

func TestVerifyRejectsMalformedFields(t *testing.T) {
	svc := NewVerificationService(0)

	short := signedTx(t, "hello", 7)
	short.ID = "abcd"
	result, err := svc.Verify(short, publicKey(t, testKey))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.InvalidReason, "invalid transaction")

	badSig := signedTx(t, "hello", 7)
	badSig.Signature = "3000"
	result, err = svc.Verify(badSig, publicKey(t, testKey))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.InvalidReason, "invalid signature")
}

func TestVerifyRejectsNonCertificatePayload(t *testing.T) {
	svc := NewVerificationService(0)
	tx := signedTx(t, "hello", 7)

	tx.Payload = utils.StringToHex([]byte(`{"Action":"CP_SEND","Data":"00"}`))
	nonce, _ := strconv.ParseInt(tx.Nonce, 10, 64)
	tx.ID = utils.TransactionID(tx.Blockchain, tx.From, tx.To, tx.Payload, nonce, tx.Timestamp)
	sig, err := utils.SignDER([]byte(tx.ID), testKey)
	require.NoError(t, err)
	tx.Signature = sig

	result, err := svc.Verify(tx, publicKey(t, testKey))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.InvalidReason, `unexpected action "CP_SEND"`)
}

func TestVerifyClockSkew(t *testing.T) {
	svc := NewVerificationService(time.Minute)
	tx := signedTx(t, "hello", 7)

	svc.now = func() time.Time { return testTime.Add(30 * time.Second) }
	result, err := svc.Verify(tx, publicKey(t, testKey))
	require.NoError(t, err)
	assert.True(t, result.IsValid, result.InvalidReason)

	svc.now = func() time.Time { return testTime.Add(-2 * time.Minute) }
	result, err = svc.Verify(tx, publicKey(t, testKey))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.InvalidReason, "away from local time")
}

func TestVerifyInputErrors(t *testing.T) {
	svc := NewVerificationService(0)

	_, err := svc.Verify(nil, publicKey(t, testKey))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))

	for _, pub := range []string{"", "zz", "04abcd"} {
		_, err := svc.Verify(signedTx(t, "hello", 7), pub)
		require.Error(t, err, pub)
		assert.True(t, types.IsCode(err, types.ErrInvalidKey))
	}
}

func TestBatchVerify(t *testing.T) {
	svc := NewVerificationService(0)
	tampered := signedTx(t, "two", 2)
	tampered.Nonce = "99"
	txs := []*types.Transaction{signedTx(t, "one", 1), tampered, signedTx(t, "three", 3)}

	results, err := svc.BatchVerify(context.Background(), txs, publicKey(t, testKey))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].IsValid)
	assert.Equal(t, "one", results[0].Data)
	assert.False(t, results[1].IsValid)
	assert.True(t, results[2].IsValid)
	assert.Equal(t, "three", results[2].Data)

	_, err = svc.BatchVerify(context.Background(), []*types.Transaction{nil}, publicKey(t, testKey))
	assert.Error(t, err)
}
