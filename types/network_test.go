package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionLookupShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		kind     ResponseKind
		notFound bool
		pending  bool
	}{
		{"not found", `{"Result":200,"Response":"Transaction Not Found"}`, ResponseMessage, true, false},
		{"other message", `{"Result":108,"Response":"Wrong Blockchain"}`, ResponseMessage, false, false},
		{"pending", `{"Result":200,"Response":{"Status":"Pending"}}`, ResponseDetail, false, true},
		{"lowercase pending", `{"Result":200,"Response":{"Status":"pending"}}`, ResponseDetail, false, true},
		{"confirmed", `{"Result":200,"Response":{"Status":"Confirmed"}}`, ResponseDetail, false, false},
		{"null", `{"Result":200,"Response":null}`, ResponseEmpty, false, false},
		{"missing", `{"Result":200}`, ResponseEmpty, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lookup TransactionLookup
			require.NoError(t, json.Unmarshal([]byte(tt.body), &lookup))
			assert.Equal(t, tt.kind, lookup.Response.Kind)
			assert.Equal(t, tt.notFound, lookup.Response.IsNotFound())
			if tt.kind == ResponseDetail {
				require.NotNil(t, lookup.Response.Detail)
				assert.Equal(t, tt.pending, lookup.Response.Detail.IsPending())
			} else {
				assert.Nil(t, lookup.Response.Detail)
			}
		})
	}
}

func TestTransactionResponseRejectsOtherShapes(t *testing.T) {
	for _, body := range []string{
		`{"Result":200,"Response":42}`,
		`{"Result":200,"Response":[1,2]}`,
		`{"Result":200,"Response":true}`,
	} {
		var lookup TransactionLookup
		assert.Error(t, json.Unmarshal([]byte(body), &lookup), body)
	}
}

func TestTransactionDetailFields(t *testing.T) {
	var detail TransactionDetail
	require.NoError(t, json.Unmarshal([]byte(`{
		"ID": "ab12",
		"Status": "Executed",
		"BlockID": "0f0f",
		"Nonce": 7,
		"Payload": {"Action": "CP_CERTIFICATE"}
	}`), &detail))

	assert.Equal(t, "Executed", detail.Status)
	assert.False(t, detail.IsPending())
	assert.Equal(t, "ab12", detail.String("ID"))
	assert.Equal(t, "", detail.String("Nonce"))
	assert.Equal(t, "", detail.String("Missing"))

	var nonce int
	require.NoError(t, detail.Field("Nonce", &nonce))
	assert.Equal(t, 7, nonce)

	var payload ActionPayload
	require.NoError(t, detail.Field("Payload", &payload))
	assert.Equal(t, ActionCertificate, payload.Action)

	assert.Error(t, detail.Field("Missing", &nonce))

	out, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"ab12","Status":"Executed","BlockID":"0f0f","Nonce":7,"Payload":{"Action":"CP_CERTIFICATE"}}`, string(out))
}

func TestTransactionDetailNonStringStatus(t *testing.T) {
	var detail TransactionDetail
	require.NoError(t, json.Unmarshal([]byte(`{"Status": 3}`), &detail))
	assert.Equal(t, "", detail.Status)
	assert.False(t, detail.IsPending())
}

func TestTransactionResponseMarshal(t *testing.T) {
	out, err := json.Marshal(TransactionResponse{Kind: ResponseMessage, Message: TransactionNotFound})
	require.NoError(t, err)
	assert.Equal(t, `"Transaction Not Found"`, string(out))

	out, err = json.Marshal(TransactionResponse{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestNonceRecordShapes(t *testing.T) {
	tests := []struct {
		body  string
		nonce string
	}{
		{`{"Result":200,"Response":{"Nonce":41}}`, "41"},
		{`{"Result":200,"Response":{"Nonce":"41"}}`, "41"},
		{`{"Result":115,"Response":"Address not found"}`, ""},
		{`{"Result":200,"Response":{}}`, ""},
	}
	for _, tt := range tests {
		var resp WalletNonceResponse
		require.NoError(t, json.Unmarshal([]byte(tt.body), &resp), tt.body)
		if tt.nonce == "" {
			assert.True(t, resp.Response == nil || resp.Response.Nonce == nil, tt.body)
			continue
		}
		require.NotNil(t, resp.Response)
		require.NotNil(t, resp.Response.Nonce)
		assert.Equal(t, tt.nonce, resp.Response.Nonce.String())
	}
}

func TestGatewayResponseMessage(t *testing.T) {
	var resp GatewayResponse
	require.NoError(t, json.Unmarshal([]byte(`{"Result":200,"Response":"Transaction Added","Node":"n1"}`), &resp))
	msg, ok := resp.Message()
	assert.True(t, ok)
	assert.Equal(t, "Transaction Added", msg)
	assert.Equal(t, "n1", resp.Node)

	require.NoError(t, json.Unmarshal([]byte(`{"Result":200,"Response":{"TxID":"ab"}}`), &resp))
	_, ok = resp.Message()
	assert.False(t, ok)
}

func TestCEPError(t *testing.T) {
	base := NewError(ErrTransport, "Network response was not ok. HTTP Code: %d", 502)
	assert.Equal(t, "Network response was not ok. HTTP Code: 502", base.Error())
	assert.Equal(t, ErrTransport, Code(base))

	wrapped := WrapError(ErrDecode, assert.AnError, "Invalid JSON response")
	assert.Contains(t, wrapped.Error(), assert.AnError.Error())
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.True(t, IsCode(wrapped, ErrDecode))
	assert.False(t, IsCode(wrapped, ErrTransport))

	assert.Equal(t, "", Code(assert.AnError))
	assert.False(t, IsCode(nil, ErrDecode))
}
