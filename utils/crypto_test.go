package utils

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circularprotocol/cep/types"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestPrivateKeyFromHex(t *testing.T) {
	key, err := PrivateKeyFromHex(testKey)
	require.NoError(t, err)
	assert.Equal(t, testKey, hex.EncodeToString(key.Serialize()))

	prefixed, err := PrivateKeyFromHex("0x" + testKey)
	require.NoError(t, err)
	assert.True(t, key.Key.Equals(&prefixed.Key))
}

func TestPrivateKeyFromHexRejectsBadKeys(t *testing.T) {
	tests := map[string]string{
		"empty":     "",
		"not hex":   strings.Repeat("zz", 32),
		"too short": "abcd",
		"zero":      strings.Repeat("00", 32),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := PrivateKeyFromHex(in)
			require.Error(t, err)
			assert.True(t, types.IsCode(err, types.ErrInvalidKey))
		})
	}
}

func TestPublicKeyHexMatchesEthereum(t *testing.T) {
	pub, err := PublicKeyHex(testKey)
	require.NoError(t, err)

	ecdsaKey, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(crypto.FromECDSAPub(&ecdsaKey.PublicKey)), pub)
	assert.True(t, strings.HasPrefix(pub, "04"))
	assert.Len(t, pub, 130)
}

func TestSignAndVerifyDER(t *testing.T) {
	pub, err := PublicKeyHex(testKey)
	require.NoError(t, err)

	msg := []byte("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")
	sig, err := SignDER(msg, testKey)
	require.NoError(t, err)

	raw, err := hex.DecodeString(sig)
	require.NoError(t, err)
	assert.Equal(t, byte(0x30), raw[0], "DER sequence tag")

	ok, err := VerifyDER(msg, sig, pub)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyDER([]byte("tampered"), sig, pub)
	require.NoError(t, err)
	assert.False(t, ok)

	// RFC6979 nonces make signatures deterministic
	again, err := SignDER(msg, testKey)
	require.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestVerifyDERRejectsMalformedInput(t *testing.T) {
	pub, err := PublicKeyHex(testKey)
	require.NoError(t, err)
	sig, err := SignDER([]byte("data"), testKey)
	require.NoError(t, err)

	_, err = VerifyDER([]byte("data"), "zz", pub)
	assert.Error(t, err)
	_, err = VerifyDER([]byte("data"), "3000", pub)
	assert.Error(t, err)
	_, err = VerifyDER([]byte("data"), sig, "04abcd")
	assert.Error(t, err)
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(nil))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", SHA256Hex([]byte("hello")))
}
