package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/circularprotocol/cep/types"
)

// PrivateKeyFromHex parses a hex-encoded secp256k1 private key.
func PrivateKeyFromHex(hexKey string) (*secp256k1.PrivateKey, error) {
	// go-ethereum rejects zero and out-of-range scalars for us
	ecdsaKey, err := crypto.HexToECDSA(HexFix(strings.TrimSpace(hexKey)))
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidKey, err, "invalid private key")
	}
	return secp256k1.PrivKeyFromBytes(crypto.FromECDSA(ecdsaKey)), nil
}

// PublicKeyHex returns the uncompressed public key for a private key, hex encoded.
func PublicKeyHex(hexKey string) (string, error) {
	key, err := PrivateKeyFromHex(hexKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key.PubKey().SerializeUncompressed()), nil
}

// SignDER hashes data with SHA-256 and signs the digest, returning the
// DER-encoded signature as lowercase hex.
func SignDER(data []byte, hexKey string) (string, error) {
	key, err := PrivateKeyFromHex(hexKey)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(data)
	sig := ecdsa.Sign(key, digest[:])
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifyDER checks a hex DER signature over sha256(data) against a hex
// public key (compressed or uncompressed).
func VerifyDER(data []byte, signatureHex, publicKeyHex string) (bool, error) {
	sigBytes, err := hex.DecodeString(HexFix(signatureHex))
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false, fmt.Errorf("failed to parse signature: %w", err)
	}

	pub, err := ParsePublicKeyHex(publicKeyHex)
	if err != nil {
		return false, err
	}

	digest := sha256.Sum256(data)
	return sig.Verify(digest[:], pub), nil
}

// ParsePublicKeyHex parses a hex secp256k1 public key, compressed or not.
func ParsePublicKeyHex(publicKeyHex string) (*secp256k1.PublicKey, error) {
	pubBytes, err := hex.DecodeString(HexFix(strings.TrimSpace(publicKeyHex)))
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidKey, err, "invalid public key")
	}
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidKey, err, "invalid public key")
	}
	return pub, nil
}

// SHA256Hex returns the lowercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
