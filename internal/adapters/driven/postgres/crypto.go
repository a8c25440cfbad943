package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

const (
	// fieldVersion is the version byte for the encrypted field format.
	// This allows future format changes while maintaining backward compatibility.
	fieldVersion = 0x01

	// nonceSize is the AES-GCM nonce size (12 bytes is standard)
	nonceSize = 12

	// keySize is the required key size for AES-256
	keySize = 32
)

// hkdfInfo binds derived keys to this use. Changing it invalidates every
// stored ciphertext.
var hkdfInfo = []byte("agentllm token field encryption v1")

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrMissingKey is returned when no key material is supplied.
	ErrMissingKey = errors.New("encryption key is not set")
)

// DeriveKey turns configured key material into a 32-byte AES-256 key.
// A 64-character hex string is decoded and used directly; anything else is
// treated as a passphrase and stretched with HKDF-SHA256.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}

	if len(secret) == 2*keySize {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}

	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// FieldCodec handles AES-256-GCM encryption of individual token fields.
// The wire form is base64(version(1) || nonce(12) || ciphertext), suitable
// for TEXT columns. Decryption failures of any kind surface as
// domain.ErrDecryption so callers can treat wrong-key, truncated and
// tampered values uniformly.
type FieldCodec struct {
	gcm cipher.AEAD
}

// NewFieldCodec creates a codec with the given 32-byte key.
func NewFieldCodec(key []byte) (*FieldCodec, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &FieldCodec{gcm: gcm}, nil
}

// EncryptField encrypts a plaintext field value. The output is never equal
// for two calls, even with identical input, because of the random nonce.
func (c *FieldCodec) EncryptField(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 1+nonceSize+len(ciphertext))
	blob[0] = fieldVersion
	copy(blob[1:1+nonceSize], nonce)
	copy(blob[1+nonceSize:], ciphertext)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptField decrypts a stored field value back to plaintext.
func (c *FieldCodec) DecryptField(encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", domain.ErrDecryption)
	}

	if len(blob) < 1+nonceSize+c.gcm.Overhead() {
		return "", fmt.Errorf("%w: blob too small", domain.ErrDecryption)
	}
	if blob[0] != fieldVersion {
		return "", fmt.Errorf("%w: unsupported version %d", domain.ErrDecryption, blob[0])
	}

	nonce := blob[1 : 1+nonceSize]
	ciphertext := blob[1+nonceSize:]

	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", domain.ErrDecryption
	}
	return string(plaintext), nil
}
