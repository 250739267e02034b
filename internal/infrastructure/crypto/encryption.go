// Package crypto seals provider credentials at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Sealed is a base64 encoded ciphertext with the nonce used to produce it.
type Sealed struct {
	Ciphertext string
	Nonce      string
}

// EncryptionService seals and opens secrets. Associated data binds a ciphertext to
// its row so it cannot be replayed under another owner.
type EncryptionService interface {
	Seal(plaintext string, associatedData []byte) (Sealed, error)
	Open(sealed Sealed, associatedData []byte) (string, error)
}

// AESEncryptionService implements EncryptionService with AES-256-GCM.
type AESEncryptionService struct {
	aead cipher.AEAD
}

// NewAESEncryptionService expects a 64 character hex key.
func NewAESEncryptionService(hexKey string) (*AESEncryptionService, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("invalid encryption key format")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	return &AESEncryptionService{aead: aead}, nil
}

func (s *AESEncryptionService) Seal(plaintext string, associatedData []byte) (Sealed, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Sealed{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := s.aead.Seal(nil, nonce, []byte(plaintext), associatedData)

	return Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

func (s *AESEncryptionService) Open(sealed Sealed, associatedData []byte) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(sealed.Nonce)
	if err != nil {
		return "", fmt.Errorf("invalid nonce encoding: %w", err)
	}
	if len(nonce) != s.aead.NonceSize() {
		return "", errors.New("invalid nonce length")
	}

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plaintext), nil
}
