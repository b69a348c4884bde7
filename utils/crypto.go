package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var ErrCipherTextTooShort = errors.New("cipher text too short")

const (
	tokenKeyInfo = "botdeck token encryption"
	stateKeyInfo = "botdeck oauth state"
)

// Keys holds the symmetric keys derived from APP_SECRET.
type Keys struct {
	Token []byte
	State []byte
}

// DeriveKeys expands the application secret into independent 32 byte keys.
func DeriveKeys(secret string) (Keys, error) {
	if len(secret) < 32 {
		return Keys{}, fmt.Errorf("app secret must be at least 32 characters, got %d", len(secret))
	}
	token, err := deriveKey(secret, tokenKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	state, err := deriveKey(secret, stateKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Token: token, State: state}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %q key: %w", info, err)
	}
	return key, nil
}

// Cipher encrypts provider tokens at rest with AES-256-GCM.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM block: %w", err)
	}
	return &Cipher{aead: aesGCM}, nil
}

func (c *Cipher) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	cipherText := c.aead.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

func (c *Cipher) Decrypt(encrypted string) (string, error) {
	cipherData, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(cipherData) < nonceSize {
		return "", ErrCipherTextTooShort
	}

	nonce := cipherData[:nonceSize]
	cipherText := cipherData[nonceSize:]

	plainText, err := c.aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt message: %w", err)
	}

	return string(plainText), nil
}
