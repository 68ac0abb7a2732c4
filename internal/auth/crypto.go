package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	encryptionKey []byte

	// ErrCryptoNotInitialized is returned when encryption is attempted before InitCrypto
	ErrCryptoNotInitialized = errors.New("encryption key not initialized")
)

// InitCrypto initializes the encryption by setting up the encryption key.
// The key encrypts OAuth access tokens before they are stored in sessions.
func InitCrypto() error {
	keyEnv := "SESSION_TOKEN_ENCRYPTION_KEY"
	key := os.Getenv(keyEnv)
	if key == "" {
		return fmt.Errorf("required environment variable %s is not set", keyEnv)
	}

	// AES-256 needs exactly 32 bytes
	if len(key) != 32 {
		return fmt.Errorf("%s must be exactly 32 bytes, got %d", keyEnv, len(key))
	}

	encryptionKey = []byte(key)
	return nil
}

// EncryptToken encrypts a token with AES-GCM and returns it base64-encoded
func EncryptToken(plaintext string) (string, error) {
	if encryptionKey == nil {
		return "", ErrCryptoNotInitialized
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptToken reverses EncryptToken
func DecryptToken(encoded string) (string, error) {
	if encryptionKey == nil {
		return "", ErrCryptoNotInitialized
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}

	return string(plaintext), nil
}
