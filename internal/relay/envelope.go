package relay

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// symKeySize is the symmetric key length shared through the pairing URI.
const symKeySize = chacha20poly1305.KeySize

// Seal encrypts a payload with the topic's symmetric key and returns the
// base64 envelope (nonce || ciphertext) carried on the wire.
func Seal(symKey, plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.New(symKey)
	if err != nil {
		return "", fmt.Errorf("relay: build cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("relay: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a base64 envelope produced by Seal.
func Open(symKey []byte, envelope string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("relay: decode envelope: %w", err)
	}
	aead, err := chacha20poly1305.New(symKey)
	if err != nil {
		return nil, fmt.Errorf("relay: build cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return nil, fmt.Errorf("relay: envelope shorter than nonce")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("relay: open envelope: %w", err)
	}
	return plaintext, nil
}

// DeriveSessionKey derives the session symmetric key from the pairing key and
// the session topic, so both peers can compute it without another exchange.
func DeriveSessionKey(pairingKey []byte, sessionTopic string) ([]byte, error) {
	reader := hkdf.New(sha256.New, pairingKey, nil, []byte("session:"+sessionTopic))
	key := make([]byte, symKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("relay: derive session key: %w", err)
	}
	return key, nil
}

// NewTopic returns a fresh random topic identifier.
func NewTopic() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("relay: topic: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
