package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"sync"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// argon2id parameters.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	ErrSecretNotSet = errors.New("encryption secret is empty")
	ErrInvalidBlob  = errors.New("invalid sealed blob")
)

// KeyManager seals data with keys derived from a passphrase. Every sealed
// blob carries its own salt, so the passphrase is the only thing to keep.
type KeyManager struct {
	secret []byte

	// Only the most recently derived key is cached.
	mu        sync.Mutex
	cacheSalt []byte
	cacheKey  []byte
}

// NewKeyManager creates a key manager for secret.
func NewKeyManager(secret string) (*KeyManager, error) {
	if secret == "" {
		return nil, ErrSecretNotSet
	}
	return &KeyManager{secret: []byte(secret)}, nil
}

// Seal encrypts plaintext and returns base64(salt + nonce + ciphertext + tag).
func (km *KeyManager) Seal(plaintext []byte) (string, error) {
	salt, err := randomBytes(saltSize)
	if err != nil {
		return "", err
	}

	ciphertext, err := Encrypt(plaintext, km.key(salt))
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(append(salt, ciphertext...)), nil
}

// Open decrypts a blob produced by Seal.
func (km *KeyManager) Open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrInvalidBlob
	}
	if len(raw) < saltSize {
		return nil, ErrInvalidBlob
	}

	salt, ciphertext := raw[:saltSize], raw[saltSize:]
	return Decrypt(ciphertext, km.key(salt))
}

func (km *KeyManager) key(salt []byte) []byte {
	km.mu.Lock()
	if km.cacheKey != nil && bytes.Equal(km.cacheSalt, salt) {
		key := km.cacheKey
		km.mu.Unlock()
		return key
	}
	km.mu.Unlock()

	key := argon2.IDKey(km.secret, salt, argonTime, argonMemory, argonThreads, KeySize)

	km.mu.Lock()
	km.cacheSalt = append([]byte(nil), salt...)
	km.cacheKey = key
	km.mu.Unlock()
	return key
}
