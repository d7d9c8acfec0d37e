package vidcrypt

import (
	"crypto/subtle"
	"fmt"
	"runtime"
	"sync"
)

// SecureKey holds 32 bytes of AES-256 key material derived from a passphrase.
//
// A SecureKey belongs to exactly one encrypt or decrypt operation. Close wipes
// the buffer; after that the key has length zero and every cipher call made
// with it fails with ErrInvalidKeyLength. The key bytes are only reachable
// from inside this package.
type SecureKey struct {
	mu       sync.Mutex
	key      []byte
	released bool
}

// NewSecureKey normalizes a passphrase into a 32-byte key, zero-padding short
// passphrases. Passphrases longer than 32 bytes are rejected.
func NewSecureKey(passphrase []byte) (*SecureKey, error) {
	if len(passphrase) > KeySize {
		return nil, &ValidationError{
			Field:   "key",
			Value:   len(passphrase),
			Message: fmt.Sprintf("passphrase must be at most %d bytes, got %d", KeySize, len(passphrase)),
			Err:     ErrInvalidKeyLength,
		}
	}

	key := make([]byte, KeySize)
	copy(key, passphrase)
	return &SecureKey{key: key}, nil
}

// WithSecureKey creates a key from passphrase, runs fn with it and wipes the
// key when fn returns, whether or not fn failed.
func WithSecureKey(passphrase []byte, fn func(*SecureKey) error) error {
	key, err := NewSecureKey(passphrase)
	if err != nil {
		return err
	}
	defer key.Close()
	return fn(key)
}

// Size returns the key length in bytes: KeySize, or 0 once released.
func (k *SecureKey) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.key)
}

// Released reports whether Close has been called.
func (k *SecureKey) Released() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.released
}

// Close overwrites the key material with zeros. It is safe to call more than
// once.
func (k *SecureKey) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return nil
	}
	wipe(k.key)
	k.key = nil
	k.released = true
	return nil
}

// use runs fn with the key bytes. fn must not retain the slice.
func (k *SecureKey) use(fn func(key []byte) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return fn(k.key)
}

// wipe zeroes b in a way the compiler will not elide.
func wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCompare(b, zeros)
	copy(b, zeros)
	runtime.KeepAlive(b)
}
