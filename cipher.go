package vidcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"
)

// AeadPayload is the output of one AES-256-GCM encryption
type AeadPayload struct {
	Ciphertext []byte
	Nonce      []byte // NonceSize bytes
	Tag        []byte // TagSize bytes
}

// CipherEngine provides AEAD encryption/decryption
type CipherEngine interface {
	// Encrypt encrypts plaintext under key with a fresh random nonce
	Encrypt(plaintext []byte, key *SecureKey) (*AeadPayload, error)

	// Decrypt verifies and decrypts payload under key
	Decrypt(payload *AeadPayload, key *SecureKey) ([]byte, error)
}

// AESGCMEngine implements CipherEngine using AES-256-GCM
type AESGCMEngine struct {
	random io.Reader
}

// NewAESGCMEngine creates a new AES-256-GCM cipher engine reading nonces from
// crypto/rand
func NewAESGCMEngine() *AESGCMEngine {
	return &AESGCMEngine{random: rand.Reader}
}

// NewAESGCMEngineWithRandom creates an engine that reads nonces from r.
func NewAESGCMEngineWithRandom(r io.Reader) *AESGCMEngine {
	return &AESGCMEngine{random: r}
}

// newGCM builds the AEAD for a 32-byte key
func newGCM(key []byte) (cipher.AEAD, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewEncryptionError("init", ErrCipherInitFailed, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewEncryptionError("init", ErrCipherInitFailed, err)
	}
	return aead, nil
}

// Encrypt encrypts plaintext using AES-256-GCM. Every call draws a new nonce;
// failures are returned as-is and never retried.
func (e *AESGCMEngine) Encrypt(plaintext []byte, key *SecureKey) (*AeadPayload, error) {
	if key == nil {
		return nil, NewValidationError("key", nil, "key cannot be nil", ErrNilKey)
	}
	if len(plaintext) == 0 {
		return nil, NewValidationError("plaintext", 0, "plaintext cannot be empty", ErrEmptyInput)
	}

	var payload *AeadPayload
	err := key.use(func(k []byte) error {
		aead, err := newGCM(k)
		if err != nil {
			return err
		}

		nonce := make([]byte, NonceSize)
		if _, err := io.ReadFull(e.random, nonce); err != nil {
			return NewEncryptionError("encrypt", ErrRandomnessUnavailable, err)
		}

		sealed := aead.Seal(nil, nonce, plaintext, nil)
		if len(sealed) != len(plaintext)+TagSize {
			return NewEncryptionError("encrypt", ErrEncryptionFailed, nil)
		}

		payload = &AeadPayload{
			Ciphertext: sealed[:len(plaintext):len(plaintext)],
			Nonce:      nonce,
			Tag:        sealed[len(plaintext):],
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Decrypt decrypts payload using AES-256-GCM. On tag mismatch it returns
// ErrAuthFailed and no plaintext.
func (e *AESGCMEngine) Decrypt(payload *AeadPayload, key *SecureKey) ([]byte, error) {
	if key == nil {
		return nil, NewValidationError("key", nil, "key cannot be nil", ErrNilKey)
	}
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}

	var plaintext []byte
	err := key.use(func(k []byte) error {
		aead, err := newGCM(k)
		if err != nil {
			return err
		}

		sealed := make([]byte, 0, len(payload.Ciphertext)+TagSize)
		sealed = append(sealed, payload.Ciphertext...)
		sealed = append(sealed, payload.Tag...)

		out, err := aead.Open(nil, payload.Nonce, sealed, nil)
		if err != nil {
			return &AuthenticationError{Message: "tag verification failed", Err: ErrAuthFailed}
		}
		plaintext = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
