package vidcrypt

import (
	"fmt"
	"os"
)

// KeySource produces a fresh SecureKey for each operation. The caller owns the
// returned key and must Close it.
type KeySource interface {
	SecureKey() (*SecureKey, error)
}

// PassphraseSource implements KeySource over a passphrase held by the caller
type PassphraseSource struct {
	passphrase []byte
}

// NewPassphraseSource creates a key source for the given passphrase. The
// passphrase is copied.
func NewPassphraseSource(passphrase []byte) *PassphraseSource {
	p := make([]byte, len(passphrase))
	copy(p, passphrase)
	return &PassphraseSource{passphrase: p}
}

// SecureKey derives a new key from the passphrase
func (p *PassphraseSource) SecureKey() (*SecureKey, error) {
	return NewSecureKey(p.passphrase)
}

// Wipe zeroes the stored passphrase
func (p *PassphraseSource) Wipe() {
	wipe(p.passphrase)
	p.passphrase = nil
}

// EnvKeySource implements KeySource using an environment variable
type EnvKeySource struct {
	envVar string
}

// NewEnvKeySource creates a new environment variable key source
func NewEnvKeySource(envVar string) *EnvKeySource {
	return &EnvKeySource{envVar: envVar}
}

// Available reports whether the environment variable is set
func (e *EnvKeySource) Available() bool {
	_, ok := os.LookupEnv(e.envVar)
	return ok
}

// SecureKey derives a new key from the environment variable's value
func (e *EnvKeySource) SecureKey() (*SecureKey, error) {
	value, ok := os.LookupEnv(e.envVar)
	if !ok {
		return nil, fmt.Errorf("environment variable %s not set", e.envVar)
	}
	passphrase := []byte(value)
	defer wipe(passphrase)
	return NewSecureKey(passphrase)
}
