package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"

	"github.com/absfs/vidcrypt"
	"golang.org/x/term"
)

const keyEnvVar = "VIDCRYPT_KEY"

// keySource picks the passphrase from the flag, then VIDCRYPT_KEY, then a
// terminal prompt. The returned function wipes any passphrase copy held for
// the run.
func keySource(flagKey string, confirm bool) (vidcrypt.KeySource, func(), error) {
	if flagKey != "" {
		src := vidcrypt.NewPassphraseSource([]byte(flagKey))
		return src, src.Wipe, nil
	}

	env := vidcrypt.NewEnvKeySource(keyEnvVar)
	if env.Available() {
		return env, func() {}, nil
	}

	pw, err := promptPassword(confirm)
	if err != nil {
		return nil, nil, err
	}
	src := vidcrypt.NewPassphraseSource(pw)
	zeroize(pw)
	return src, src.Wipe, nil
}

func promptPassword(confirm bool) ([]byte, error) {
	in := os.Stdin
	if !term.IsTerminal(int(in.Fd())) {
		return nil, fmt.Errorf("stdin is not a terminal; pass --key or set %s", keyEnvVar)
	}
	fmt.Fprint(os.Stderr, "Enter key: ")
	pw1, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	if len(pw1) == 0 {
		return nil, errors.New("key cannot be empty")
	}
	if len(pw1) > vidcrypt.KeySize {
		zeroize(pw1)
		return nil, fmt.Errorf("%w: key must be at most %d bytes", vidcrypt.ErrInvalidKeyLength, vidcrypt.KeySize)
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm key: ")
		pw2, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			zeroize(pw1)
			return nil, fmt.Errorf("failed to read key confirmation: %w", err)
		}
		if len(pw2) != len(pw1) || subtle.ConstantTimeCompare(pw1, pw2) != 1 {
			zeroize(pw1)
			zeroize(pw2)
			return nil, errors.New("keys do not match")
		}
		zeroize(pw2)
	}
	return pw1, nil
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
