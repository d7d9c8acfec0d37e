package vidcrypt

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name: "with field",
			err: &ValidationError{
				Field:   "width",
				Value:   4000,
				Message: "too large",
				Err:     ErrInvalidResolution,
			},
			wantMsg: "validation error: width: too large",
		},
		{
			name: "without field",
			err: &ValidationError{
				Message: "input cannot be empty",
			},
			wantMsg: "validation error: input cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
			if unwrapped := tt.err.Unwrap(); unwrapped != tt.err.Err {
				t.Errorf("ValidationError.Unwrap() = %v, want %v", unwrapped, tt.err.Err)
			}
		})
	}
}

func TestStreamErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "encryption with cause",
			err:     NewEncryptionError("encrypt", ErrRandomnessUnavailable, errors.New("EOF")),
			wantMsg: "encrypt error: secure randomness unavailable: EOF",
		},
		{
			name:    "encryption without cause",
			err:     NewEncryptionError("encrypt", ErrEncryptionFailed, nil),
			wantMsg: "encrypt error: encryption failed",
		},
		{
			name:    "authentication",
			err:     &AuthenticationError{Message: "tag verification failed", Err: ErrAuthFailed},
			wantMsg: "authentication error: tag verification failed",
		},
		{
			name:    "wire format",
			err:     NewFormatError("wire", "record too short"),
			wantMsg: "format error: wire: record too short",
		},
		{
			name:    "corruption with frame",
			err:     NewCorruptionError(3, "stream truncated"),
			wantMsg: "corruption error: frame 3: stream truncated",
		},
		{
			name:    "corruption without frame",
			err:     NewCorruptionError(-1, "fingerprint mismatch"),
			wantMsg: "corruption error: fingerprint mismatch",
		},
		{
			name:    "io with frame",
			err:     NewIOError("pull", StagePayload, 7, errors.New("broken pipe")),
			wantMsg: "io error: payload pull frame 7: broken pipe",
		},
		{
			name:    "io without frame",
			err:     NewIOError("rename", StageHandoff, -1, errors.New("permission denied")),
			wantMsg: "io error: handoff rename: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestErrorSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		check    func(error) bool
	}{
		{"validation", NewValidationError("fps", 0, "bad", ErrInvalidFPS), ErrInvalidFPS, IsValidationError},
		{"encryption", NewEncryptionError("init", ErrCipherInitFailed, errors.New("x")), ErrCipherInitFailed, IsEncryptionError},
		{"authentication", &AuthenticationError{Err: ErrAuthFailed}, ErrAuthFailed, IsAuthenticationError},
		{"wire", NewFormatError("wire", "x"), ErrInvalidWireFormat, IsFormatError},
		{"header", NewFormatError("header", "x"), ErrInvalidHeader, IsFormatError},
		{"corruption", NewCorruptionError(0, "x"), ErrCorruptionDetected, IsCorruptionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if !tt.check(wrapped) {
				t.Errorf("type check failed for %v", wrapped)
			}
		})
	}
}

func TestIOErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("ffmpeg exited")
	err := NewIOError("push", StageHandoff, 2, cause)

	if !errors.Is(err, cause) {
		t.Error("IOError should unwrap to its cause")
	}
	if !IsIOError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsIOError should see through wrapping")
	}
	if IsIOError(cause) {
		t.Error("plain error should not be an IOError")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewValidationError("x", nil, "bad", ErrInvalidArgument), "validation"},
		{&AuthenticationError{Err: ErrAuthFailed}, "authentication"},
		{NewEncryptionError("encrypt", ErrEncryptionFailed, nil), "encryption"},
		{NewCorruptionError(-1, "x"), "corruption"},
		{NewFormatError("wire", "x"), "format"},
		{NewIOError("pull", StageHeader, 0, errors.New("x")), "io"},
		{errors.New("x"), "other"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
