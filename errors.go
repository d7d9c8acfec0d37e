package vidcrypt

import (
	"errors"
	"fmt"
)

// Error types represent different categories of errors

// ValidationError represents an input or parameter validation error
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// EncryptionError represents a failure to set up or run the cipher
type EncryptionError struct {
	Operation string // "encrypt" or "decrypt"
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Operation, e.Message)
}

func (e *EncryptionError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents an AEAD tag mismatch
type AuthenticationError struct {
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// FormatError represents a malformed or foreign byte stream
type FormatError struct {
	Kind    string // "wire" or "header"
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s: %s", e.Kind, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// CorruptionError represents transport-level damage detected by the fingerprint
type CorruptionError struct {
	Frame   int    // Frame index, or -1 if not applicable
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *CorruptionError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("corruption error: frame %d: %s", e.Frame, e.Message)
	}
	return fmt.Sprintf("corruption error: %s", e.Message)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// Stage names the part of the stream being processed when an error occurred.
type Stage string

const (
	StageHeader  Stage = "header"
	StagePayload Stage = "payload"
	StageHandoff Stage = "handoff"
)

// IOError represents a fault reported by a frame source or sink
type IOError struct {
	Operation string // "pull", "push"
	Stage     Stage  // Stream stage that observed the fault
	Frame     int    // Frame index, or -1 if not applicable
	Message   string // Human-readable error message
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("io error: %s %s frame %d: %s", e.Stage, e.Operation, e.Frame, e.Message)
	}
	return fmt.Sprintf("io error: %s %s: %s", e.Stage, e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Sentinel errors, one per failure in the error taxonomy
var (
	ErrInvalidKeyLength       = errors.New("invalid key length")
	ErrInvalidResolution      = errors.New("invalid resolution")
	ErrInvalidFPS             = errors.New("invalid fps")
	ErrEmptyInput             = errors.New("empty input")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrRandomnessUnavailable  = errors.New("secure randomness unavailable")
	ErrCipherInitFailed       = errors.New("cipher initialization failed")
	ErrEncryptionFailed       = errors.New("encryption failed")
	ErrAuthFailed             = errors.New("authentication failed - data may be corrupted or tampered")
	ErrInvalidWireFormat      = errors.New("invalid wire format")
	ErrInvalidHeader          = errors.New("invalid stream header")
	ErrCorruptionDetected     = errors.New("corruption detected")
	ErrInvalidState           = errors.New("invalid stream state transition")
	ErrUnsupportedProfile     = errors.New("unsupported pixel profile")
	ErrOutputExists           = errors.New("output already exists")
	ErrNilFrameSource         = errors.New("frame source cannot be nil")
	ErrNilFrameSink           = errors.New("frame sink cannot be nil")
	ErrNilKey                 = errors.New("key cannot be nil")
	ErrFrameDimensionMismatch = errors.New("frame dimensions changed mid-stream")
)

// Helper functions for creating structured errors

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string, err error) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// NewEncryptionError creates a new encryption error
func NewEncryptionError(operation string, sentinel, cause error) error {
	msg := sentinel.Error()
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &EncryptionError{
		Operation: operation,
		Message:   msg,
		Err:       sentinel,
	}
}

// NewFormatError creates a new format error wrapping ErrInvalidWireFormat or
// ErrInvalidHeader depending on kind
func NewFormatError(kind, message string) error {
	sentinel := ErrInvalidWireFormat
	if kind == "header" {
		sentinel = ErrInvalidHeader
	}
	return &FormatError{
		Kind:    kind,
		Message: message,
		Err:     sentinel,
	}
}

// NewCorruptionError creates a new corruption error
func NewCorruptionError(frame int, message string) error {
	return &CorruptionError{
		Frame:   frame,
		Message: message,
		Err:     ErrCorruptionDetected,
	}
}

// NewIOError creates a new I/O error tagged with the stage that observed it
func NewIOError(operation string, stage Stage, frame int, err error) error {
	return &IOError{
		Operation: operation,
		Stage:     stage,
		Frame:     frame,
		Message:   err.Error(),
		Err:       err,
	}
}

// Error checking helpers

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsEncryptionError checks if an error is an encryption error
func IsEncryptionError(err error) bool {
	var ee *EncryptionError
	return errors.As(err, &ee)
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsFormatError checks if an error is a format error
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsCorruptionError checks if an error is a corruption error
func IsCorruptionError(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
