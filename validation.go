package vidcrypt

import (
	"fmt"
)

// Input validation helpers, run before any cryptographic work

// ValidateResolution checks both dimensions are within (0, MaxResolution]
func ValidateResolution(res Resolution) error {
	if res.Width <= 0 || res.Width > MaxResolution {
		return &ValidationError{
			Field:   "width",
			Value:   res.Width,
			Message: fmt.Sprintf("width must be between 1 and %d, got %d", MaxResolution, res.Width),
			Err:     ErrInvalidResolution,
		}
	}
	if res.Height <= 0 || res.Height > MaxResolution {
		return &ValidationError{
			Field:   "height",
			Value:   res.Height,
			Message: fmt.Sprintf("height must be between 1 and %d, got %d", MaxResolution, res.Height),
			Err:     ErrInvalidResolution,
		}
	}
	return nil
}

// ValidateFPS checks the frame rate is within (0, MaxFPS]
func ValidateFPS(fps int) error {
	if fps <= 0 || fps > MaxFPS {
		return &ValidationError{
			Field:   "fps",
			Value:   fps,
			Message: fmt.Sprintf("fps must be between 1 and %d, got %d", MaxFPS, fps),
			Err:     ErrInvalidFPS,
		}
	}
	return nil
}

// ValidateInput checks the file to embed has a name and content
func ValidateInput(f File) error {
	if len(f.Data) == 0 {
		return &ValidationError{
			Field:   "data",
			Value:   0,
			Message: "input cannot be empty",
			Err:     ErrEmptyInput,
		}
	}
	return ValidateFilename(f.Name)
}

// ValidateFilename checks a filename can be stored in a stream header
func ValidateFilename(name string) error {
	if name == "" {
		return &ValidationError{
			Field:   "filename",
			Message: "filename cannot be empty",
			Err:     ErrInvalidArgument,
		}
	}
	if len(name) > MaxFilenameLength {
		return &ValidationError{
			Field:   "filename",
			Value:   len(name),
			Message: fmt.Sprintf("filename too long: got %d bytes, maximum is %d", len(name), MaxFilenameLength),
			Err:     ErrInvalidArgument,
		}
	}
	return nil
}

// ValidateKey checks a raw key has the AES-256 size
func ValidateKey(key []byte) error {
	if len(key) != KeySize {
		return &ValidationError{
			Field:   "key",
			Value:   len(key),
			Message: fmt.Sprintf("invalid key size: got %d bytes, expected %d bytes", len(key), KeySize),
			Err:     ErrInvalidKeyLength,
		}
	}
	return nil
}

// ValidatePayload checks nonce and tag sizes before decryption
func ValidatePayload(p *AeadPayload) error {
	if p == nil {
		return &ValidationError{
			Field:   "payload",
			Message: "payload cannot be nil",
			Err:     ErrInvalidArgument,
		}
	}
	if len(p.Nonce) != NonceSize {
		return &ValidationError{
			Field:   "nonce",
			Value:   len(p.Nonce),
			Message: fmt.Sprintf("invalid nonce size: got %d bytes, expected %d bytes", len(p.Nonce), NonceSize),
			Err:     ErrInvalidWireFormat,
		}
	}
	if len(p.Tag) != TagSize {
		return &ValidationError{
			Field:   "tag",
			Value:   len(p.Tag),
			Message: fmt.Sprintf("invalid tag size: got %d bytes, expected %d bytes", len(p.Tag), TagSize),
			Err:     ErrInvalidWireFormat,
		}
	}
	return nil
}
