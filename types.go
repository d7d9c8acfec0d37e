package vidcrypt

import (
	"fmt"
	"image"
)

const (
	// MaxResolution is the largest accepted frame width or height in pixels
	MaxResolution = 1920

	// MaxFPS is the largest accepted frame rate
	MaxFPS = 60

	// DefaultFPS is the frame rate used when none is configured
	DefaultFPS = 30

	// KeySize is the AES-256 key size in bytes
	KeySize = 32

	// NonceSize is the GCM nonce size in bytes
	NonceSize = 12

	// TagSize is the GCM authentication tag size in bytes
	TagSize = 16

	// MaxFilenameLength bounds the filename stored in a stream header
	MaxFilenameLength = 4096
)

// DefaultResolution is the frame size used when none is configured
var DefaultResolution = Resolution{Width: 1280, Height: 720}

// Resolution is the pixel size of every frame in a stream
type Resolution struct {
	Width  int
	Height int
}

// Area returns the number of pixels in one frame
func (r Resolution) Area() int {
	return r.Width * r.Height
}

// String returns the resolution as WIDTHxHEIGHT
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Profile selects the pixel representation used by a FrameCodec
type Profile uint8

const (
	// ProfileRGBA carries one bit per channel across four channels, two
	// pixels per byte
	ProfileRGBA Profile = iota
	// ProfileRGBMajority replicates each bit across three channels of one
	// pixel and decodes by majority vote
	ProfileRGBMajority
)

// String returns the string representation of the profile
func (p Profile) String() string {
	switch p {
	case ProfileRGBA:
		return "rgba"
	case ProfileRGBMajority:
		return "rgb"
	default:
		return "unknown"
	}
}

// ParseProfile converts a profile name as returned by Profile.String
func ParseProfile(name string) (Profile, error) {
	switch name {
	case "rgba", "":
		return ProfileRGBA, nil
	case "rgb":
		return ProfileRGBMajority, nil
	default:
		return 0, NewValidationError("profile", name, "unknown pixel profile", ErrUnsupportedProfile)
	}
}

// File is a named byte buffer handed to Channel.Write
type File struct {
	Name string
	Data []byte
}

// Recovered is the result of a successful Channel.Read
type Recovered struct {
	Filename  string
	Plaintext []byte
	Header    StreamHeader
}

// Frames is an ordered list of raster frames
type Frames []*image.RGBA
