package vidcrypt

import (
	"image/color"
)

const (
	channelOn  = 255
	channelOff = 0

	// channelThreshold is the largest value still read as "off"
	channelThreshold = 127
)

// FrameCodec maps one payload byte to a fixed number of pixels and back.
//
// Decoding never fails: damaged pixels decode to some byte, and the
// fingerprint and GCM tag layers above catch the damage.
type FrameCodec interface {
	// Profile identifies the pixel representation
	Profile() Profile

	// PixelsPerByte is the number of consecutive raster pixels one byte uses
	PixelsPerByte() int

	// EncodeByte fills dst (len PixelsPerByte) with the pixels for b
	EncodeByte(b byte, dst []color.RGBA)

	// DecodeByte recovers a byte from src (len PixelsPerByte)
	DecodeByte(src []color.RGBA) byte
}

// NewFrameCodec returns the codec for profile
func NewFrameCodec(profile Profile) (FrameCodec, error) {
	switch profile {
	case ProfileRGBA:
		return rgbaCodec{}, nil
	case ProfileRGBMajority:
		return rgbMajorityCodec{}, nil
	default:
		return nil, NewValidationError("profile", profile, "unsupported pixel profile", ErrUnsupportedProfile)
	}
}

func level(bit bool) uint8 {
	if bit {
		return channelOn
	}
	return channelOff
}

func isOn(v uint8) bool {
	return v > channelThreshold
}

// rgbaCodec puts the high nibble in the first pixel's R,G,B,A channels (bit 7
// in R) and the low nibble in the second pixel's.
type rgbaCodec struct{}

func (rgbaCodec) Profile() Profile   { return ProfileRGBA }
func (rgbaCodec) PixelsPerByte() int { return 2 }

func (rgbaCodec) EncodeByte(b byte, dst []color.RGBA) {
	dst[0] = nibblePixel(b >> 4)
	dst[1] = nibblePixel(b & 0x0f)
}

func (rgbaCodec) DecodeByte(src []color.RGBA) byte {
	return pixelNibble(src[0])<<4 | pixelNibble(src[1])
}

func nibblePixel(n byte) color.RGBA {
	return color.RGBA{
		R: level(n&0x8 != 0),
		G: level(n&0x4 != 0),
		B: level(n&0x2 != 0),
		A: level(n&0x1 != 0),
	}
}

func pixelNibble(p color.RGBA) byte {
	var n byte
	if isOn(p.R) {
		n |= 0x8
	}
	if isOn(p.G) {
		n |= 0x4
	}
	if isOn(p.B) {
		n |= 0x2
	}
	if isOn(p.A) {
		n |= 0x1
	}
	return n
}

// rgbMajorityCodec gives every bit its own pixel, most significant bit first,
// with the bit replicated in R, G and B. Alpha is always opaque.
type rgbMajorityCodec struct{}

func (rgbMajorityCodec) Profile() Profile   { return ProfileRGBMajority }
func (rgbMajorityCodec) PixelsPerByte() int { return 8 }

func (rgbMajorityCodec) EncodeByte(b byte, dst []color.RGBA) {
	for i := 0; i < 8; i++ {
		v := level(b&(0x80>>i) != 0)
		dst[i] = color.RGBA{R: v, G: v, B: v, A: channelOn}
	}
}

func (rgbMajorityCodec) DecodeByte(src []color.RGBA) byte {
	var b byte
	for i := 0; i < 8; i++ {
		if majority(src[i]) {
			b |= 0x80 >> i
		}
	}
	return b
}

// majority reads a pixel as 1 when at least two of R, G, B are on.
func majority(p color.RGBA) bool {
	votes := 0
	if isOn(p.R) {
		votes++
	}
	if isOn(p.G) {
		votes++
	}
	if isOn(p.B) {
		votes++
	}
	return votes >= 2
}
