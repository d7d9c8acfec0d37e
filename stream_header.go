package vidcrypt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Sentinel closes every stream header
	Sentinel = uint32(0xDEADBEEF)

	// headerFixedSize is the header size without the filename:
	// 8 (filename length) + 5*8 (payload size, fingerprint, fps, width,
	// height) + 4 (sentinel)
	headerFixedSize = 8 + 5*8 + 4
)

// StreamHeader is the self-describing block at the start of a pixel stream.
// All integers are little-endian.
//
//	8B  filename length
//	..  filename
//	8B  payload size (wire record length)
//	8B  fingerprint of the wire record
//	8B  fps
//	8B  width
//	8B  height
//	4B  sentinel 0xDEADBEEF
type StreamHeader struct {
	Filename    string
	PayloadSize uint64
	Fingerprint uint64
	FPS         uint64
	Width       uint64
	Height      uint64
	Sentinel    uint32
}

// NewStreamHeader creates a header for a wire record of payloadSize bytes
func NewStreamHeader(filename string, payloadSize int, fingerprint uint64, fps int, res Resolution) *StreamHeader {
	return &StreamHeader{
		Filename:    filename,
		PayloadSize: uint64(payloadSize),
		Fingerprint: fingerprint,
		FPS:         uint64(fps),
		Width:       uint64(res.Width),
		Height:      uint64(res.Height),
		Sentinel:    Sentinel,
	}
}

// HeaderSize returns the encoded size of a header holding filename
func HeaderSize(filename string) int {
	return headerFixedSize + len(filename)
}

// Size returns the total size of the header in bytes
func (h *StreamHeader) Size() int {
	return HeaderSize(h.Filename)
}

// Resolution returns the frame size recorded in the header
func (h *StreamHeader) Resolution() Resolution {
	return Resolution{Width: int(h.Width), Height: int(h.Height)}
}

// MarshalBinary encodes the header
func (h *StreamHeader) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, h.Size()))
	if _, err := h.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the header to the given writer
func (h *StreamHeader) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, uint64(len(h.Filename))); err != nil {
		return 0, fmt.Errorf("failed to write filename length: %w", err)
	}
	buf.WriteString(h.Filename)

	fields := []struct {
		name  string
		value any
	}{
		{"payload size", h.PayloadSize},
		{"fingerprint", h.Fingerprint},
		{"fps", h.FPS},
		{"width", h.Width},
		{"height", h.Height},
		{"sentinel", h.Sentinel},
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f.value); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom reads the header from the given reader. It stops at the first
// field that cannot be read and rejects a filename length outside
// (0, MaxFilenameLength] before reading the name. The caller checks the rest
// with Validate.
func (h *StreamHeader) ReadFrom(r io.Reader) (int64, error) {
	var totalRead int64

	var nameLen uint64
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return totalRead, fmt.Errorf("failed to read filename length: %w", err)
	}
	totalRead += 8

	if nameLen == 0 || nameLen > MaxFilenameLength {
		return totalRead, NewFormatError("header", fmt.Sprintf("filename length %d out of range", nameLen))
	}

	name := make([]byte, nameLen)
	n, err := io.ReadFull(r, name)
	totalRead += int64(n)
	if err != nil {
		return totalRead, fmt.Errorf("failed to read filename: %w", err)
	}
	h.Filename = string(name)

	fields := []struct {
		name string
		dst  any
		size int64
	}{
		{"payload size", &h.PayloadSize, 8},
		{"fingerprint", &h.Fingerprint, 8},
		{"fps", &h.FPS, 8},
		{"width", &h.Width, 8},
		{"height", &h.Height, 8},
		{"sentinel", &h.Sentinel, 4},
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f.dst); err != nil {
			return totalRead, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		totalRead += f.size
	}

	return totalRead, nil
}

// UnmarshalBinary decodes a header from data
func (h *StreamHeader) UnmarshalBinary(data []byte) error {
	if _, err := h.ReadFrom(bytes.NewReader(data)); err != nil {
		if IsFormatError(err) {
			return err
		}
		return NewFormatError("header", err.Error())
	}
	return h.Validate()
}

// Validate checks the header's self-consistency
func (h *StreamHeader) Validate() error {
	if h.Sentinel != Sentinel {
		return NewFormatError("header", fmt.Sprintf("sentinel mismatch: got %#08x, want %#08x", h.Sentinel, Sentinel))
	}
	if h.Filename == "" {
		return NewFormatError("header", "filename cannot be empty")
	}
	if len(h.Filename) > MaxFilenameLength {
		return NewFormatError("header", fmt.Sprintf("filename length %d out of range", len(h.Filename)))
	}
	if h.FPS == 0 || h.FPS > MaxFPS {
		return NewFormatError("header", fmt.Sprintf("fps %d out of range", h.FPS))
	}
	if h.Width == 0 || h.Width > MaxResolution || h.Height == 0 || h.Height > MaxResolution {
		return NewFormatError("header", fmt.Sprintf("resolution %dx%d out of range", h.Width, h.Height))
	}
	if h.PayloadSize < MinWireRecordSize {
		return NewFormatError("header", fmt.Sprintf("payload size %d too small for a wire record", h.PayloadSize))
	}
	return nil
}
