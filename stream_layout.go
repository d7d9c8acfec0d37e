package vidcrypt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash"
	"image"
	"image/color"
	"io"
	"math"
)

// FramePosition addresses one pixel in a multi-frame stream
type FramePosition struct {
	Frame int // Frame index
	X     int // Column
	Y     int // Row
}

// Locate maps a pixel index in raster order across frames to its position.
// It depends only on its arguments, so any byte can be found without
// replaying the stream.
func Locate(pixel int64, res Resolution) FramePosition {
	area := int64(res.Area())
	within := pixel % area
	return FramePosition{
		Frame: int(pixel / area),
		X:     int(within % int64(res.Width)),
		Y:     int(within / int64(res.Width)),
	}
}

// LocateByte returns the position of the first pixel of the byte at offset
func LocateByte(offset int64, pixelsPerByte int, res Resolution) FramePosition {
	return Locate(offset*int64(pixelsPerByte), res)
}

// Advance moves the cursor forward by pixels, wrapping to the next row at
// the frame width and to the next frame at the frame height.
func (p *FramePosition) Advance(pixels int, res Resolution) {
	for i := 0; i < pixels; i++ {
		p.X++
		if p.X == res.Width {
			p.X = 0
			p.Y++
		}
		if p.Y == res.Height {
			p.Y = 0
			p.Frame++
		}
	}
}

// RequiredFrames returns how many frames of size res hold totalBytes bytes at
// pixelsPerByte pixels each: ceil(totalBytes*pixelsPerByte / (w*h)).
func RequiredFrames(totalBytes int, pixelsPerByte int, res Resolution) int {
	if totalBytes <= 0 {
		return 0
	}
	pixels := int64(totalBytes) * int64(pixelsPerByte)
	area := int64(res.Area())
	return int((pixels + area - 1) / area)
}

// writeState tracks the encoder through Idle → HeaderWritten →
// PayloadWriting → Finalized.
type writeState uint8

const (
	writeIdle writeState = iota
	writeHeaderWritten
	writePayloadWriting
	writeFinalized
)

func (s writeState) String() string {
	switch s {
	case writeIdle:
		return "idle"
	case writeHeaderWritten:
		return "header-written"
	case writePayloadWriting:
		return "payload-writing"
	case writeFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// readState tracks the decoder through Idle → HeaderParsed →
// PayloadReading → Complete.
type readState uint8

const (
	readIdle readState = iota
	readHeaderParsed
	readPayloadReading
	readComplete
)

func (s readState) String() string {
	switch s {
	case readIdle:
		return "idle"
	case readHeaderParsed:
		return "header-parsed"
	case readPayloadReading:
		return "payload-reading"
	case readComplete:
		return "complete"
	default:
		return "unknown"
	}
}

func stateError(op string, state fmt.Stringer) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, state)
}

// streamEncoder writes header and payload bytes into frames through a
// cursor, allocating each frame when the cursor first reaches it.
type streamEncoder struct {
	codec   FrameCodec
	res     Resolution
	frames  Frames
	pos     FramePosition
	state   writeState
	written int
	scratch []color.RGBA
}

func newStreamEncoder(codec FrameCodec, res Resolution, expectedFrames int) *streamEncoder {
	return &streamEncoder{
		codec:   codec,
		res:     res,
		frames:  make(Frames, 0, expectedFrames),
		scratch: make([]color.RGBA, codec.PixelsPerByte()),
	}
}

// WriteHeader encodes h at the start of the stream
func (e *streamEncoder) WriteHeader(h *StreamHeader) error {
	if e.state != writeIdle {
		return stateError("write header", e.state)
	}
	b, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	e.put(b)
	e.state = writeHeaderWritten
	return nil
}

// WritePayload encodes data after the header. It may be called repeatedly.
func (e *streamEncoder) WritePayload(data []byte) error {
	if e.state != writeHeaderWritten && e.state != writePayloadWriting {
		return stateError("write payload", e.state)
	}
	e.put(data)
	e.state = writePayloadWriting
	return nil
}

// Finalize checks the frame count and hands the frames to the caller. The
// encoder keeps no reference to them afterwards.
func (e *streamEncoder) Finalize() (Frames, error) {
	if e.state != writePayloadWriting {
		return nil, stateError("finalize", e.state)
	}
	want := RequiredFrames(e.written, e.codec.PixelsPerByte(), e.res)
	if len(e.frames) != want {
		return nil, fmt.Errorf("encoded %d frames, expected %d", len(e.frames), want)
	}
	frames := e.frames
	e.frames = nil
	e.state = writeFinalized
	return frames, nil
}

func (e *streamEncoder) put(data []byte) {
	for _, b := range data {
		e.codec.EncodeByte(b, e.scratch)
		for _, px := range e.scratch {
			if e.pos.Frame == len(e.frames) {
				e.frames = append(e.frames, newFrame(e.res, e.codec.Profile()))
			}
			e.frames[e.pos.Frame].SetRGBA(e.pos.X, e.pos.Y, px)
			e.pos.Advance(1, e.res)
		}
		e.written++
	}
}

// newFrame allocates a blank frame. Frames for the three-channel profile are
// opaque.
func newFrame(res Resolution, profile Profile) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	if profile == ProfileRGBMajority {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = channelOn
		}
	}
	return img
}

// streamDecoder reads bytes back from frames pulled lazily from a
// FrameSource. It implements io.Reader so the header can be parsed with
// StreamHeader.ReadFrom.
type streamDecoder struct {
	ctx        context.Context
	src        FrameSource
	codec      FrameCodec
	res        Resolution
	frame      *image.RGBA
	frameIndex int
	pos        FramePosition
	state      readState
	stage      Stage
	scratch    []color.RGBA
	fp         hash.Hash64
	header     *StreamHeader
}

// newStreamDecoder pulls the first frame and takes the stream resolution
// from it.
func newStreamDecoder(ctx context.Context, src FrameSource, codec FrameCodec) (*streamDecoder, error) {
	d := &streamDecoder{
		ctx:     ctx,
		src:     src,
		codec:   codec,
		stage:   StageHeader,
		scratch: make([]color.RGBA, codec.PixelsPerByte()),
	}

	first, err := d.pull(0)
	if err != nil {
		return nil, err
	}
	b := first.Bounds()
	d.res = Resolution{Width: b.Dx(), Height: b.Dy()}
	if d.res.Area() == 0 {
		return nil, NewFormatError("header", "first frame is empty")
	}
	d.frame = first
	return d, nil
}

// Resolution returns the frame size of the stream
func (d *streamDecoder) Resolution() Resolution {
	return d.res
}

// FramesRead returns how many frames have been pulled from the source
func (d *streamDecoder) FramesRead() int {
	return d.frameIndex + 1
}

func (d *streamDecoder) pull(index int) (*image.RGBA, error) {
	if err := d.ctx.Err(); err != nil {
		return nil, err
	}
	f, err := d.src.NextFrame(d.ctx)
	if errors.Is(err, io.EOF) {
		if d.stage == StageHeader {
			return nil, NewFormatError("header", fmt.Sprintf("stream ended at frame %d inside the header", index))
		}
		return nil, NewCorruptionError(index, "stream truncated before the payload was complete")
	}
	if err != nil {
		return nil, NewIOError("pull", d.stage, index, err)
	}
	if f == nil {
		return nil, NewIOError("pull", d.stage, index, errors.New("source returned a nil frame"))
	}
	if d.frame != nil {
		b := f.Bounds()
		if b.Dx() != d.res.Width || b.Dy() != d.res.Height {
			return nil, &FormatError{
				Kind:    "frame",
				Message: fmt.Sprintf("frame %d is %dx%d, stream is %s", index, b.Dx(), b.Dy(), d.res),
				Err:     ErrFrameDimensionMismatch,
			}
		}
	}
	return f, nil
}

// Read decodes len(p) bytes from the stream
func (d *streamDecoder) Read(p []byte) (int, error) {
	for i := range p {
		for j := range d.scratch {
			if d.pos.Frame > d.frameIndex {
				f, err := d.pull(d.pos.Frame)
				if err != nil {
					return i, err
				}
				d.frame = f
				d.frameIndex = d.pos.Frame
			}
			b := d.frame.Bounds()
			d.scratch[j] = d.frame.RGBAAt(b.Min.X+d.pos.X, b.Min.Y+d.pos.Y)
			d.pos.Advance(1, d.res)
		}
		p[i] = d.codec.DecodeByte(d.scratch)
	}
	if d.fp != nil {
		d.fp.Write(p)
	}
	return len(p), nil
}

// ReadHeader parses and validates the stream header, including that the
// recorded resolution matches the frames.
func (d *streamDecoder) ReadHeader() (*StreamHeader, error) {
	if d.state != readIdle {
		return nil, stateError("read header", d.state)
	}

	h := &StreamHeader{}
	if _, err := h.ReadFrom(d); err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.Resolution() != d.res {
		return nil, NewFormatError("header", fmt.Sprintf("header resolution %s does not match frame size %s", h.Resolution(), d.res))
	}

	d.header = h
	d.state = readHeaderParsed
	return h, nil
}

// ReadPayload decodes the wire record announced by the header and checks its
// fingerprint. The decoder reaches Complete only when the fingerprint matches.
func (d *streamDecoder) ReadPayload() ([]byte, error) {
	if d.state != readHeaderParsed {
		return nil, stateError("read payload", d.state)
	}
	d.state = readPayloadReading
	d.stage = StagePayload

	size := d.header.PayloadSize
	if size > math.MaxInt64 {
		return nil, NewFormatError("header", fmt.Sprintf("payload size %d out of range", size))
	}

	// The buffer grows with the frames actually decoded, so a damaged size
	// field ends in a truncation error instead of a huge allocation.
	d.fp = NewFingerprinter()
	var payload bytes.Buffer
	if _, err := io.CopyN(&payload, d, int64(size)); err != nil {
		return nil, err
	}

	if got := d.fp.Sum64(); got != d.header.Fingerprint {
		return nil, NewCorruptionError(-1, fmt.Sprintf("fingerprint mismatch: got %#016x, header says %#016x", got, d.header.Fingerprint))
	}

	d.state = readComplete
	return payload.Bytes(), nil
}

// DecodeBytes decodes n bytes starting at byte offset from frames already in
// memory, locating each pixel directly.
func DecodeBytes(frames Frames, codec FrameCodec, offset int64, n int) ([]byte, error) {
	if len(frames) == 0 {
		return nil, NewValidationError("frames", 0, "no frames to decode", ErrEmptyInput)
	}
	b := frames[0].Bounds()
	res := Resolution{Width: b.Dx(), Height: b.Dy()}
	ppb := codec.PixelsPerByte()
	scratch := make([]color.RGBA, ppb)
	out := make([]byte, n)

	for i := 0; i < n; i++ {
		first := (offset + int64(i)) * int64(ppb)
		for j := 0; j < ppb; j++ {
			pos := Locate(first+int64(j), res)
			if pos.Frame >= len(frames) {
				return nil, NewCorruptionError(pos.Frame, "offset beyond the last frame")
			}
			fb := frames[pos.Frame].Bounds()
			scratch[j] = frames[pos.Frame].RGBAAt(fb.Min.X+pos.X, fb.Min.Y+pos.Y)
		}
		out[i] = codec.DecodeByte(scratch)
	}
	return out, nil
}
