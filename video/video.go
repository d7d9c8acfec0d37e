// Package video moves vidcrypt frames in and out of video files. Frames are
// written by piping raw RGBA to an ffmpeg subprocess and read back through
// Vidio, so ffmpeg and ffprobe must be on PATH.
//
// The default codec is FFV1 with a BGRA pixel format. It is lossless and keeps
// the alpha channel the four-channel profile depends on. Frames are never
// scaled, so the decoded size always equals the written size. Lossy codecs
// only work with the three-channel profile, and then only at high quality.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/absfs/vidcrypt"
)

const (
	// DefaultCodec is lossless and supports an alpha channel
	DefaultCodec = "ffv1"

	// DefaultFormat is the pixel format stored in the file
	DefaultFormat = "bgra"

	// DefaultExtension is a container that accepts FFV1
	DefaultExtension = ".mkv"

	// DefaultFFmpeg is the encoder binary looked up on PATH
	DefaultFFmpeg = "ffmpeg"
)

// Options configures a Writer
type Options struct {
	FPS    int
	Codec  string
	Format string

	// FFmpeg names the encoder binary. Defaults to DefaultFFmpeg.
	FFmpeg string
}

func (o Options) withDefaults() Options {
	if o.FPS == 0 {
		o.FPS = vidcrypt.DefaultFPS
	}
	if o.Codec == "" {
		o.Codec = DefaultCodec
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.FFmpeg == "" {
		o.FFmpeg = DefaultFFmpeg
	}
	return o
}

// encoderArgs builds the ffmpeg command line for writing raw RGBA frames of
// size res from stdin into filename. There is no scale filter, and the
// output pixel format is the one requested.
func encoderArgs(filename string, res vidcrypt.Resolution, opts Options) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-n",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"-r", strconv.Itoa(opts.FPS),
		"-i", "-",
		"-an",
		"-c:v", opts.Codec,
		"-pix_fmt", opts.Format,
		filename,
	}
}

// Writer is a vidcrypt.FrameSink that encodes frames into a video file
type Writer struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	res    vidcrypt.Resolution
	frames int
	closed bool
	err    error
}

// NewWriter starts an encoder writing filename for frames of size res. The
// file must not exist yet.
func NewWriter(filename string, res vidcrypt.Resolution, opts Options) (*Writer, error) {
	if err := vidcrypt.ValidateResolution(res); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := vidcrypt.ValidateFPS(opts.FPS); err != nil {
		return nil, err
	}

	bin, err := exec.LookPath(opts.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", opts.FFmpeg, err)
	}

	w := &Writer{res: res}
	w.cmd = exec.Command(bin, encoderArgs(filename, res, opts)...)
	w.cmd.Stderr = &w.stderr
	w.stdin, err = w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open encoder input: %w", err)
	}
	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start video writer: %w", err)
	}
	return w, nil
}

// WriteFrame encodes one frame. Every frame must have the writer's size.
func (w *Writer) WriteFrame(ctx context.Context, frame *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("video writer is closed")
	}

	pix, err := packPix(frame, w.res)
	if err != nil {
		return err
	}
	if _, err := w.stdin.Write(pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Close flushes the encoder and waits for ffmpeg to exit. It reports a
// failed encode, in which case the output file must not be used.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.err
	}
	w.closed = true

	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		msg := strings.TrimSpace(w.stderr.String())
		if msg != "" {
			w.err = fmt.Errorf("video encoder failed: %w: %s", err, msg)
		} else {
			w.err = fmt.Errorf("video encoder failed: %w", err)
		}
	}
	return w.err
}

// Reader is a vidcrypt.FrameSource over a video file
type Reader struct {
	mu     sync.Mutex
	v      *vidio.Video
	res    vidcrypt.Resolution
	done   bool
	closed bool
}

// Open starts decoding filename
func Open(filename string) (*Reader, error) {
	v, err := vidio.NewVideo(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	return &Reader{
		v:   v,
		res: vidcrypt.Resolution{Width: v.Width(), Height: v.Height()},
	}, nil
}

// Resolution returns the frame size of the video
func (r *Reader) Resolution() vidcrypt.Resolution {
	return r.res
}

// FPS returns the frame rate recorded in the container
func (r *Reader) FPS() float64 {
	return r.v.FPS()
}

// NextFrame decodes the next frame into a new image owned by the caller. It
// returns io.EOF after the last frame.
func (r *Reader) NextFrame(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return nil, io.EOF
	}

	img := image.NewRGBA(image.Rect(0, 0, r.res.Width, r.res.Height))
	if err := r.v.SetFrameBuffer(img.Pix); err != nil {
		return nil, fmt.Errorf("failed to set frame buffer: %w", err)
	}
	if !r.v.Read() {
		r.done = true
		return nil, io.EOF
	}
	return img, nil
}

// Close stops the decoder
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.done = true
	r.v.Close()
	return nil
}

// packPix returns the frame's pixels as tightly packed RGBA rows
func packPix(frame *image.RGBA, res vidcrypt.Resolution) ([]byte, error) {
	if frame == nil {
		return nil, errors.New("frame cannot be nil")
	}
	b := frame.Bounds()
	if b.Dx() != res.Width || b.Dy() != res.Height {
		return nil, fmt.Errorf("%w: frame is %dx%d, writer is %s",
			vidcrypt.ErrFrameDimensionMismatch, b.Dx(), b.Dy(), res)
	}

	rowLen := 4 * res.Width
	if frame.Stride == rowLen && len(frame.Pix) == rowLen*res.Height {
		return frame.Pix, nil
	}

	pix := make([]byte, rowLen*res.Height)
	for y := 0; y < res.Height; y++ {
		start := frame.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*rowLen:(y+1)*rowLen], frame.Pix[start:start+rowLen])
	}
	return pix, nil
}
