package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/absfs/vidcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackPix_ContiguousFrame(t *testing.T) {
	res := vidcrypt.Resolution{Width: 3, Height: 2}
	frame := image.NewRGBA(image.Rect(0, 0, 3, 2))
	frame.SetRGBA(2, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})

	pix, err := packPix(frame, res)
	require.NoError(t, err)
	assert.Len(t, pix, 3*2*4)
	assert.Equal(t, []byte{1, 2, 3, 4}, pix[len(pix)-4:])
}

func TestPackPix_SubImage(t *testing.T) {
	parent := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			parent.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	sub := parent.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	pix, err := packPix(sub, vidcrypt.Resolution{Width: 2, Height: 2})
	require.NoError(t, err)
	require.Len(t, pix, 2*2*4)

	want := []byte{
		1, 1, 0, 255, 2, 1, 0, 255,
		1, 2, 0, 255, 2, 2, 0, 255,
	}
	assert.Equal(t, want, pix)
}

func TestPackPix_Errors(t *testing.T) {
	res := vidcrypt.Resolution{Width: 2, Height: 2}

	_, err := packPix(nil, res)
	assert.Error(t, err)

	_, err = packPix(image.NewRGBA(image.Rect(0, 0, 3, 2)), res)
	assert.ErrorIs(t, err, vidcrypt.ErrFrameDimensionMismatch)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, vidcrypt.DefaultFPS, opts.FPS)
	assert.Equal(t, DefaultCodec, opts.Codec)
	assert.Equal(t, DefaultFormat, opts.Format)

	assert.Equal(t, DefaultFFmpeg, opts.FFmpeg)

	opts = Options{FPS: 12, Codec: "libx264rgb"}.withDefaults()
	assert.Equal(t, 12, opts.FPS)
	assert.Equal(t, "libx264rgb", opts.Codec)
}

func TestEncoderArgs(t *testing.T) {
	res := vidcrypt.Resolution{Width: 300, Height: 300}
	args := encoderArgs("out.mkv", res, Options{}.withDefaults())
	line := strings.Join(args, " ")

	assert.Contains(t, line, "-f rawvideo -pix_fmt rgba -s 300x300 -r 30 -i -")
	assert.Contains(t, line, "-c:v ffv1 -pix_fmt bgra out.mkv")
	assert.Contains(t, args, "-n", "existing files are never replaced")
	assert.NotContains(t, args, "-vf", "frames are never scaled")
	assert.NotContains(t, line, "yuv")
	assert.Equal(t, "out.mkv", args[len(args)-1])
}

func TestWriterClose_ReportsEncoderFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not on PATH")
	}

	w, err := NewWriter(filepath.Join(t.TempDir(), "out.mkv"), vidcrypt.Resolution{Width: 4, Height: 4}, Options{FFmpeg: "false"})
	require.NoError(t, err)

	err = w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video encoder failed")
	assert.Equal(t, err, w.Close(), "repeated Close reports the same failure")

	assert.Error(t, w.WriteFrame(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4))))
}

func TestNewWriter_MissingEncoder(t *testing.T) {
	_, err := NewWriter("unused.mkv", vidcrypt.Resolution{Width: 4, Height: 4}, Options{FFmpeg: "vidcrypt-no-such-encoder"})
	assert.Error(t, err)
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not on PATH", bin)
		}
	}
}

func TestWriter_RefusesExistingFile(t *testing.T) {
	requireFFmpeg(t)

	filename := filepath.Join(t.TempDir(), "taken.mkv")
	require.NoError(t, os.WriteFile(filename, []byte("keep me"), 0600))

	w, err := NewWriter(filename, vidcrypt.Resolution{Width: 16, Height: 16}, Options{})
	require.NoError(t, err)
	assert.Error(t, w.Close())

	got, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep me"), got)
}

func TestRoundTripThroughVideoFile(t *testing.T) {
	requireFFmpeg(t)

	// 300 is not a multiple of 16, which encoders like to pad to
	res := vidcrypt.Resolution{Width: 300, Height: 300}
	data := make([]byte, 60000)
	for i := range data {
		data[i] = byte(i*31 + i>>8)
	}

	for _, profile := range []vidcrypt.Profile{vidcrypt.ProfileRGBA, vidcrypt.ProfileRGBMajority} {
		t.Run(profile.String(), func(t *testing.T) {
			ctx := context.Background()
			ch, err := vidcrypt.NewChannel(vidcrypt.Options{Profile: profile})
			require.NoError(t, err)
			key, err := vidcrypt.NewSecureKey([]byte("pw1234567890"))
			require.NoError(t, err)
			t.Cleanup(func() { key.Close() })

			filename := filepath.Join(t.TempDir(), "out"+DefaultExtension)
			w, err := NewWriter(filename, res, Options{FPS: 30})
			require.NoError(t, err)
			n, err := ch.WriteTo(ctx, w, vidcrypt.File{Name: "data.bin", Data: data}, key, res, 30)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			require.Greater(t, n, 1)
			assert.Equal(t, n, w.Frames())

			r, err := Open(filename)
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, res, r.Resolution())

			rec, err := ch.Read(ctx, r, key)
			require.NoError(t, err)
			assert.Equal(t, "data.bin", rec.Filename)
			assert.Equal(t, data, rec.Plaintext)

			frames, err := Open(filename)
			require.NoError(t, err)
			defer frames.Close()
			count := 0
			for {
				f, err := frames.NextFrame(ctx)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, res.Width, res.Height), f.Bounds())
				count++
			}
			assert.Equal(t, n, count)
		})
	}
}

func TestNewWriter_RejectsInvalidParameters(t *testing.T) {
	_, err := NewWriter("unused.mkv", vidcrypt.Resolution{Width: 0, Height: 10}, Options{})
	assert.ErrorIs(t, err, vidcrypt.ErrInvalidResolution)

	_, err = NewWriter("unused.mkv", vidcrypt.Resolution{Width: 10, Height: 10}, Options{FPS: vidcrypt.MaxFPS + 1})
	assert.ErrorIs(t, err, vidcrypt.ErrInvalidFPS)
}
