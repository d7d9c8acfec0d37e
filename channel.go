package vidcrypt

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options configures a Channel
type Options struct {
	// Profile selects the pixel representation. Writer and reader must use
	// the same profile.
	Profile Profile

	// Engine performs the authenticated encryption. Defaults to AES-256-GCM
	// with crypto/rand nonces.
	Engine CipherEngine

	// Logger receives structured records. Defaults to the standard logrus
	// logger.
	Logger logrus.FieldLogger
}

// Channel turns files into encrypted frame streams and back. It holds no
// per-call state and is safe for concurrent use.
type Channel struct {
	codec  FrameCodec
	engine CipherEngine
	logger logrus.FieldLogger
}

// NewChannel creates a channel for opts.Profile
func NewChannel(opts Options) (*Channel, error) {
	codec, err := NewFrameCodec(opts.Profile)
	if err != nil {
		return nil, err
	}

	engine := opts.Engine
	if engine == nil {
		engine = NewAESGCMEngine()
	}

	return &Channel{
		codec:  codec,
		engine: engine,
		logger: opts.Logger,
	}, nil
}

// Profile returns the pixel profile the channel encodes with
func (c *Channel) Profile() Profile {
	return c.codec.Profile()
}

// Write encrypts file under key and encodes header and wire record into
// frames of size res. The arguments are validated before any cryptographic
// work. Only the base name of file.Name is stored.
func (c *Channel) Write(ctx context.Context, file File, key *SecureKey, res Resolution, fps int) (Frames, error) {
	log := newLogHelper(c.logger, "Write").WithFields(logrus.Fields{
		"resolution": res.String(),
		"fps":        fps,
		"profile":    c.codec.Profile().String(),
	})
	log.Entry("encoding file into frames")
	defer log.Exit()

	if err := ValidateResolution(res); err != nil {
		return nil, err
	}
	if err := ValidateFPS(fps); err != nil {
		return nil, err
	}
	if err := ValidateInput(file); err != nil {
		return nil, err
	}
	name, err := safeFilename(file.Name)
	if err != nil {
		return nil, NewValidationError("filename", file.Name, "filename has no base name", ErrInvalidArgument)
	}
	file.Name = name
	if key == nil {
		return nil, NewValidationError("key", nil, "key cannot be nil", ErrNilKey)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := c.engine.Encrypt(file.Data, key)
	if err != nil {
		log.WithError(err, "encrypt").Error("Encryption failed")
		return nil, err
	}

	wire, err := Serialize(payload)
	if err != nil {
		return nil, err
	}

	header := NewStreamHeader(file.Name, len(wire), Fingerprint(wire), fps, res)
	total := header.Size() + len(wire)
	frameCount := RequiredFrames(total, c.codec.PixelsPerByte(), res)
	log.WithFields(logrus.Fields{
		"payload_size": len(wire),
		"header_size":  header.Size(),
		"frames":       frameCount,
	}).Debug("Stream layout computed")

	enc := newStreamEncoder(c.codec, res, frameCount)
	if err := enc.WriteHeader(header); err != nil {
		return nil, err
	}
	if err := enc.WritePayload(wire); err != nil {
		return nil, err
	}
	frames, err := enc.Finalize()
	if err != nil {
		return nil, err
	}

	log.Info("File encoded")
	return frames, nil
}

// WriteTo encodes file like Write and hands each frame to sink in order. The
// sink owns the frames it receives.
func (c *Channel) WriteTo(ctx context.Context, sink FrameSink, file File, key *SecureKey, res Resolution, fps int) (int, error) {
	if sink == nil {
		return 0, NewValidationError("sink", nil, "frame sink cannot be nil", ErrNilFrameSink)
	}

	frames, err := c.Write(ctx, file, key, res, fps)
	if err != nil {
		return 0, err
	}

	for i := range frames {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := sink.WriteFrame(ctx, frames[i]); err != nil {
			return i, NewIOError("push", StageHandoff, i, err)
		}
		frames[i] = nil
	}
	return len(frames), nil
}

// Read pulls frames from src, decodes the header and wire record, checks the
// fingerprint and decrypts. A fingerprint mismatch fails with
// ErrCorruptionDetected before decryption is attempted.
func (c *Channel) Read(ctx context.Context, src FrameSource, key *SecureKey) (*Recovered, error) {
	log := newLogHelper(c.logger, "Read").WithField("profile", c.codec.Profile().String())
	log.Entry("decoding frames")
	defer log.Exit()

	if src == nil {
		return nil, NewValidationError("source", nil, "frame source cannot be nil", ErrNilFrameSource)
	}
	if key == nil {
		return nil, NewValidationError("key", nil, "key cannot be nil", ErrNilKey)
	}

	dec, err := newStreamDecoder(ctx, src, c.codec)
	if err != nil {
		log.WithError(err, "pull").Error("Failed to read first frame")
		return nil, err
	}

	header, err := dec.ReadHeader()
	if err != nil {
		log.WithError(err, "read header").Error("Invalid stream header")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"resolution":   header.Resolution().String(),
		"payload_size": header.PayloadSize,
		"fps":          header.FPS,
	}).Debug("Header parsed")

	wire, err := dec.ReadPayload()
	if err != nil {
		log.WithError(err, "read payload").WithField("frames", dec.FramesRead()).Error("Payload recovery failed")
		return nil, err
	}

	payload, err := Deserialize(wire)
	if err != nil {
		return nil, err
	}

	plaintext, err := c.engine.Decrypt(payload, key)
	if err != nil {
		log.WithError(err, "decrypt").Error("Decryption failed")
		return nil, err
	}

	name, err := safeFilename(header.Filename)
	if err != nil {
		return nil, err
	}

	log.WithField("frames", dec.FramesRead()).Info("File recovered")
	return &Recovered{
		Filename:  name,
		Plaintext: plaintext,
		Header:    *header,
	}, nil
}

// safeFilename reduces a recovered name to its base name so it cannot escape
// the output directory.
func safeFilename(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return "", NewFormatError("header", fmt.Sprintf("unusable filename %q", name))
	}
	return base, nil
}
