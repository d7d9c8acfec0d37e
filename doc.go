// Package vidcrypt encrypts a file and carries it as pixel patterns across
// the frames of a video, with a self-describing header and layered integrity
// checks.
//
// # Overview
//
// Writing a file runs these stages in order:
//
//	file bytes → AES-256-GCM → wire record → fingerprint → header → frames
//
// Reading runs them in reverse. Frames are pulled one at a time from a
// FrameSource, so memory use is bounded by the payload and not by the video.
// The package itself does no file or container I/O. The video subpackage
// writes and reads real video files, and Store moves plaintext through an
// absfs.FileSystem.
//
// # Basic Usage
//
//	ch, err := vidcrypt.NewChannel(vidcrypt.Options{Profile: vidcrypt.ProfileRGBA})
//	if err != nil {
//	    panic(err)
//	}
//
//	err = vidcrypt.WithSecureKey([]byte("pw1234567890"), func(key *vidcrypt.SecureKey) error {
//	    frames, err := ch.Write(ctx, vidcrypt.File{Name: "notes.txt", Data: data},
//	        key, vidcrypt.Resolution{Width: 640, Height: 480}, 30)
//	    if err != nil {
//	        return err
//	    }
//	    rec, err := ch.Read(ctx, vidcrypt.NewSliceSource(frames), key)
//	    ...
//	})
//
// # Keys
//
// A key is the passphrase itself, zero-padded to 32 bytes. Passphrases longer
// than 32 bytes are rejected. There is no key derivation, so short
// passphrases give weak keys. Every SecureKey is wiped by Close.
//
// # Stream Format
//
// All integers are little-endian.
//
// Wire record:
//   - Nonce length (4 bytes), nonce (12 bytes)
//   - Tag length (4 bytes), tag (16 bytes)
//   - Ciphertext (the remainder, same length as the plaintext)
//
// Header, written before the wire record:
//   - Filename length (8 bytes), filename
//   - Payload size (8 bytes): length of the wire record
//   - Fingerprint (8 bytes): xxHash64 of the wire record
//   - FPS, width, height (8 bytes each)
//   - Sentinel (4 bytes): 0xDEADBEEF
//
// Header and wire record form one byte stream laid out in raster order
// across frames. A byte never depends on its neighbours, so its position is a
// pure function of its offset and the frame size (see Locate).
//
// # Pixel Profiles
//
// ProfileRGBA spends two pixels per byte, one bit per channel, each channel
// fully on or off. It needs a lossless codec that keeps alpha.
//
// ProfileRGBMajority spends eight pixels per byte and repeats each bit in R,
// G and B. Decoding takes the majority of the three, which tolerates moderate
// per-channel noise.
//
// # Integrity
//
// The fingerprint catches damage from the video round trip before any
// decryption is attempted and reports ErrCorruptionDetected. The GCM tag
// catches everything else, including deliberate tampering, and reports
// ErrAuthFailed. The fingerprint is not a security check.
package vidcrypt
