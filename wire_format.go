package vidcrypt

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Wire record layout, all length fields little-endian uint32:
//
//	[0..4)   nonce length (12)
//	[4..+N)  nonce
//	[..+4)   tag length (16)
//	[..+M)   tag
//	[..end)  ciphertext (remainder, no length field)
const (
	// lengthFieldSize is the width of the nonce and tag length fields
	lengthFieldSize = 4

	// MinWireRecordSize is the smallest buffer Deserialize will look at
	MinWireRecordSize = 2 * lengthFieldSize
)

// WireSize returns the serialized size of p
func WireSize(p *AeadPayload) int {
	return 2*lengthFieldSize + len(p.Nonce) + len(p.Tag) + len(p.Ciphertext)
}

// Serialize flattens an encrypted payload into a wire record
func Serialize(p *AeadPayload) ([]byte, error) {
	if p == nil {
		return nil, NewValidationError("payload", nil, "payload cannot be nil", ErrInvalidArgument)
	}
	if len(p.Nonce) == 0 {
		return nil, NewValidationError("nonce", 0, "nonce cannot be empty", ErrInvalidArgument)
	}
	if len(p.Tag) == 0 {
		return nil, NewValidationError("tag", 0, "tag cannot be empty", ErrInvalidArgument)
	}

	buf := bytes.NewBuffer(make([]byte, 0, WireSize(p)))

	if err := binary.Write(buf, binary.LittleEndian, uint32(len(p.Nonce))); err != nil {
		return nil, fmt.Errorf("failed to write nonce length: %w", err)
	}
	buf.Write(p.Nonce)

	if err := binary.Write(buf, binary.LittleEndian, uint32(len(p.Tag))); err != nil {
		return nil, fmt.Errorf("failed to write tag length: %w", err)
	}
	buf.Write(p.Tag)

	buf.Write(p.Ciphertext)
	return buf.Bytes(), nil
}

// Deserialize parses a wire record. Every short read yields
// ErrInvalidWireFormat; nothing is returned for a malformed record.
func Deserialize(data []byte) (*AeadPayload, error) {
	if len(data) < MinWireRecordSize {
		return nil, NewFormatError("wire", fmt.Sprintf("record too short: got %d bytes, need at least %d", len(data), MinWireRecordSize))
	}

	pos := 0

	rawNonceLen := binary.LittleEndian.Uint32(data[pos:])
	pos += lengthFieldSize
	if rawNonceLen == 0 {
		return nil, NewFormatError("wire", "nonce length cannot be zero")
	}
	if uint64(len(data)-pos) < uint64(rawNonceLen)+lengthFieldSize {
		return nil, NewFormatError("wire", fmt.Sprintf("nonce length %d exceeds remaining %d bytes", rawNonceLen, len(data)-pos))
	}
	nonceLen := int(rawNonceLen)
	nonce := make([]byte, nonceLen)
	copy(nonce, data[pos:pos+nonceLen])
	pos += nonceLen

	rawTagLen := binary.LittleEndian.Uint32(data[pos:])
	pos += lengthFieldSize
	if rawTagLen == 0 {
		return nil, NewFormatError("wire", "tag length cannot be zero")
	}
	if uint64(len(data)-pos) < uint64(rawTagLen) {
		return nil, NewFormatError("wire", fmt.Sprintf("tag length %d exceeds remaining %d bytes", rawTagLen, len(data)-pos))
	}
	tagLen := int(rawTagLen)
	tag := make([]byte, tagLen)
	copy(tag, data[pos:pos+tagLen])
	pos += tagLen

	ciphertext := make([]byte, len(data)-pos)
	copy(ciphertext, data[pos:])

	return &AeadPayload{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Tag:        tag,
	}, nil
}
