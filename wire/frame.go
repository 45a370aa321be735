// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"io"

	"github.com/luxfi/hybridsync/utils/wrappers"
)

// WriteFrame writes m to w as `u32 length (big-endian) | u8 tag |
// payload`, where length counts the tag byte plus the payload.
func WriteFrame(w io.Writer, m Message) error {
	payload := m.Encode()

	frame := make([]byte, 4+1+len(payload))
	p := wrappers.Packer{Bytes: frame[:0]}
	p.PackUint32BE(uint32(1 + len(payload)))
	p.PackByte(byte(m.Tag()))
	p.PackFixedBytes(payload)
	if p.Err != nil {
		return p.Err
	}

	_, err := w.Write(p.Bytes)
	return err
}

// ReadFrame reads one frame from r and returns its tag and raw
// payload bytes (the tag byte and length prefix are already stripped).
func ReadFrame(r io.Reader) (Tag, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	u := wrappers.NewUnpacker(lenBuf[:])
	length := u.UnpackUint32BE()

	if length == 0 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	if length > MaxFrameSize {
		return 0, nil, ErrFrameTooLarge
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	return Tag(body[0]), body[1:], nil
}

// Decode parses payload according to tag, returning the concrete
// Message value. Callers type-switch on the result.
func Decode(tag Tag, payload []byte) (Message, error) {
	switch tag {
	case TagSyncHandshake:
		return DecodeSyncHandshake(payload)
	case TagSyncHandshakeResponse:
		return DecodeSyncHandshakeResponse(payload)
	case TagDeltaSyncRequest:
		return DecodeDeltaSyncRequest(payload)
	case TagDeltaSyncResponse:
		return DecodeDeltaSyncResponse(payload)
	case TagTreeNodeRequest:
		return DecodeTreeNodeRequest(payload)
	case TagTreeNodeResponse:
		return DecodeTreeNodeResponse(payload)
	case TagBloomFilterRequest:
		return DecodeBloomFilterRequest(payload)
	case TagBloomFilterResponse:
		return DecodeBloomFilterResponse(payload)
	case TagSubtreePrefetchRequest:
		return DecodeSubtreePrefetchRequest(payload)
	case TagSubtreePrefetchResponse:
		return DecodeSubtreePrefetchResponse(payload)
	case TagLevelWiseRequest:
		return DecodeLevelWiseRequest(payload)
	case TagLevelWiseResponse:
		return DecodeLevelWiseResponse(payload)
	case TagSnapshotRequest:
		return DecodeSnapshotRequest(payload)
	case TagSnapshotPage:
		return DecodeSnapshotPage(payload)
	case TagSnapshotComplete:
		return DecodeSnapshotComplete(payload)
	default:
		return nil, ErrUnknownTag
	}
}

// ReadMessage is the composition of ReadFrame and Decode most callers
// want: one call, one decoded Message.
func ReadMessage(r io.Reader) (Message, error) {
	tag, payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(tag, payload)
}
