// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the sync protocol's binary framing and
// message encodings: each frame is
// `u32 length (big-endian) | u8 message_tag | payload (little-endian)`,
// and every payload is encoded with the Packer/Unpacker pair from
// package wrappers rather than a general-purpose serialization library,
// so the wire format never depends on reflection or struct tags.
package wire

// ProtocolVersion is the wire protocol version this package implements.
const ProtocolVersion uint32 = 1

// Tag identifies a message's wire type and payload shape.
type Tag byte

const (
	TagSyncHandshake         Tag = 0x01
	TagSyncHandshakeResponse Tag = 0x02

	TagDeltaSyncRequest  Tag = 0x10
	TagDeltaSyncResponse Tag = 0x11

	TagTreeNodeRequest  Tag = 0x20
	TagTreeNodeResponse Tag = 0x21

	TagBloomFilterRequest  Tag = 0x30
	TagBloomFilterResponse Tag = 0x31

	// SubtreePrefetch and LevelWise each get adjacent request/response
	// tag pairs (0x40/0x41, 0x50/0x51) so the frame dispatcher can tell
	// them apart without inspecting the payload.
	TagSubtreePrefetchRequest  Tag = 0x40
	TagSubtreePrefetchResponse Tag = 0x41

	TagLevelWiseRequest  Tag = 0x50
	TagLevelWiseResponse Tag = 0x51

	TagSnapshotRequest  Tag = 0x60
	TagSnapshotPage     Tag = 0x61
	TagSnapshotComplete Tag = 0x62
)

func (t Tag) String() string {
	switch t {
	case TagSyncHandshake:
		return "SyncHandshake"
	case TagSyncHandshakeResponse:
		return "SyncHandshakeResponse"
	case TagDeltaSyncRequest:
		return "DeltaSyncRequest"
	case TagDeltaSyncResponse:
		return "DeltaSyncResponse"
	case TagTreeNodeRequest:
		return "TreeNodeRequest"
	case TagTreeNodeResponse:
		return "TreeNodeResponse"
	case TagBloomFilterRequest:
		return "BloomFilterRequest"
	case TagBloomFilterResponse:
		return "BloomFilterResponse"
	case TagSubtreePrefetchRequest:
		return "SubtreePrefetchRequest"
	case TagSubtreePrefetchResponse:
		return "SubtreePrefetchResponse"
	case TagLevelWiseRequest:
		return "LevelWiseRequest"
	case TagLevelWiseResponse:
		return "LevelWiseResponse"
	case TagSnapshotRequest:
		return "SnapshotRequest"
	case TagSnapshotPage:
		return "SnapshotPage"
	case TagSnapshotComplete:
		return "SnapshotComplete"
	default:
		return "Unknown"
	}
}

// ProtocolTag names a sync strategy for handshake negotiation.
type ProtocolTag uint8

const (
	ProtocolNone ProtocolTag = iota
	ProtocolDelta
	ProtocolHashComparison
	ProtocolBloomFilter
	ProtocolSubtreePrefetch
	ProtocolLevelWise
	ProtocolSnapshot
)

func (p ProtocolTag) String() string {
	switch p {
	case ProtocolNone:
		return "None"
	case ProtocolDelta:
		return "Delta"
	case ProtocolHashComparison:
		return "HashComparison"
	case ProtocolBloomFilter:
		return "BloomFilter"
	case ProtocolSubtreePrefetch:
		return "SubtreePrefetch"
	case ProtocolLevelWise:
		return "LevelWise"
	case ProtocolSnapshot:
		return "Snapshot"
	default:
		return "Unknown"
	}
}

// Message is any wire payload that knows its own tag and can encode
// itself (excluding the outer frame length, which Frame owns).
type Message interface {
	Tag() Tag
	Encode() []byte
}
