// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wrappers collects small, dependency-free helpers shared across
// the sync core: an error-accumulator (used to collect metric
// registration errors) and a byte Packer/Unpacker pair used to build the canonical
// little-endian encodings that codec and wire are built on.
package wrappers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Errs is a collection of errors.
type Errs struct {
	mu   sync.RWMutex
	errs []error
}

// Add adds an error to the collection. A nil error is a no-op.
func (e *Errs) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

// Errored returns true if any errors have been added.
func (e *Errs) Errored() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.errs) > 0
}

// Err returns the errors as a single error.
func (e *Errs) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return errors.New(e.String())
	}
}

// String returns a string representation of all errors.
func (e *Errs) String() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error", len(e.errs)))
	if len(e.errs) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString(" occurred:")

	for _, err := range e.errs {
		sb.WriteString("\n\t* ")
		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Len returns the number of errors.
func (e *Errs) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.errs)
}

// ErrShortBuffer is returned by Unpacker methods when fewer bytes remain
// than the field being read requires.
var ErrShortBuffer = errors.New("wrappers: buffer too short")

// Packer builds a byte slice field by field. Every multi-byte integer
// is written little-endian, matching the wire protocol's payload
// convention of canonical little-endian serialization.
// Once Err is set, every Pack call becomes a no-op so callers can chain
// packing calls and check Err once at the end.
type Packer struct {
	Bytes []byte
	Err   error
}

// NewPacker returns a new Packer with size bytes of pre-allocated capacity.
func NewPacker(size int) *Packer {
	return &Packer{Bytes: make([]byte, 0, size)}
}

// PackByte packs a single byte.
func (p *Packer) PackByte(b byte) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, b)
}

// PackBool packs a bool as one byte (0 or 1).
func (p *Packer) PackBool(b bool) {
	if b {
		p.PackByte(1)
	} else {
		p.PackByte(0)
	}
}

// PackFixedBytes packs raw bytes with no length prefix; the caller is
// responsible for the reader knowing the width (used for 32-byte ids).
func (p *Packer) PackFixedBytes(b []byte) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, b...)
}

// PackBytes packs a u32-length-prefixed byte slice.
func (p *Packer) PackBytes(b []byte) {
	if p.Err != nil {
		return
	}
	p.PackUint32(uint32(len(b)))
	p.PackFixedBytes(b)
}

// PackString packs a u32-length-prefixed UTF-8 string.
func (p *Packer) PackString(s string) {
	p.PackBytes([]byte(s))
}

// PackUint32 packs a uint32 little-endian.
func (p *Packer) PackUint32(i uint32) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, byte(i), byte(i>>8), byte(i>>16), byte(i>>24))
}

// PackUint64 packs a uint64 little-endian.
func (p *Packer) PackUint64(l uint64) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes,
		byte(l), byte(l>>8), byte(l>>16), byte(l>>24),
		byte(l>>32), byte(l>>40), byte(l>>48), byte(l>>56))
}

// PackUint32BE packs a uint32 big-endian; used only for the outer frame
// length prefix, a big-endian u32.
func (p *Packer) PackUint32BE(i uint32) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, byte(i>>24), byte(i>>16), byte(i>>8), byte(i))
}

// Unpacker reads fields back out of a byte slice in the same order a
// matching Packer wrote them, tracking an offset and a sticky error.
type Unpacker struct {
	Bytes  []byte
	Offset int
	Err    error
}

// NewUnpacker returns an Unpacker reading from b.
func NewUnpacker(b []byte) *Unpacker {
	return &Unpacker{Bytes: b}
}

func (u *Unpacker) take(n int) []byte {
	if u.Err != nil {
		return nil
	}
	if u.Offset+n > len(u.Bytes) {
		u.Err = ErrShortBuffer
		return nil
	}
	out := u.Bytes[u.Offset : u.Offset+n]
	u.Offset += n
	return out
}

// UnpackByte reads a single byte.
func (u *Unpacker) UnpackByte() byte {
	b := u.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// UnpackBool reads a one-byte bool.
func (u *Unpacker) UnpackBool() bool {
	return u.UnpackByte() != 0
}

// UnpackFixedBytes reads exactly n raw bytes.
func (u *Unpacker) UnpackFixedBytes(n int) []byte {
	b := u.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// UnpackUint32 reads a little-endian uint32.
func (u *Unpacker) UnpackUint32() uint32 {
	b := u.take(4)
	if b == nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// UnpackUint64 reads a little-endian uint64.
func (u *Unpacker) UnpackUint64() uint64 {
	b := u.take(8)
	if b == nil {
		return 0
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// UnpackBytes reads a u32-length-prefixed byte slice.
func (u *Unpacker) UnpackBytes() []byte {
	n := u.UnpackUint32()
	if u.Err != nil {
		return nil
	}
	return u.UnpackFixedBytes(int(n))
}

// UnpackString reads a u32-length-prefixed UTF-8 string.
func (u *Unpacker) UnpackString() string {
	b := u.UnpackBytes()
	if b == nil {
		return ""
	}
	return string(b)
}

// UnpackUint32BE reads a big-endian uint32; used only for the outer
// frame length prefix, a big-endian u32.
func (u *Unpacker) UnpackUint32BE() uint32 {
	b := u.take(4)
	if b == nil {
		return 0
	}
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

// Done reports whether every byte in the buffer has been consumed and
// no error has occurred; callers use this to reject trailing garbage
// after a message frame.
func (u *Unpacker) Done() bool {
	return u.Err == nil && u.Offset == len(u.Bytes)
}
