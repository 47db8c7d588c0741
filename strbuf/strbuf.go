// Package strbuf provides a growable text buffer with fallible allocation.
//
// The buffer holds UTF-8 and keeps it well-formed at every public boundary:
// appends are validated before any byte is committed, and truncation at a
// position that would split a code point is a programming error, not an
// allocation failure. Growth follows the same two-phase block discipline as
// package vec.
package strbuf

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/cod-technologies/fallacy/alloc"
)

// ErrInvalidEncoding indicates the unit being appended is not valid for the
// buffer's encoding. Nothing is appended when it is returned.
var ErrInvalidEncoding = errors.New("strbuf: invalid encoding")

// Buffer is a growable UTF-8 byte sequence backed by one allocator block.
// Not safe for concurrent mutation.
type Buffer struct {
	a     alloc.Allocator
	block alloc.Block
	buf   []byte // capacity view over block
	n     int
}

// New returns an empty buffer. A nil allocator uses alloc.Global.
func New(a alloc.Allocator) *Buffer {
	if a == nil {
		a = alloc.Global
	}
	return &Buffer{a: a}
}

// TryFromString returns a buffer holding a copy of s.
func TryFromString(a alloc.Allocator, s string) (*Buffer, error) {
	b := New(a)
	if err := b.TryPushString(s); err != nil {
		return nil, err
	}
	return b, nil
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the buffer capacity in bytes.
func (b *Buffer) Cap() int { return len(b.buf) }

// IsEmpty reports whether the buffer holds no bytes.
func (b *Buffer) IsEmpty() bool { return b.n == 0 }

// String returns a copy of the contents.
func (b *Buffer) String() string { return string(b.buf[:b.n]) }

// Bytes returns the contents as a slice sharing the buffer's storage,
// valid until the next mutating operation.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n:b.n] }

// TryReserve ensures capacity for at least additional more bytes.
func (b *Buffer) TryReserve(additional int) error {
	if additional < 0 {
		panic("strbuf: negative additional capacity")
	}
	newCap, err := alloc.GrowCapacity(b.Cap(), b.n, additional, 8)
	if err != nil {
		return err
	}
	if newCap == b.Cap() {
		return nil
	}
	var nb alloc.Block
	if b.block.IsZero() {
		nb, err = b.a.Allocate(alloc.Bytes(newCap))
	} else {
		nb, err = b.a.Grow(b.block, newCap)
	}
	if err != nil {
		return err
	}
	b.block = nb
	b.buf = nb.Bytes()
	return nil
}

// TryPushString appends s. Invalid UTF-8 is rejected before any growth and
// nothing is appended; a failed growth leaves the buffer unchanged.
func (b *Buffer) TryPushString(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidEncoding)
	}
	if err := b.TryReserve(len(s)); err != nil {
		return err
	}
	copy(b.buf[b.n:], s)
	b.n += len(s)
	return nil
}

// TryPushBytes appends p after validating it as UTF-8.
func (b *Buffer) TryPushBytes(p []byte) error {
	if !utf8.Valid(p) {
		return fmt.Errorf("%w: bytes are not valid UTF-8", ErrInvalidEncoding)
	}
	if err := b.TryReserve(len(p)); err != nil {
		return err
	}
	copy(b.buf[b.n:], p)
	b.n += len(p)
	return nil
}

// TryPushRune appends the UTF-8 encoding of r. Surrogates and out-of-range
// runes are rejected.
func (b *Buffer) TryPushRune(r rune) error {
	if !utf8.ValidRune(r) {
		return fmt.Errorf("%w: invalid rune %#U", ErrInvalidEncoding, r)
	}
	var tmp [utf8.UTFMax]byte
	size := utf8.EncodeRune(tmp[:], r)
	if err := b.TryReserve(size); err != nil {
		return err
	}
	copy(b.buf[b.n:], tmp[:size])
	b.n += size
	return nil
}

// TryPushEncoded decodes data from the given source encoding and appends the
// UTF-8 result. The decode runs to completion before the single fallible
// append, so a growth failure appends nothing. Malformed input follows the
// decoder's substitution policy.
func (b *Buffer) TryPushEncoded(enc encoding.Encoding, data []byte) error {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b.TryPushBytes(decoded)
}

// TryPushUTF16LE decodes UTF-16 little-endian bytes and appends them,
// the common wire form for Windows-originated text.
func (b *Buffer) TryPushUTF16LE(data []byte) error {
	return b.TryPushEncoded(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data)
}

// Pop removes and returns the last rune. It never allocates.
func (b *Buffer) Pop() (rune, bool) {
	if b.n == 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRune(b.buf[:b.n])
	b.n -= size
	return r, true
}

// Truncate keeps the first n bytes. A length at or beyond Len() leaves the
// buffer unchanged. Truncating in the middle of a code point panics.
func (b *Buffer) Truncate(n int) {
	if n < 0 {
		panic("strbuf: negative length")
	}
	if n >= b.n {
		return
	}
	if !utf8.RuneStart(b.buf[n]) {
		panic(fmt.Sprintf("strbuf: truncate at %d splits a code point", n))
	}
	b.n = n
}

// TryClone returns a new buffer holding a copy of the contents, backed by
// its own block from the same allocator. On failure no clone exists and the
// original is untouched.
func (b *Buffer) TryClone() (*Buffer, error) {
	nb := New(b.a)
	if err := nb.TryReserve(b.n); err != nil {
		return nil, err
	}
	copy(nb.buf[:b.n], b.buf[:b.n])
	nb.n = b.n
	return nb, nil
}

// Clear removes all bytes, keeping the capacity.
func (b *Buffer) Clear() { b.n = 0 }

// Free releases the buffer's block and resets it to an empty, reusable state.
func (b *Buffer) Free() {
	if !b.block.IsZero() {
		b.a.Release(b.block)
	}
	b.block = alloc.Block{}
	b.buf = nil
	b.n = 0
}
