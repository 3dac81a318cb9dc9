package effect

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Cursor walks a byte buffer with an explicit offset, decoding big-endian
// scalars as it goes. Reads never panic: any access past the end of the
// buffer fails with ErrOutOfBounds and leaves the offset where the failed
// read started.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor wraps data without copying it.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current absolute offset.
func (c *Cursor) Pos() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.off < 0 || c.off >= len(c.data) {
		return 0
	}
	return len(c.data) - c.off
}

// Has reports whether n more bytes can be read.
func (c *Cursor) Has(n int) bool { return n <= c.Remaining() }

// Seek moves the cursor to an absolute offset. Seeking past the end of the
// buffer is legal; the next read fails with ErrOutOfBounds.
func (c *Cursor) Seek(off int) { c.off = off }

// Skip advances the cursor by n bytes without decoding them.
func (c *Cursor) Skip(n int) { c.off += n }

func (c *Cursor) take(n int) ([]byte, error) {
	if !c.Has(n) {
		return nil, fmt.Errorf("%w: want %d bytes at offset %#x, have %d", ErrOutOfBounds, n, c.off, c.Remaining())
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadVec3 reads three consecutive float32 components.
func (c *Cursor) ReadVec3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := c.ReadF32()
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// ReadVarU16 reads the one- or two-byte count used by sized instructions.
// A clear high bit on the first byte is a single-byte count; a set high bit
// folds the low seven bits with a second byte. The stored value is biased
// by one, so the decoded range is 1..32768. A truncated encoding fails with
// ErrShortVarLen and restores the offset.
func (c *Cursor) ReadVarU16() (uint16, error) {
	start := c.off
	first, err := c.ReadU8()
	if err != nil {
		return 0, fmt.Errorf("%w at offset %#x", ErrShortVarLen, start)
	}
	v := uint16(first)
	if first&0x80 != 0 {
		second, err := c.ReadU8()
		if err != nil {
			c.off = start
			return 0, fmt.Errorf("%w at offset %#x", ErrShortVarLen, start)
		}
		v = uint16(first&0x7F)<<8 | uint16(second)
	}
	return v + 1, nil
}
