package resp

import (
	"errors"
	"io"
)

// minRead is the smallest spare capacity offered to a single Fill.
const minRead = 4096

// ErrBufferFull is returned by Fill when the buffer would exceed its size cap.
var ErrBufferFull = errors.New("resp: buffer full")

// Buffer is a growable read buffer for a byte stream. Bytes are appended
// at the tail by Fill or Write and consumed from the head by Advance.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	buf []byte
	off int
	max int
}

// NewBuffer returns a Buffer that refuses to hold more than max unread
// bytes. max <= 0 means unbounded.
func NewBuffer(max int) *Buffer {
	return &Buffer{max: max}
}

// Bytes returns the unread portion. The slice is valid until the next
// Fill, Write or Advance.
func (b *Buffer) Bytes() []byte { return b.buf[b.off:] }

// Len returns the number of unread bytes.
func (b *Buffer) Len() int { return len(b.buf) - b.off }

// Advance consumes n bytes from the head.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.Len() {
		panic("resp: Advance out of range")
	}
	b.off += n
	if b.off == len(b.buf) {
		b.buf = b.buf[:0]
		b.off = 0
	}
}

// Reset drops all unread bytes.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Write appends p to the buffer. It implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.max > 0 && b.Len()+len(p) > b.max {
		return 0, ErrBufferFull
	}
	b.grow(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Fill performs a single Read from r into the buffer's spare capacity and
// returns the number of bytes read.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	if b.max > 0 && b.Len() >= b.max {
		return 0, ErrBufferFull
	}
	b.grow(minRead)
	spare := b.buf[len(b.buf):cap(b.buf)]
	if b.max > 0 && len(spare) > b.max-b.Len() {
		spare = spare[:b.max-b.Len()]
	}
	n, err := r.Read(spare)
	if n < 0 {
		return 0, errors.New("resp: reader returned negative count")
	}
	b.buf = b.buf[:len(b.buf)+n]
	return n, err
}

// grow ensures room for n more bytes, first by sliding unread data to the
// front and then by reallocating.
func (b *Buffer) grow(n int) {
	if cap(b.buf)-len(b.buf) >= n {
		return
	}
	unread := b.Len()
	if b.off > 0 && cap(b.buf)-unread >= n {
		copy(b.buf, b.buf[b.off:])
		b.buf = b.buf[:unread]
		b.off = 0
		return
	}
	size := 2*cap(b.buf) + n
	if size < minRead {
		size = minRead
	}
	nb := make([]byte, unread, size)
	copy(nb, b.buf[b.off:])
	b.buf = nb
	b.off = 0
}
