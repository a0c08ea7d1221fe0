package bstream

import (
	"errors"
	"io"
	"sync"
)

// memBuf is the shared backing storage for a family of Mem clones: a
// mutable byte slice behind a mutex, the way a file's bytes are shared by
// independently-seeking descriptors on the same inode.
type memBuf struct {
	mu   sync.Mutex
	data []byte
}

// Mem is an in-memory Stream implementation. Clone() produces a handle
// sharing the same memBuf but with its own cursor.
type Mem struct {
	buf    *memBuf
	cursor int64
}

// NewMem creates an empty in-memory stream.
func NewMem() *Mem {
	return &Mem{buf: &memBuf{}}
}

// Read implements io.Reader.
func (m *Mem) Read(p []byte) (int, error) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()

	if m.cursor >= int64(len(m.buf.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.buf.data[m.cursor:])
	m.cursor += int64(n)

	return n, nil
}

// Write implements io.Writer, growing the buffer as needed.
func (m *Mem) Write(p []byte) (int, error) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()

	end := m.cursor + int64(len(p))
	if end > int64(len(m.buf.data)) {
		grown := make([]byte, end)
		copy(grown, m.buf.data)
		m.buf.data = grown
	}

	n := copy(m.buf.data[m.cursor:end], p)
	m.cursor += int64(n)

	return n, nil
}

// Seek implements io.Seeker.
func (m *Mem) Seek(offset int64, whence int) (int64, error) {
	m.buf.mu.Lock()
	length := int64(len(m.buf.data))
	m.buf.mu.Unlock()

	var next int64

	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = m.cursor + offset
	case io.SeekEnd:
		next = length + offset
	default:
		return 0, errors.New("bstream: invalid whence")
	}

	if next < 0 {
		return 0, errors.New("bstream: negative seek position")
	}

	m.cursor = next

	return next, nil
}

// Resize implements Stream.
func (m *Mem) Resize(newLen int64) error {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()

	switch {
	case newLen < 0:
		return errors.New("bstream: negative length")
	case newLen <= int64(len(m.buf.data)):
		m.buf.data = m.buf.data[:newLen]
	default:
		grown := make([]byte, newLen)
		copy(grown, m.buf.data)
		m.buf.data = grown
	}

	return nil
}

// Len implements Stream.
func (m *Mem) Len() (int64, error) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()

	return int64(len(m.buf.data)), nil
}

// Clone implements Stream: the returned handle shares this stream's bytes
// but starts its cursor at 0, independent of m's cursor.
func (m *Mem) Clone() (Stream, error) {
	return &Mem{buf: m.buf}, nil
}

// Close implements Stream. Mem holds no external resources.
func (m *Mem) Close() error { return nil }
