// Package bstream defines the byte-stream contract Stream and Compressed
// stores are built against, plus two reference implementations (Mem, File).
// Concrete stream backends are a pluggable concern, kept separate from the
// core building-block contract: these exist so the rest of the module has
// something to exercise in tests and the CLI.
package bstream

import "io"

// Stream is a seekable, readable, writable byte source that additionally
// supports resizing and cloning into an independent cursor over the same
// underlying bytes.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker

	// Resize grows or shrinks the stream to newLen bytes. Growing pads
	// with zeros; shrinking truncates.
	Resize(newLen int64) error

	// Len returns the current length of the stream in bytes.
	Len() (int64, error)

	// Clone returns an independent cursor over the same underlying bytes:
	// writes through one handle are visible through the other, but each
	// handle seeks independently.
	Clone() (Stream, error)

	// Close releases any resources (file descriptors) held by the stream.
	Close() error
}
