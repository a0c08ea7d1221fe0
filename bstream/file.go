package bstream

import "os"

// File is a file-backed Stream: os.OpenFile for read-write access,
// Seek/Truncate for resizing.
type File struct {
	path string
	f    *os.File
}

// OpenFile opens (creating if needed) a file-backed stream at path.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	return &File{path: path, f: f}, nil
}

// Read implements io.Reader.
func (s *File) Read(p []byte) (int, error) { return s.f.Read(p) }

// Write implements io.Writer.
func (s *File) Write(p []byte) (int, error) { return s.f.Write(p) }

// Seek implements io.Seeker.
func (s *File) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

// Resize implements Stream.
func (s *File) Resize(newLen int64) error {
	return s.f.Truncate(newLen)
}

// Len implements Stream.
func (s *File) Len() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// Clone implements Stream: reopens the same path with an independent
// cursor, the way two descriptors on the same inode seek independently.
func (s *File) Clone() (Stream, error) {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	return &File{path: s.path, f: f}, nil
}

// Close implements Stream.
func (s *File) Close() error { return s.f.Close() }
