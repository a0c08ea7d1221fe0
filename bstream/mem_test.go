package bstream_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetree/blockcache/bstream"
)

func TestMem_WriteReadRoundTrip(t *testing.T) {
	m := bstream.NewMem()

	n, err := m.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = m.Seek(0, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err = m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestMem_Resize(t *testing.T) {
	m := bstream.NewMem()
	m.Write([]byte("hello"))

	require.NoError(t, m.Resize(2))

	l, err := m.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(2), l)

	require.NoError(t, m.Resize(4))

	l, err = m.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(4), l)
}

func TestMem_CloneSharesBackingButNotCursor(t *testing.T) {
	m := bstream.NewMem()
	m.Write([]byte("hello"))

	clone, err := m.Clone()
	require.NoError(t, err)

	_, err = clone.Seek(0, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = clone.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	pos, err := m.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos, "original cursor is independent of the clone's")
}
