package safe

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"vsx/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSafe(t *testing.T, compression CompressionOptions) *Safe {
	s, err := New(Options{
		Root:        filepath.Join(t.TempDir(), "objects"),
		CacheSize:   16,
		Compression: compression,
	})
	require.NoError(t, err)
	return s
}

func TestSafe_StoreIsContentAddressedAndIdempotent(t *testing.T) {
	s := newTestSafe(t, DefaultCompressionOptions())

	h1, err := s.Store([]byte("x"))
	require.NoError(t, err)
	h2, err := s.Store([]byte("x"))
	require.NoError(t, err)

	assert.Equal(t, utils.HashContent([]byte("x")), h1)
	assert.Equal(t, h1, h2)

	hashes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{h1}, hashes)
}

func TestSafe_RoundTrip(t *testing.T) {
	big := bytes.Repeat([]byte("line of text that compresses well\n"), 512)

	tests := []struct {
		name    string
		content []byte
		opts    CompressionOptions
	}{
		{"empty", []byte{}, DefaultCompressionOptions()},
		{"small raw", []byte("hello"), DefaultCompressionOptions()},
		{"large compressed", big, DefaultCompressionOptions()},
		{"compression disabled", big, CompressionOptions{Enabled: false, Level: 2, MinSize: 1}},
		{"streaming", big, CompressionOptions{Enabled: true, Level: 1, MinSize: 1, StreamingThreshold: 64}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSafe(t, tt.opts)
			hash, err := s.Store(tt.content)
			require.NoError(t, err)

			// Read through a fresh instance so the cache is cold.
			cold, err := New(Options{Root: s.root, Compression: tt.opts})
			require.NoError(t, err)

			got, err := cold.Get(hash)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.content, got))
		})
	}
}

func TestSafe_CompressesLargeContent(t *testing.T) {
	s := newTestSafe(t, DefaultCompressionOptions())
	big := bytes.Repeat([]byte("aaaaaaaaaaaaaaaa"), 1024)

	hash, err := s.Store(big)
	require.NoError(t, err)

	data, err := os.ReadFile(s.contentPath(hash))
	require.NoError(t, err)
	assert.Equal(t, codecZstd, data[0])
	assert.Less(t, len(data), len(big))
}

func TestSafe_MissingAndInvalid(t *testing.T) {
	s := newTestSafe(t, DefaultCompressionOptions())

	_, err := s.Get(utils.HashContent([]byte("never stored")))
	assert.ErrorIs(t, err, ErrContentNotFound)

	_, err = s.Get("not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	exists, err := s.Exists(utils.HashContent([]byte("never stored")))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSafe_DetectsCorruption(t *testing.T) {
	s := newTestSafe(t, DefaultCompressionOptions())
	hash, err := s.Store([]byte("original"))
	require.NoError(t, err)

	path := s.contentPath(hash)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, append([]byte{codecRaw}, "tampered"...), 0644))

	assert.ErrorIs(t, s.Verify(hash), ErrHashMismatch)

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte("?bad codec"), 0644))
	assert.ErrorIs(t, s.Verify(hash), ErrHashMismatch)
}

func TestSafe_CacheIsNotAliasedWithCaller(t *testing.T) {
	s := newTestSafe(t, DefaultCompressionOptions())
	content := []byte("abc")
	hash, err := s.Store(content)
	require.NoError(t, err)

	content[0] = 'z'

	got, err := s.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
