// internal/safe/safe.go
package safe

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"vsx/shared/utils"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidHash     = errors.New("invalid content hash")
	ErrHashMismatch    = errors.New("content hash mismatch")
)

// Safe is the content-addressed object store: one immutable file per blob,
// named by the SHA-256 digest of its content. Objects are never deleted.
type Safe struct {
	root  string
	cache *lru.Cache[string, []byte]
	codec *compressionManager
}

// Options configures Safe behavior
type Options struct {
	Root        string // Root directory path
	CacheSize   int    // Number of blobs to cache
	Compression CompressionOptions
}

// New creates a new Safe instance
func New(opts Options) (*Safe, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("root directory is required")
	}

	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	if opts.Compression.Level == 0 {
		opts.Compression = DefaultCompressionOptions()
	}
	codec, err := newCompressionManager(opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("creating compression manager: %w", err)
	}

	return &Safe{
		root:  opts.Root,
		cache: cache,
		codec: codec,
	}, nil
}

// Store saves content and returns its hash. Storing content that is
// already present is a no-op.
func (s *Safe) Store(content []byte) (string, error) {
	if content == nil {
		content = []byte{} // Empty files are valid
	}

	hash := utils.HashContent(content)

	exists, err := s.Exists(hash)
	if err != nil {
		return "", fmt.Errorf("checking existence: %w", err)
	}
	if exists {
		return hash, nil
	}

	data, err := s.codec.encode(content)
	if err != nil {
		return "", fmt.Errorf("encoding content: %w", err)
	}

	if err := utils.SafeWrite(s.contentPath(hash), data, 0444); err != nil {
		return "", fmt.Errorf("writing content file: %w", err)
	}

	s.cache.Add(hash, append([]byte(nil), content...))
	return hash, nil
}

// Get retrieves content by hash and checks it still hashes to hash.
func (s *Safe) Get(hash string) ([]byte, error) {
	if !s.isValidHash(hash) {
		return nil, ErrInvalidHash
	}

	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	data, err := os.ReadFile(s.contentPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("reading content: %w", err)
	}

	content, err := s.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHashMismatch, err)
	}

	if utils.HashContent(content) != hash {
		return nil, ErrHashMismatch
	}

	s.cache.Add(hash, content)
	return content, nil
}

// Exists checks if content exists
func (s *Safe) Exists(hash string) (bool, error) {
	if !s.isValidHash(hash) {
		return false, ErrInvalidHash
	}

	if s.cache.Contains(hash) {
		return true, nil
	}

	_, err := os.Stat(s.contentPath(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Verify checks content integrity, bypassing the cache.
func (s *Safe) Verify(hash string) error {
	s.cache.Remove(hash)
	_, err := s.Get(hash)
	return err
}

// List returns every stored hash, sorted.
func (s *Safe) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading object directory: %w", err)
	}

	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && s.isValidHash(e.Name()) {
			hashes = append(hashes, e.Name())
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

func (s *Safe) contentPath(hash string) string {
	return filepath.Join(s.root, hash)
}

func (s *Safe) isValidHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
