// internal/safe/compression.go
package safe

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Every object file starts with one codec byte.
const (
	codecRaw  byte = 'r'
	codecZstd byte = 'z'
)

// CompressionOptions configures compression behavior
type CompressionOptions struct {
	Enabled bool
	// Minimum size in bytes before compressing
	MinSize int
	// Encoder level (1=fastest, 4=best)
	Level int
	// Content above this size is compressed through the streaming encoder
	StreamingThreshold int64
}

// DefaultCompressionOptions provides sensible defaults
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		Enabled:            true,
		MinSize:            1024,             // 1KB
		Level:              2,                // Balanced speed/compression
		StreamingThreshold: 50 * 1024 * 1024, // 50MB
	}
}

// compressionManager handles compression operations
type compressionManager struct {
	opts CompressionOptions

	// Encoder/decoder pools
	encoders sync.Pool
	decoders sync.Pool
}

func newCompressionManager(opts CompressionOptions) (*compressionManager, error) {
	if opts.Level < 1 || opts.Level > 4 {
		return nil, fmt.Errorf("invalid compression level %d", opts.Level)
	}

	level := zstd.EncoderLevel(opts.Level)

	// Create encoder/decoder for validation
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating test encoder: %w", err)
	}
	enc.Close()

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating test decoder: %w", err)
	}
	dec.Close()

	cm := &compressionManager{
		opts: opts,
		encoders: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil,
					zstd.WithEncoderLevel(level),
					zstd.WithEncoderConcurrency(1),
				)
				return enc
			},
		},
		decoders: sync.Pool{
			New: func() interface{} {
				dec, _ := zstd.NewReader(nil,
					zstd.WithDecoderConcurrency(1),
				)
				return dec
			},
		},
	}

	return cm, nil
}

// shouldCompress determines if content should be compressed
func (cm *compressionManager) shouldCompress(size int) bool {
	return cm.opts.Enabled && size >= cm.opts.MinSize
}

// encode returns the on-disk form of content: codec byte plus payload.
// Content that does not shrink is kept raw.
func (cm *compressionManager) encode(content []byte) ([]byte, error) {
	if cm.shouldCompress(len(content)) {
		compressed, err := cm.compress(content)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(content) {
			return append([]byte{codecZstd}, compressed...), nil
		}
	}

	return append([]byte{codecRaw}, content...), nil
}

// decode reverses encode.
func (cm *compressionManager) decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("object has no codec header")
	}

	switch data[0] {
	case codecRaw:
		return data[1:], nil
	case codecZstd:
		return cm.decompress(data[1:])
	default:
		return nil, fmt.Errorf("unknown object codec %q", data[0])
	}
}

func (cm *compressionManager) compress(content []byte) ([]byte, error) {
	enc := cm.encoders.Get().(*zstd.Encoder)
	defer cm.encoders.Put(enc)

	if int64(len(content)) > cm.opts.StreamingThreshold {
		return cm.compressStream(enc, content)
	}

	return enc.EncodeAll(content, make([]byte, 0, len(content)/2)), nil
}

// compressStream handles large content compression
func (cm *compressionManager) compressStream(enc *zstd.Encoder, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc.Reset(&buf)

	if _, err := io.Copy(enc, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("streaming compression: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing compression: %w", err)
	}

	return buf.Bytes(), nil
}

func (cm *compressionManager) decompress(content []byte) ([]byte, error) {
	dec := cm.decoders.Get().(*zstd.Decoder)
	defer cm.decoders.Put(dec)

	if int64(len(content)) > cm.opts.StreamingThreshold {
		return cm.decompressStream(dec, content)
	}

	out, err := dec.DecodeAll(content, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}

// decompressStream handles large content decompression
func (cm *compressionManager) decompressStream(dec *zstd.Decoder, content []byte) ([]byte, error) {
	if err := dec.Reset(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("resetting decoder: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return nil, fmt.Errorf("streaming decompression: %w", err)
	}

	return buf.Bytes(), nil
}
