// Package fingerprint computes content digests of test vector files.
//
// Files are streamed through the hash in fixed-size chunks with a single
// reused buffer, so memory use does not depend on file size. Test vectors
// routinely run to several gigabytes.
package fingerprint

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/harrison/tvscan/internal/models"
)

// DefaultChunkSize is the number of bytes read per iteration.
const DefaultChunkSize = 8192

// Algorithm names a supported digest.
type Algorithm string

const (
	// MD5 matches digests in manifests produced by earlier tooling.
	MD5 Algorithm = "md5"
	// SHA256 is available for new manifests.
	SHA256 Algorithm = "sha256"
)

// ParseAlgorithm validates an algorithm name (case-insensitive).
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case MD5, "":
		return MD5, nil
	case SHA256:
		return SHA256, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q, must be one of: md5, sha256", name)
	}
}

// Engine streams files into a digest.
type Engine struct {
	chunkSize int
	algorithm Algorithm
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets the read size. Values <= 0 keep the default.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithAlgorithm selects the digest.
func WithAlgorithm(a Algorithm) Option {
	return func(e *Engine) {
		if a != "" {
			e.algorithm = a
		}
	}
}

// New creates an Engine using MD5 and DefaultChunkSize unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		chunkSize: DefaultChunkSize,
		algorithm: MD5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ChunkSize returns the configured read size in bytes.
func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// Algorithm returns the configured digest.
func (e *Engine) Algorithm() Algorithm {
	return e.algorithm
}

// HexLen returns the length of a digest produced by this engine, in hex characters.
func (e *Engine) HexLen() int {
	return e.newHash().Size() * 2
}

func (e *Engine) newHash() hash.Hash {
	if e.algorithm == SHA256 {
		return sha256.New()
	}
	return md5.New()
}

// File returns the hex digest of the file at path.
// Open and read failures are returned as *models.IOError with Op "hash".
func (e *Engine) File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &models.IOError{Op: "hash", Path: path, Err: err}
	}
	defer f.Close()

	sum, err := e.Reader(f)
	if err != nil {
		return "", &models.IOError{Op: "hash", Path: path, Err: err}
	}
	return sum, nil
}

// Reader returns the hex digest of everything read from r.
// Short reads are continued; the loop ends at io.EOF.
func (e *Engine) Reader(r io.Reader) (string, error) {
	h := e.newHash()
	buf := make([]byte, e.chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read chunk: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
