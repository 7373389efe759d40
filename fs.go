package txio

import (
	"context"
	"io/fs"
	"time"

	"github.com/gobeaver/txio/codec"
)

// FileInfo describes a source entry visited by a directory copy
type FileInfo struct {
	Name    string
	Path    string // relative to the copy source, slash-separated
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// ============================================================================
// Core Interfaces
// ============================================================================

// FileReader decodes files. Reads never take part in a transaction.
type FileReader interface {
	// Read decodes the file at path in the given format into out.
	Read(ctx context.Context, path string, format codec.Format, out any) error

	// ReadAuto picks the format from the extension, then from the content.
	ReadAuto(ctx context.Context, path string, out any) error
}

// FileWriter performs file mutations that register for rollback while a
// transaction is active.
type FileWriter interface {
	// WriteEncoded writes an already encoded payload to path.
	WriteEncoded(ctx context.Context, path string, payload []byte, opts ...Option) error

	// Write encodes v in format and writes it to path.
	Write(ctx context.Context, path string, format codec.Format, v any, opts ...Option) error

	// Copy copies the file at src to dst.
	Copy(ctx context.Context, src, dst string, opts ...Option) error
}

// TreeCopier copies directory trees.
type TreeCopier interface {
	// Copy copies src into dst one entry at a time.
	Copy(ctx context.Context, src, dst string, opts ...Option) error

	// CopyConcurrent copies the children of every level in parallel.
	CopyConcurrent(ctx context.Context, src, dst string, opts ...Option) error
}

var (
	_ FileReader = (*File)(nil)
	_ FileWriter = (*File)(nil)
	_ TreeCopier = (*Directory)(nil)
)

// ============================================================================
// Checksums
// ============================================================================

// ChecksumAlgorithm represents a supported checksum algorithm
type ChecksumAlgorithm string

const (
	// ChecksumMD5 is the MD5 hash algorithm (128-bit, fast but not cryptographically secure)
	ChecksumMD5 ChecksumAlgorithm = "md5"
	// ChecksumSHA1 is the SHA-1 hash algorithm (160-bit, legacy)
	ChecksumSHA1 ChecksumAlgorithm = "sha1"
	// ChecksumSHA256 is the SHA-256 hash algorithm (256-bit, recommended)
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumSHA512 is the SHA-512 hash algorithm (512-bit)
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	// ChecksumCRC32 is the CRC32 checksum (32-bit, fastest, for integrity only)
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumXXHash is the xxHash algorithm (64-bit, extremely fast)
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
)
