package cache

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects the on-disk encoding of cache files.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name from a flag or config
// value. The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return Compression(s), nil
	}
	return "", fmt.Errorf("unknown cache compression %q (expected none, gzip, or zstd)", s)
}

// Ext returns the extension appended to cache file names, empty for
// uncompressed files.
func (c Compression) Ext() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	}
	return ""
}

// compressionForPath recovers the compression of an existing cache file
// from its name.
func compressionForPath(p string) Compression {
	switch {
	case strings.HasSuffix(p, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(p, ".zst"):
		return CompressionZstd
	}
	return CompressionNone
}

// newWriter wraps w with the configured compression. The caller must
// close the returned writer before relying on the output.
func (c Compression) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	}
	return nopWriteCloser{w}, nil
}

// newReader wraps r with the matching decompressor.
func (c Compression) newReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	}
	return io.NopCloser(r), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
