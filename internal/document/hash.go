package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old keys.
const (
	DomainNode   = "alectryon/node/v1"
	DomainBlock  = "alectryon/block/v1"
	DomainChunks = "alectryon/chunks/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NodeKey computes the deduplication key for a serialized node. Two nodes
// share a key exactly when their canonical JSON is identical, which is the
// property the deduplicating serializer relies on.
func NodeKey(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("NodeKey: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// BlockKey computes the backreference key for a rendered HTML block
// (a hypothesis, a hypothesis list, or a conclusion). The HTML renderer
// emits a block once per key and backreferences later occurrences.
func BlockKey(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("BlockKey: %w", err)
	}
	return hashWithDomain(DomainBlock, canonical), nil
}

// ChunksHash computes the content hash of a document's input chunks,
// used by the cache index to detect outdated entries.
func ChunksHash(chunks []string) (string, error) {
	canonical, err := MarshalCanonical(chunks)
	if err != nil {
		return "", fmt.Errorf("ChunksHash: %w", err)
	}
	return hashWithDomain(DomainChunks, canonical), nil
}

// MustNodeKey is like NodeKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNodeKey(v any) string {
	key, err := NodeKey(v)
	if err != nil {
		panic(err)
	}
	return key
}

// MustBlockKey is like BlockKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBlockKey(v any) string {
	key, err := BlockKey(v)
	if err != nil {
		panic(err)
	}
	return key
}
