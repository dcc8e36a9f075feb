// Package cache persists annotated documents between runs.
//
// Prover round trips dominate processing time, so annotated output is
// cached keyed by the document's input chunks. A cache entry also pins
// the prover name and version that produced it: output from one prover
// version is never served for another.
package cache

import (
	"context"

	"github.com/mattam82/alectryon/internal/document"
)

// Annotator computes annotated fragments for a list of input chunks.
type Annotator func(ctx context.Context, chunks []string) (document.Movie, error)

// Cache stores annotated movies keyed by input chunks.
type Cache interface {
	// Get returns the cached movie for chunks, if a valid entry produced
	// by the given generator exists.
	Get(chunks []string, generator document.GeneratorInfo) (document.Movie, bool, error)

	// Put stores the movie for chunks.
	Put(chunks []string, movie document.Movie, generator document.GeneratorInfo) error

	// Update returns the cached movie for chunks or, on a miss, runs
	// annotate and stores its result.
	Update(ctx context.Context, chunks []string, annotate Annotator, generator document.GeneratorInfo) (document.Movie, error)
}

// Nop is the cache used when no cache directory is configured. Gets
// always miss and puts are discarded.
type Nop struct{}

func (Nop) Get([]string, document.GeneratorInfo) (document.Movie, bool, error) {
	return nil, false, nil
}

func (Nop) Put([]string, document.Movie, document.GeneratorInfo) error {
	return nil
}

func (Nop) Update(ctx context.Context, chunks []string, annotate Annotator, _ document.GeneratorInfo) (document.Movie, error) {
	return annotate(ctx, chunks)
}
