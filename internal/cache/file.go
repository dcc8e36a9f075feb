package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mattam82/alectryon/internal/document"
	"github.com/mattam82/alectryon/internal/serde"
)

// cacheVersion is stored in entry metadata; bumping it invalidates every
// existing cache file.
const cacheVersion = "1"

var _ Cache = (*FileCache)(nil)
var _ Cache = Nop{}

// payload is the on-disk cache document. Annotated holds the movie in
// deduplicated form.
type payload struct {
	Generator document.GeneratorInfo `json:"generator"`
	Metadata  map[string]any         `json:"metadata"`
	Chunks    []string               `json:"chunks"`
	Annotated json.RawMessage        `json:"annotated"`
}

// FileCache stores one cache file per document under a cache root,
// mirroring the document's path relative to the working directory.
type FileCache struct {
	root        string
	docPath     string
	metadata    map[string]any
	compression Compression
}

// NewFileCache creates a cache for one document. metadata is recorded
// in entries and revalidated on reads, so callers should include
// anything that changes the meaning of cached output (prover arguments,
// dialect settings).
func NewFileCache(root, docPath string, metadata map[string]any, compression Compression) (*FileCache, error) {
	if root == "" {
		return nil, fmt.Errorf("file cache: empty cache root")
	}
	rel := relDocPath(docPath)
	md := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		md[k] = v
	}
	md["cache_version"] = cacheVersion
	return &FileCache{
		root:        root,
		docPath:     rel,
		metadata:    md,
		compression: compression,
	}, nil
}

// relDocPath maps a document path to a safe relative path under the
// cache root.
func relDocPath(docPath string) string {
	if filepath.IsAbs(docPath) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, docPath); err == nil {
				docPath = rel
			}
		}
	}
	docPath = filepath.Clean(docPath)
	// Paths escaping the cache root collapse to their base name.
	if docPath == ".." || strings.HasPrefix(docPath, ".."+string(filepath.Separator)) {
		docPath = filepath.Base(docPath)
	}
	return docPath
}

// DocPath returns the relative document path keying this cache entry.
func (fc *FileCache) DocPath() string {
	return fc.docPath
}

// Path returns the cache file path for the configured compression.
func (fc *FileCache) Path() string {
	return filepath.Join(fc.root, fc.docPath+".cache"+fc.compression.Ext())
}

// variants lists every path the entry may live at, configured
// compression first.
func (fc *FileCache) variants() []string {
	base := filepath.Join(fc.root, fc.docPath+".cache")
	paths := []string{base + fc.compression.Ext()}
	for _, ext := range []string{"", ".gz", ".zst"} {
		if p := base + ext; p != paths[0] {
			paths = append(paths, p)
		}
	}
	return paths
}

func (fc *FileCache) read() (*payload, string, error) {
	for _, p := range fc.variants() {
		data, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading cache file %s: %w", p, err)
		}
		r, err := compressionForPath(p).newReader(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("reading cache file %s: %w", p, err)
		}
		var entry payload
		err = json.NewDecoder(r).Decode(&entry)
		r.Close()
		if err != nil {
			return nil, "", fmt.Errorf("parsing cache file %s: %w", p, err)
		}
		return &entry, p, nil
	}
	return nil, "", nil
}

// validate reports whether an entry can be served for the given chunks.
func (fc *FileCache) validate(entry *payload, chunks []string, generator document.GeneratorInfo) (bool, error) {
	if entry.Generator != generator {
		return false, nil
	}
	if !slices.Equal(entry.Chunks, chunks) {
		return false, nil
	}
	want, err := document.MarshalCanonical(fc.metadata)
	if err != nil {
		return false, fmt.Errorf("cache metadata: %w", err)
	}
	got, err := document.MarshalCanonical(entry.Metadata)
	if err != nil {
		// Metadata written by an incompatible version; treat as stale.
		return false, nil
	}
	return bytes.Equal(want, got), nil
}

func (fc *FileCache) Get(chunks []string, generator document.GeneratorInfo) (document.Movie, bool, error) {
	entry, _, err := fc.read()
	if err != nil || entry == nil {
		return nil, false, err
	}
	ok, err := fc.validate(entry, chunks, generator)
	if err != nil || !ok {
		return nil, false, err
	}
	movie, err := serde.DecodeMovieCompact(entry.Annotated)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached movie: %w", err)
	}
	return movie, true, nil
}

func (fc *FileCache) Put(chunks []string, movie document.Movie, generator document.GeneratorInfo) error {
	enc, err := serde.EncodeMovieCompact(movie)
	if err != nil {
		return fmt.Errorf("encoding movie for cache: %w", err)
	}
	annotated, err := serde.MarshalJSON(enc, "")
	if err != nil {
		return fmt.Errorf("encoding movie for cache: %w", err)
	}
	entry := payload{
		Generator: generator,
		Metadata:  fc.metadata,
		Chunks:    chunks,
		Annotated: json.RawMessage(bytes.TrimRight(annotated, "\n")),
	}

	target := fc.Path()
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := fc.compression.newWriter(&buf)
	if err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	encErr := json.NewEncoder(w).Encode(&entry)
	if err := w.Close(); encErr == nil {
		encErr = err
	}
	if encErr != nil {
		return fmt.Errorf("writing cache file: %w", encErr)
	}

	// Write-then-rename keeps readers from observing partial entries.
	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp*")
	if err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	_, writeErr := tmp.Write(buf.Bytes())
	if err := tmp.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache file: %w", writeErr)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache file: %w", err)
	}

	// Drop entries left behind under other compression settings.
	for _, p := range fc.variants()[1:] {
		os.Remove(p)
	}
	return nil
}

func (fc *FileCache) Update(ctx context.Context, chunks []string, annotate Annotator, generator document.GeneratorInfo) (document.Movie, error) {
	movie, hit, err := fc.Get(chunks, generator)
	if err != nil {
		return nil, err
	}
	if hit {
		return movie, nil
	}
	movie, err = annotate(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := fc.Put(chunks, movie, generator); err != nil {
		return nil, err
	}
	return movie, nil
}
