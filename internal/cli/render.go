package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mattam82/alectryon/internal/cache"
	"github.com/mattam82/alectryon/internal/config"
	"github.com/mattam82/alectryon/internal/document"
	"github.com/mattam82/alectryon/internal/htmlgen"
	"github.com/mattam82/alectryon/internal/prover"
	"github.com/mattam82/alectryon/internal/schema"
	"github.com/mattam82/alectryon/internal/serde"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output          string
	OutputDirectory string
	Backend         string
	StdinFilename   string
}

// RenderResult is the success payload for one rendered input.
type RenderResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Backend string `json:"backend"`
	Cached  bool   `json:"cached"`
}

func (r RenderResult) String() string {
	suffix := ""
	if r.Cached {
		suffix = " (cached)"
	}
	return fmt.Sprintf("%s -> %s%s", r.Input, r.Output, suffix)
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <input>...",
		Short: "Annotate proof scripts and render them",
		Long: `Render prover source files or pre-annotated movie JSON.

Inputs ending in .lean are run through the prover; inputs ending in
.json are read as annotated movies. "-" reads from stdin, classified by
--stdin-filename.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (\"-\" for stdout)")
	cmd.Flags().StringVar(&opts.OutputDirectory, "output-directory", "", "directory for computed output paths")
	cmd.Flags().StringVar(&opts.Backend, "backend", string(BackendWebpage), "output kind (webpage|snippets-html|json)")
	cmd.Flags().StringVar(&opts.StdinFilename, "stdin-filename", "", "name used to classify and title stdin input")

	// Settings shared with alectryon.yaml; flags win when set.
	cmd.Flags().Bool("html-minification", false, "deduplicate repeated goals with backreferences")
	cmd.Flags().String("html-dialect", config.DefaultHTMLDialect, "HTML flavor for webpages (html4|html5)")
	cmd.Flags().Int("long-line-threshold", config.DefaultLongLineThreshold, "mark blocks with lines longer than this (-1 disables)")
	cmd.Flags().String("webpage-style", config.DefaultWebpageStyle, "webpage layout (centered|floating|windowed)")
	cmd.Flags().Bool("no-header", false, "omit the banner")
	cmd.Flags().Bool("no-version-numbers", false, "omit version numbers from the banner")
	cmd.Flags().String("cache-directory", "", "cache annotated output under this directory")
	cmd.Flags().String("cache-compression", config.DefaultCacheCompression, "cache file compression (none|gzip|zstd)")

	return cmd
}

// renderSettings is the per-run configuration resolved from config
// layers and flags.
type renderSettings struct {
	cfg         *config.Config
	backend     Backend
	dialect     htmlgen.Dialect
	compression cache.Compression
}

func resolveRenderSettings(opts *RenderOptions, cmd *cobra.Command) (*renderSettings, error) {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}
	backend, err := ParseBackend(opts.Backend)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --backend", err)
	}
	dialect, err := htmlgen.ParseDialect(cfg.HTMLDialect)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid HTML dialect", err)
	}
	compression, err := cache.ParseCompression(cfg.CacheCompression)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid cache compression", err)
	}
	return &renderSettings{cfg: cfg, backend: backend, dialect: dialect, compression: compression}, nil
}

func runRender(opts *RenderOptions, inputs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// A single output file cannot hold several documents; "-" is fine,
	// pages stream to stdout one after the other.
	if opts.Output != "" && opts.Output != "-" && len(inputs) > 1 {
		err := NewExitError(ExitCommandError, "--output cannot be combined with multiple inputs")
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return err
	}

	settings, err := resolveRenderSettings(opts, cmd)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return err
	}
	if settings.cfg.ConfigFile != "" {
		formatter.VerboseLog("Using configuration from %s", settings.cfg.ConfigFile)
	}

	var index *cache.Index
	if settings.cfg.CacheDirectory != "" {
		if err := os.MkdirAll(settings.cfg.CacheDirectory, 0o755); err != nil {
			formatter.Error(ErrCodeCache, "creating cache directory", err.Error())
			return WrapExitError(ExitCommandError, "creating cache directory", err)
		}
		index, err = cache.OpenIndex(filepath.Join(settings.cfg.CacheDirectory, "index.db"))
		if err != nil {
			// The index is bookkeeping; rendering works without it.
			formatter.VerboseLog("cache index unavailable: %v", err)
		} else {
			defer index.Close()
		}
	}

	for _, input := range inputs {
		result, err := renderOne(cmd.Context(), settings, opts, formatter, index, cmd, input)
		if err != nil {
			return err
		}
		if result != nil {
			if err := formatter.Success(*result); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderOne processes a single input. A nil result with nil error means
// the rendered document went to stdout and needs no status line.
func renderOne(ctx context.Context, settings *renderSettings, opts *RenderOptions, formatter *OutputFormatter, index *cache.Index, cmd *cobra.Command, input string) (*RenderResult, error) {
	contents, err := readInput(cmd, input)
	if err != nil {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("reading %s", input), err.Error())
		return nil, WrapExitError(ExitCommandError, "reading input", err)
	}
	frontend, err := InferFrontend(input, opts.StdinFilename)
	if err != nil {
		formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "classifying input", err)
	}
	name := displayName(input, opts.StdinFilename)

	var movie document.Movie
	var generator document.GeneratorInfo
	cached := false

	switch frontend {
	case FrontendMovie:
		violations, err := schema.Validate(name, contents)
		if err != nil {
			formatter.Error(ErrCodeGeneric, "validating movie", err.Error())
			return nil, WrapExitError(ExitFailure, "validating movie", err)
		}
		if len(violations) > 0 {
			details := make([]string, 0, len(violations))
			for _, v := range violations {
				details = append(details, v.Error())
			}
			formatter.Error(ErrCodeInvalid, fmt.Sprintf("%s is not a valid movie", name), details)
			return nil, NewExitError(ExitFailure, "invalid movie file")
		}
		movie, err = serde.DecodeMovie(contents)
		if err != nil {
			formatter.Error(ErrCodeBadInput, fmt.Sprintf("decoding %s", name), err.Error())
			return nil, WrapExitError(ExitFailure, "decoding movie", err)
		}
		// Banner version info is best-effort for pre-annotated input.
		if info, err := prover.VersionInfo(ctx, settings.cfg.ProverBin); err == nil {
			generator = info
		}

	case FrontendCode:
		generator, err = prover.VersionInfo(ctx, settings.cfg.ProverBin)
		if err != nil {
			formatter.Error(ErrCodeProver, "probing prover version", err.Error())
			return nil, WrapExitError(ExitFailure, "probing prover version", err)
		}

		chunks := []string{string(contents)}
		store, err := documentCache(settings, name)
		if err != nil {
			formatter.Error(ErrCodeCache, "opening cache", err.Error())
			return nil, WrapExitError(ExitCommandError, "opening cache", err)
		}

		annotated := false
		movie, err = store.Update(ctx, chunks, func(ctx context.Context, chunks []string) (document.Movie, error) {
			annotated = true
			formatter.VerboseLog("Annotating %s", name)
			return prover.Annotate(ctx, settings.cfg.ProverBin, chunks, settings.cfg.ProverArgs...)
		}, generator)
		if err != nil {
			formatter.Error(ErrCodeProver, fmt.Sprintf("annotating %s", name), err.Error())
			return nil, WrapExitError(ExitFailure, "annotating input", err)
		}
		cached = !annotated

		if fc, ok := store.(*cache.FileCache); ok && index != nil {
			recordCacheEntry(ctx, formatter, index, fc, chunks, generator, settings.compression)
		}
	}

	rendered, err := render(movie, generator, name, settings)
	if err != nil {
		formatter.Error(ErrCodeRender, fmt.Sprintf("rendering %s", name), err.Error())
		return nil, WrapExitError(ExitFailure, "rendering", err)
	}

	outPath := OutputPath(input, opts.StdinFilename, opts.Output, opts.OutputDirectory, settings.backend)
	if outPath == "-" {
		if _, err := io.WriteString(cmd.OutOrStdout(), rendered); err != nil {
			return nil, WrapExitError(ExitCommandError, "writing output", err)
		}
		return nil, nil
	}
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s", outPath), err.Error())
		return nil, WrapExitError(ExitCommandError, "writing output", err)
	}
	return &RenderResult{Input: name, Output: outPath, Backend: string(settings.backend), Cached: cached}, nil
}

func readInput(cmd *cobra.Command, input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(input)
}

// documentCache builds the cache for one document: a file cache when a
// cache directory is configured, a no-op otherwise.
func documentCache(settings *renderSettings, name string) (cache.Cache, error) {
	if settings.cfg.CacheDirectory == "" {
		return cache.Nop{}, nil
	}
	metadata := map[string]any{
		"prover_args": settings.cfg.ProverArgs,
	}
	return cache.NewFileCache(settings.cfg.CacheDirectory, name, metadata, settings.compression)
}

func recordCacheEntry(ctx context.Context, formatter *OutputFormatter, index *cache.Index, fc *cache.FileCache, chunks []string, generator document.GeneratorInfo, compression cache.Compression) {
	hash, err := document.ChunksHash(chunks)
	if err != nil {
		formatter.VerboseLog("cache index: hashing chunks: %v", err)
		return
	}
	var size int64
	if st, err := os.Stat(fc.Path()); err == nil {
		size = st.Size()
	}
	if err := index.Record(ctx, fc.DocPath(), hash, generator.Fmt(true), size, compression); err != nil {
		formatter.VerboseLog("cache index: %v", err)
	}
}

// render produces the requested backend output for a movie.
func render(movie document.Movie, generator document.GeneratorInfo, name string, settings *renderSettings) (string, error) {
	if settings.backend == BackendJSON {
		enc, err := serde.EncodeMovie(movie)
		if err != nil {
			return "", err
		}
		data, err := serde.MarshalJSON(enc, "    ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	g := htmlgen.NewGenerator(nil, gensymStem(name), settings.cfg.HTMLMinification)
	snippets, err := g.Gen(movie)
	if err != nil {
		return "", err
	}
	for _, snippet := range snippets {
		htmlgen.MarkLongLines(snippet, settings.cfg.LongLineThreshold)
	}

	if settings.backend == BackendSnippets {
		return htmlgen.SnippetsPage(snippets)
	}

	var banner *document.GeneratorInfo
	if !settings.cfg.NoHeader && generator.Name != "" {
		banner = &generator
	}
	return htmlgen.StandalonePage(snippets, htmlgen.PageOptions{
		Title:    filepath.Base(name),
		Dialect:  settings.dialect,
		Style:    settings.cfg.WebpageStyle,
		Banner:   htmlgen.Banner(banner, !settings.cfg.NoVersionNumbers),
		Minified: g.Minified(),
	})
}
