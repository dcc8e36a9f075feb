package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattam82/alectryon/internal/cache"
	"github.com/mattam82/alectryon/internal/config"
)

// CacheOptions holds flags shared by the cache subcommands.
type CacheOptions struct {
	*RootOptions
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the annotation cache",
	}

	cmd.PersistentFlags().String("cache-directory", "", "cache directory to operate on")

	cmd.AddCommand(newCacheStatsCommand(opts))
	cmd.AddCommand(newCacheGCCommand(opts))
	return cmd
}

// CacheStatsResult is the success payload for cache stats.
type CacheStatsResult struct {
	Directory string      `json:"directory"`
	Stats     cache.Stats `json:"stats"`
}

func (r CacheStatsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d document(s), %d bytes", r.Directory, r.Stats.Documents, r.Stats.TotalBytes)
	for comp, n := range r.Stats.ByCompression {
		fmt.Fprintf(&b, "\n  %s: %d", comp, n)
	}
	return b.String()
}

func newCacheStatsCommand(opts *CacheOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show cache entry counts and sizes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats(opts, cmd)
		},
	}
}

func runCacheStats(opts *CacheOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dir, index, err := openCacheIndex(opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer index.Close()

	stats, err := index.Stats(cmd.Context())
	if err != nil {
		formatter.Error(ErrCodeCache, "reading cache index", err.Error())
		return WrapExitError(ExitFailure, "reading cache index", err)
	}
	return formatter.Success(CacheStatsResult{Directory: dir, Stats: stats})
}

// CacheGCResult is the success payload for cache gc.
type CacheGCResult struct {
	Directory string   `json:"directory"`
	Dropped   []string `json:"dropped"`
	Kept      int      `json:"kept"`
}

func (r CacheGCResult) String() string {
	if len(r.Dropped) == 0 {
		return fmt.Sprintf("%s: nothing to drop (%d kept)", r.Directory, r.Kept)
	}
	return fmt.Sprintf("%s: dropped %d entry(ies), %d kept", r.Directory, len(r.Dropped), r.Kept)
}

func newCacheGCCommand(opts *CacheOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:           "gc",
		Short:         "Drop the oldest cache entries",
		Long:          `Drop cache entries beyond the newest --keep, oldest first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheGC(opts, keep, cmd)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "number of newest entries to keep")

	return cmd
}

func runCacheGC(opts *CacheOptions, keep int, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dir, index, err := openCacheIndex(opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer index.Close()

	dropped, err := index.GC(cmd.Context(), keep)
	if err != nil {
		formatter.Error(ErrCodeCache, "pruning cache index", err.Error())
		return WrapExitError(ExitFailure, "pruning cache index", err)
	}

	names := make([]string, 0, len(dropped))
	for _, entry := range dropped {
		names = append(names, entry.DocPath)
		if err := removeCacheFile(dir, entry); err != nil {
			formatter.VerboseLog("removing %s cache file: %v", entry.DocPath, err)
		}
	}

	stats, err := index.Stats(cmd.Context())
	if err != nil {
		formatter.Error(ErrCodeCache, "reading cache index", err.Error())
		return WrapExitError(ExitFailure, "reading cache index", err)
	}
	return formatter.Success(CacheGCResult{Directory: dir, Dropped: names, Kept: int(stats.Documents)})
}

// openCacheIndex resolves the cache directory from config and flags and
// opens its index.
func openCacheIndex(opts *CacheOptions, cmd *cobra.Command, formatter *OutputFormatter) (string, *cache.Index, error) {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		formatter.Error(ErrCodeGeneric, "loading configuration", err.Error())
		return "", nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if cfg.CacheDirectory == "" {
		err := NewExitError(ExitCommandError, "no cache directory configured")
		formatter.Error(ErrCodeCache, err.Error(), nil)
		return "", nil, err
	}
	index, err := cache.OpenIndex(filepath.Join(cfg.CacheDirectory, "index.db"))
	if err != nil {
		formatter.Error(ErrCodeCache, "opening cache index", err.Error())
		return "", nil, WrapExitError(ExitFailure, "opening cache index", err)
	}
	return cfg.CacheDirectory, index, nil
}

// removeCacheFile deletes the cache payload for a dropped index entry.
func removeCacheFile(dir string, entry cache.IndexEntry) error {
	comp, err := cache.ParseCompression(entry.Compression)
	if err != nil {
		comp = cache.CompressionNone
	}
	path := filepath.Join(dir, entry.DocPath+".cache"+comp.Ext())
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
