package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattam82/alectryon/internal/unminify"
)

// UnminifyOptions holds flags for the unminify command.
type UnminifyOptions struct {
	*RootOptions
	Output string
}

// UnminifyResult is the success payload for one expanded page.
type UnminifyResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

func (r UnminifyResult) String() string {
	return fmt.Sprintf("%s -> %s", r.Input, r.Output)
}

// NewUnminifyCommand creates the unminify command.
func NewUnminifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UnminifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unminify <input>...",
		Short: "Expand backreferences in minified HTML pages",
		Long: `Expand backreferences in pages rendered with HTML minification.

Repeated goal elements are restored from their first occurrence and the
embedded resolution script is removed. "-" reads from stdin and writes
to stdout.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnminify(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (\"-\" for stdout)")

	return cmd
}

func runUnminify(opts *UnminifyOptions, inputs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Output != "" && opts.Output != "-" && len(inputs) > 1 {
		err := NewExitError(ExitCommandError, "--output cannot be combined with multiple inputs")
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return err
	}

	for _, input := range inputs {
		contents, err := readInput(cmd, input)
		if err != nil {
			formatter.Error(ErrCodeNotFound, fmt.Sprintf("reading %s", input), err.Error())
			return WrapExitError(ExitCommandError, "reading input", err)
		}

		var buf bytes.Buffer
		if err := unminify.Resolve(bytes.NewReader(contents), &buf); err != nil {
			formatter.Error(ErrCodeBadInput, fmt.Sprintf("unminifying %s", input), err.Error())
			return WrapExitError(ExitFailure, "unminifying input", err)
		}

		outPath := unminifyOutputPath(input, opts.Output)
		if outPath == "-" {
			if _, err := io.Copy(cmd.OutOrStdout(), &buf); err != nil {
				return WrapExitError(ExitCommandError, "writing output", err)
			}
			continue
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s", outPath), err.Error())
			return WrapExitError(ExitCommandError, "writing output", err)
		}
		if err := formatter.Success(UnminifyResult{Input: input, Output: outPath}); err != nil {
			return err
		}
	}
	return nil
}

// unminifyOutputPath expands in place by default: foo.min.html becomes
// foo.html, anything else gains a .full.html suffix.
func unminifyOutputPath(input, output string) string {
	if output != "" {
		return output
	}
	if input == "-" {
		return "-"
	}
	if stripped, ok := strings.CutSuffix(input, ".min.html"); ok {
		return stripped + ".html"
	}
	return strings.TrimSuffix(input, ".html") + ".full.html"
}
