package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattam82/alectryon/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult is the success payload for one checked file.
type ValidateResult struct {
	Input string `json:"input"`
	Valid bool   `json:"valid"`
}

func (r ValidateResult) String() string {
	return fmt.Sprintf("%s: valid", r.Input)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <input>...",
		Short: "Check movie JSON files against the schema",
		Long: `Check annotated movie files against the movie schema.

Each violation is reported with its JSON path. The command fails if any
input is invalid.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, inputs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	invalid := 0
	for _, input := range inputs {
		contents, err := readInput(cmd, input)
		if err != nil {
			formatter.Error(ErrCodeNotFound, fmt.Sprintf("reading %s", input), err.Error())
			return WrapExitError(ExitCommandError, "reading input", err)
		}
		name := displayName(input, "")

		violations, err := schema.Validate(name, contents)
		if err != nil {
			formatter.Error(ErrCodeGeneric, fmt.Sprintf("validating %s", name), err.Error())
			return WrapExitError(ExitFailure, "validating input", err)
		}
		if len(violations) > 0 {
			details := make([]string, 0, len(violations))
			for _, v := range violations {
				details = append(details, v.Error())
			}
			formatter.Error(ErrCodeInvalid, fmt.Sprintf("%s is not a valid movie", name), details)
			invalid++
			continue
		}
		if err := formatter.Success(ValidateResult{Input: name, Valid: true}); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid file(s)", invalid))
	}
	return nil
}
