package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/report"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Check bool
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Summarize a scanned or copied payload",
		Long: `Read payload text from a file, or from stdin when no file is given,
and print a summary of the run it describes.

Example:
  pbpaste | harness decode
  harness decode --check --format json payload.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return decodePayload(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "exit with code 1 when the payload reports FAIL")

	return cmd
}

func decodePayload(opts *DecodeOptions, args []string, cmd *cobra.Command) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read payload", err)
	}

	p, err := payload.Decode(string(data))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid payload", err)
	}

	run := report.NewRun(p, nil)
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		err = report.NewJSONReporter(true).WriteReport(out, run)
	} else {
		_, err = fmt.Fprint(out, report.Markdown(run))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write summary", err)
	}

	if opts.Check && !p.Pass {
		return NewExitError(ExitFailure, "payload reports FAIL")
	}
	return nil
}
