package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"digital.vasic.harness/pkg/clipboard"
	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/harness"
	"digital.vasic.harness/pkg/present"
	"digital.vasic.harness/pkg/report"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Out    string
	NoCopy bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suite>",
		Short: "Run a suite once in the terminal",
		Long: `Run every case of a suite in order and present the result in the
terminal. The exit code is 1 when any case fails.

Example:
  harness run ./smoke.yaml
  harness run --qr --out ./reports ./smoke.yaml
  harness run --format json ./smoke.yaml > payload.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write JSON, Markdown and HTML reports to this directory")
	cmd.Flags().BoolVar(&opts.NoCopy, "no-copy", false, "do not copy the payload to the clipboard")

	return cmd
}

func runSuite(opts *RunOptions, suitePath string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	defaults := []harness.Option{
		harness.WithClipboard(clipboardStrategies(errOut)...),
	}
	if opts.Format == "text" {
		t := display.NewTerminal(out,
			display.WithColor(isTerminal(out)),
			display.WithLogEcho(opts.Verbose),
		)
		defaults = append(defaults, harness.WithSurface(t.Surface()))
	}
	if v, ok := present.TerminalViewport(); ok {
		defaults = append(defaults, harness.WithViewport(v))
	}
	var overrides []harness.Option
	if opts.NoCopy {
		overrides = append(overrides, harness.WithCopy(false))
	}

	st, err := load(opts.RootOptions, suitePath, defaults, overrides...)
	if err != nil {
		return err
	}
	h := st.harness
	defer h.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := h.Run(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if opts.Format == "json" {
		if err := report.NewJSONReporter(false).WriteReport(out, h.Report()); err != nil {
			return WrapExitError(ExitCommandError, "failed to write payload", err)
		}
		fmt.Fprintln(out)
	} else {
		fmt.Fprintf(out, "%s: %d/%d passed\n", o.Label(), o.Pass, o.Total)
	}

	if opts.Out != "" {
		paths, err := report.SaveRun(h.Report(), opts.Out)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to save reports", err)
		}
		for _, p := range paths {
			fmt.Fprintln(errOut, "wrote", p)
		}
	}

	if !o.AllPass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d cases failed", o.Fail, o.Total))
	}
	return nil
}

// clipboardStrategies keeps OSC 52 output off stdout so JSON
// output stays parseable.
func clipboardStrategies(w io.Writer) []clipboard.Strategy {
	f, ok := w.(*os.File)
	if !ok {
		return []clipboard.Strategy{clipboard.SystemStrategy{}}
	}
	return []clipboard.Strategy{
		clipboard.SystemStrategy{},
		clipboard.NewOSC52StrategyTo(f, int(f.Fd())),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
