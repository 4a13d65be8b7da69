package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/harness"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/monitor"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	RunOnStart bool
	Terminal   bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <suite>",
		Short: "Host a suite in the browser",
		Long: `Serve a live page for a suite. The page shows meta, cases, the log
and the result overlay; it starts a run with its Run button or POST /run,
and redraws the result when the window is resized.

Example:
  harness serve ./smoke.yaml
  harness serve --addr :8080 --qr --run ./smoke.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, 127.0.0.1:8787)")
	cmd.Flags().BoolVar(&opts.RunOnStart, "run", false, "start a run as soon as the server is up")
	cmd.Flags().BoolVar(&opts.Terminal, "terminal", false, "also draw results in this terminal")

	return cmd
}

func serveSuite(opts *ServeOptions, suitePath string, cmd *cobra.Command) error {
	console := logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), opts.Verbose)
	hub := monitor.NewHub(monitor.NewDashboard(""), console)
	surface := hub.Surface()
	if opts.Terminal {
		out := cmd.OutOrStdout()
		t := display.NewTerminal(out, display.WithColor(isTerminal(out)))
		surface = display.Merge(surface, t.Surface())
	}

	m := metrics.NewMemoryMetrics()
	st, err := load(opts.RootOptions, suitePath,
		[]harness.Option{
			harness.WithSurface(surface),
			harness.WithMetrics(m),
			harness.WithLogger(console),
			harness.WithClipboard(clipboardStrategies(cmd.ErrOrStderr())...),
		},
		harness.WithPNG(true),
	)
	if err != nil {
		return err
	}
	h := st.harness
	defer h.Close()

	addr := opts.Addr
	if addr == "" {
		addr = st.config.Addr
	}
	srv := monitor.NewServer(addr, hub, h,
		monitor.WithServerLogger(console),
		monitor.WithMetrics(m),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s/\n", h.Session().TestName(), addr)
	if opts.RunOnStart {
		go func() {
			if _, err := h.Trigger(ctx); err != nil {
				console.Warn("initial run failed", logging.ErrorField(err))
			}
		}()
	}

	if err := srv.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
