// Package cli implements the harness command line: running a
// suite in the terminal, serving it to a browser, and decoding
// scanned payloads.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	QR      bool
	Name    string
	Config  string
	EnvFile string

	// qrSet records whether --qr was given, so the config file
	// and environment still decide otherwise.
	qrSet bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "harness",
		Short: "Run assertion suites and encode the result",
		Long: `harness runs a suite of assertions in order, shows a PASS/FAIL
summary, and encodes the run as a JSON payload drawn as a QR code or a
colored status box, so a second device can pick up the result.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.qrSet = cmd.Flags().Changed("qr")
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.QR, "qr", false, "present the result as a QR code")
	cmd.PersistentFlags().StringVar(&opts.Name, "name", "", "test name (overrides suite and config)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to a YAML or JSON config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "optional .env file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))

	return cmd
}
