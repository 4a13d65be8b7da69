package cli

import (
	"errors"
	"io/fs"

	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/env"
	"digital.vasic.harness/pkg/harness"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/suite"
)

// setup is a loaded suite with the harness built around it.
type setup struct {
	harness *harness.Harness
	suite   *suite.Suite
	config  *config.File
}

// load reads the config, env file and suite, and registers the
// suite's cases with a new harness. defaults are applied before
// the config file, overrides after every flag. Name precedence is
// --name, then HARNESS_TEST_NAME, then the config file, then the
// suite name.
func load(
	opts *RootOptions,
	suitePath string,
	defaults []harness.Option,
	overrides ...harness.Option,
) (*setup, error) {
	loader := env.NewLoader()
	if opts.EnvFile != "" {
		if err := loader.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, WrapExitError(ExitCommandError, "failed to load env file", err)
		}
	}

	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	cfg.ApplyEnv(loader)

	s, err := suite.Load(suitePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load suite", err)
	}

	hopts := append([]harness.Option{}, defaults...)
	hopts = append(hopts, harness.FromConfig(cfg, loader))
	if opts.Verbose {
		hopts = append(hopts, harness.WithVerbose(true))
	}
	if cfg.TestName == "" && s.Name != "" {
		hopts = append(hopts, harness.WithTestName(s.Name))
	}
	if opts.Name != "" {
		hopts = append(hopts, harness.WithTestName(opts.Name))
	}
	if opts.qrSet {
		hopts = append(hopts, harness.WithUsingQRCode(opts.QR))
	}
	if cfg.LogFile != "" {
		fileLog, err := logging.NewJSONLogger(logging.LoggerConfig{
			OutputPath: cfg.LogFile,
			Level:      logging.ParseLevel(cfg.LogLevel),
			Verbose:    opts.Verbose,
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		hopts = append(hopts, harness.WithLogger(fileLog))
	}
	hopts = append(hopts, overrides...)

	h := harness.New(hopts...)
	suite.Apply(h.Registry(), s)
	return &setup{harness: h, suite: s, config: cfg}, nil
}
