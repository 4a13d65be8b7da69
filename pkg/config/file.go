package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"digital.vasic.harness/pkg/env"
)

// Defaults mirrored by the presenter and payload packages.
const (
	DefaultTestName  = "Unnamed Test"
	DefaultLogWindow = 80
	DefaultMargin    = 120
	DefaultMinSide   = 320
	DefaultMaxSide   = 1600
	DefaultAddr      = "127.0.0.1:8787"
	DefaultQueryKey  = "qr"
)

// Viewport is a width/height pair in pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Sizing bounds the responsive result side length.
type Sizing struct {
	Margin  int `yaml:"margin"`
	MinSide int `yaml:"min_side"`
	MaxSide int `yaml:"max_side"`
}

// File is the on-disk harness configuration. JSON files parse
// through the same YAML decoder.
type File struct {
	TestName    string   `yaml:"test_name"`
	RunID       string   `yaml:"run_id"`
	StartedAt   string   `yaml:"started_at"`
	UsingQRCode *bool    `yaml:"using_qr_code"`
	PageURL     string   `yaml:"page_url"`
	QueryKey    string   `yaml:"query_key"`
	Viewport    Viewport `yaml:"viewport"`
	Sizing      Sizing   `yaml:"sizing"`
	LogWindow   int      `yaml:"log_window"`
	Addr        string   `yaml:"addr"`
	Copy        *bool    `yaml:"copy"`
	Redact      []string `yaml:"redact"`
	Verbose     bool     `yaml:"verbose"`
	LogFile     string   `yaml:"log_file"`
	LogLevel    string   `yaml:"log_level"`
}

// Default returns a File holding every default.
func Default() *File {
	return &File{
		QueryKey:  DefaultQueryKey,
		Sizing:    Sizing{Margin: DefaultMargin, MinSide: DefaultMinSide, MaxSide: DefaultMaxSide},
		LogWindow: DefaultLogWindow,
		Addr:      DefaultAddr,
	}
}

// Load reads and parses a config file. Missing fields keep their
// defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML or JSON config bytes over the defaults.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks field ranges and the start timestamp format.
func (f *File) Validate() error {
	if f.LogWindow < 0 {
		return fmt.Errorf("log_window must not be negative")
	}
	if f.Sizing.MinSide > f.Sizing.MaxSide {
		return fmt.Errorf(
			"sizing: min_side %d exceeds max_side %d",
			f.Sizing.MinSide, f.Sizing.MaxSide,
		)
	}
	if _, err := f.StartTime(); err != nil {
		return err
	}
	return nil
}

// StartTime parses StartedAt. A blank value yields the zero time.
func (f *File) StartTime() (time.Time, error) {
	if f.StartedAt == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, f.StartedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("started_at: %w", err)
	}
	return t, nil
}

// ApplyEnv overlays HARNESS_* variables onto string fields that
// the environment sets.
func (f *File) ApplyEnv(l env.Loader) {
	if l == nil {
		return
	}
	overlay := map[string]*string{
		"TEST_NAME": &f.TestName,
		"RUN_ID":    &f.RunID,
		"PAGE_URL":  &f.PageURL,
		"ADDR":      &f.Addr,
		"LOG_FILE":  &f.LogFile,
	}
	for key, dst := range overlay {
		if v := l.Get(key); v != "" {
			*dst = v
		}
	}
	if v, ok := ParseToggle(l.Get("VERBOSE")); ok {
		f.Verbose = v
	}
}

// Signals returns the external signals for the QR toggle in
// precedence order: page address query, then environment.
func (f *File) Signals(l env.Loader) []Signal {
	key := f.QueryKey
	if key == "" {
		key = DefaultQueryKey
	}
	return []Signal{
		QuerySignal(f.PageURL, key),
		EnvSignal(l, "QR"),
	}
}
