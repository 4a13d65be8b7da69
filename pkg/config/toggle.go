// Package config resolves harness settings: construction-time
// options, YAML/JSON config files, environment overrides, and the
// explicit > signal > default precedence used for toggles.
package config

import (
	"net/url"
	"strings"

	"digital.vasic.harness/pkg/env"
)

// Source names where a resolved toggle value came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceSignal   Source = "signal"
	SourceDefault  Source = "default"
)

// Signal is an external, optional opinion on a toggle, such as a
// query parameter in the page address.
type Signal interface {
	// Name identifies the signal in logs.
	Name() string
	// Toggle returns the value and whether the signal is set.
	Toggle() (value, ok bool)
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Value  bool
	Source Source
	// Signal is the name of the deciding signal, if any.
	Signal string
}

// Resolve applies the precedence explicit > first set signal >
// def. Nil signals are skipped.
func Resolve(explicit *bool, def bool, signals ...Signal) Resolution {
	if explicit != nil {
		return Resolution{Value: *explicit, Source: SourceExplicit}
	}
	for _, s := range signals {
		if s == nil {
			continue
		}
		if v, ok := s.Toggle(); ok {
			return Resolution{Value: v, Source: SourceSignal, Signal: s.Name()}
		}
	}
	return Resolution{Value: def, Source: SourceDefault}
}

// ParseToggle accepts "1"/"0" and "true"/"false". Anything else
// is reported as unset.
func ParseToggle(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	default:
		return false, false
	}
}

// Bool returns a pointer to v, for explicit toggle values.
func Bool(v bool) *bool { return &v }

type querySignal struct {
	rawURL string
	key    string
}

// QuerySignal reads key from the query string of a page address,
// e.g. "?qr=1".
func QuerySignal(rawURL, key string) Signal {
	return querySignal{rawURL: rawURL, key: key}
}

func (q querySignal) Name() string { return "query:" + q.key }

func (q querySignal) Toggle() (bool, bool) {
	if q.rawURL == "" {
		return false, false
	}
	u, err := url.Parse(q.rawURL)
	if err != nil {
		return false, false
	}
	values, ok := u.Query()[q.key]
	if !ok || len(values) == 0 {
		return false, false
	}
	return ParseToggle(values[0])
}

type envSignal struct {
	loader env.Loader
	key    string
}

// EnvSignal reads key through an env loader.
func EnvSignal(loader env.Loader, key string) Signal {
	return envSignal{loader: loader, key: key}
}

func (e envSignal) Name() string { return "env:" + e.key }

func (e envSignal) Toggle() (bool, bool) {
	if e.loader == nil {
		return false, false
	}
	v, ok := e.loader.Lookup(e.key)
	if !ok {
		return false, false
	}
	return ParseToggle(v)
}

// StaticSignal is a fixed signal, mostly useful in tests.
type StaticSignal struct {
	Label string
	Value bool
	Set   bool
}

// Name returns the label.
func (s StaticSignal) Name() string { return s.Label }

// Toggle returns the fixed value.
func (s StaticSignal) Toggle() (bool, bool) { return s.Value, s.Set }
