// Package suite loads case definitions from YAML or JSON files
// and registers them with a harness registry.
package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/script"
)

// CaseSpec defines one case. Exactly one of Script, Command and
// Request must be set.
type CaseSpec struct {
	Name     string            `yaml:"name"`
	Expected any               `yaml:"expected"`
	Script   string            `yaml:"script"`
	Command  []string          `yaml:"command"`
	Request  *RequestSpec      `yaml:"request"`
	Dir      string            `yaml:"dir"`
	Env      map[string]string `yaml:"env"`
}

// RequestSpec is an HTTP call whose reply is the actual value.
type RequestSpec struct {
	Method string            `yaml:"method"`
	URL    string            `yaml:"url"`
	Body   string            `yaml:"body"`
	Header map[string]string `yaml:"header"`
	Token  string            `yaml:"token"`
}

// Suite is a named list of cases.
type Suite struct {
	Name  string     `yaml:"name"`
	Cases []CaseSpec `yaml:"cases"`

	// dir resolves relative command directories.
	dir string
}

// Load reads and validates a suite file. JSON is accepted since
// it parses as YAML.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes and validates suite data.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every case has exactly one computation.
func (s *Suite) Validate() error {
	var errs []error
	for i, c := range s.Cases {
		label := c.Name
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		kinds := 0
		for _, set := range []bool{
			strings.TrimSpace(c.Script) != "",
			len(c.Command) > 0,
			c.Request != nil,
		} {
			if set {
				kinds++
			}
		}
		switch {
		case kinds > 1:
			errs = append(errs, fmt.Errorf("case %s: more than one of script, command and request set", label))
		case kinds == 0:
			errs = append(errs, fmt.Errorf("case %s: no script, command or request", label))
		case c.Request != nil && c.Request.URL == "":
			errs = append(errs, fmt.Errorf("case %s: request without url", label))
		}
	}
	return errors.Join(errs...)
}

// Compute builds the computation for c.
func (s *Suite) Compute(c CaseSpec) assertion.Compute {
	if c.Request != nil {
		return script.Request{
			Method: c.Request.Method,
			URL:    os.Expand(c.Request.URL, c.lookup),
			Body:   c.Request.Body,
			Header: c.Request.Header,
			Token:  os.Expand(c.Request.Token, c.lookup),
		}.Compute()
	}
	if len(c.Command) > 0 {
		dir := c.Dir
		if dir != "" && !filepath.IsAbs(dir) && s.dir != "" {
			dir = filepath.Join(s.dir, dir)
		}
		return script.Command{
			Name: c.Command[0],
			Args: c.Command[1:],
			Dir:  dir,
			Env:  c.Env,
		}.Compute()
	}

	opts := make([]script.JSOption, 0, len(c.Env))
	if len(c.Env) > 0 {
		env := make(map[string]any, len(c.Env))
		for k, v := range c.Env {
			env[k] = v
		}
		opts = append(opts, script.WithGlobal("env", env))
	}
	return script.JavaScript(c.Script, opts...)
}

// lookup resolves ${NAME} in request fields from the case env,
// then the process environment.
func (c CaseSpec) lookup(name string) string {
	if v, ok := c.Env[name]; ok {
		return v
	}
	return os.Getenv(name)
}

// Apply registers every case of s with reg in file order and
// returns the registered cases.
func Apply(reg *assertion.Registry, s *Suite) []*assertion.Case {
	cases := make([]*assertion.Case, 0, len(s.Cases))
	for _, c := range s.Cases {
		cases = append(cases, reg.Register(c.Name, c.Expected, s.Compute(c)))
	}
	return cases
}
