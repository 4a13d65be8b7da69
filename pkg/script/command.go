package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"digital.vasic.harness/pkg/assertion"
)

// Command describes an external process whose output is a case's
// actual value.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Compute returns a computation that runs the command. Standard
// output is decoded as JSON when possible and used as trimmed
// text otherwise. A non-zero exit is an error carrying stderr.
func (c Command) Compute() assertion.Compute {
	return func(ctx context.Context) (any, error) {
		if c.Name == "" {
			return nil, errors.New("empty command")
		}
		cmd := exec.CommandContext(ctx, c.Name, c.Args...)
		cmd.WaitDelay = 2 * time.Second
		cmd.Dir = c.Dir
		if len(c.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range c.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				msg := strings.TrimSpace(stderr.String())
				if msg == "" {
					return nil, fmt.Errorf("%s exited with code %d", c.Name, exitErr.ExitCode())
				}
				return nil, fmt.Errorf(
					"%s exited with code %d: %s", c.Name, exitErr.ExitCode(), msg,
				)
			}
			return nil, fmt.Errorf("run %s: %w", c.Name, err)
		}
		return ParseOutput(stdout.Bytes()), nil
	}
}

// ParseOutput decodes out as JSON, falling back to its trimmed
// text.
func ParseOutput(out []byte) any {
	trimmed := bytes.TrimSpace(out)
	var v any
	if len(trimmed) > 0 && json.Unmarshal(trimmed, &v) == nil {
		return v
	}
	return string(trimmed)
}
