// Package env reads harness settings from the process environment
// and optional .env files. Process variables always win over file
// values.
package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Prefix is prepended to every key looked up through a Loader
// created with NewLoader.
const Prefix = "HARNESS_"

// Loader defines the interface for environment variable access.
type Loader interface {
	// Load reads variables from a .env file.
	Load(path string) error
	// Get retrieves a variable value, or "".
	Get(key string) string
	// Lookup retrieves a variable and reports whether it is set.
	Lookup(key string) (string, bool)
	// GetWithDefault retrieves a variable with a fallback.
	GetWithDefault(key, defaultValue string) string
	// All returns a copy of the file-loaded variables.
	All() map[string]string
}

// DefaultLoader implements Loader with .env file support.
type DefaultLoader struct {
	mu     sync.RWMutex
	vars   map[string]string
	prefix string
	lookup func(string) (string, bool)
}

// NewLoader creates a loader that namespaces keys with Prefix.
func NewLoader() *DefaultLoader {
	return NewLoaderWithPrefix(Prefix)
}

// NewLoaderWithPrefix creates a loader with a custom key prefix.
func NewLoaderWithPrefix(prefix string) *DefaultLoader {
	return &DefaultLoader{
		vars:   make(map[string]string),
		prefix: prefix,
		lookup: os.LookupEnv,
	}
}

// Load parses KEY=VALUE lines, skipping blanks and # comments.
// Surrounding quotes are removed from values. Keys are stored as
// written; a leading prefix is not required in the file.
func (l *DefaultLoader) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer file.Close()

	l.mu.Lock()
	defer l.mu.Unlock()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimPrefix(strings.TrimSpace(key), "export ")
		l.vars[strings.TrimSpace(key)] = strings.Trim(
			strings.TrimSpace(value), `"'`,
		)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	return nil
}

// Lookup resolves key as prefix+key, first in the process
// environment and then in loaded files.
func (l *DefaultLoader) Lookup(key string) (string, bool) {
	full := l.prefix + key
	if v, ok := l.lookup(full); ok {
		return v, true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if v, ok := l.vars[full]; ok {
		return v, true
	}
	v, ok := l.vars[key]
	return v, ok
}

// Get returns the value for key, or "".
func (l *DefaultLoader) Get(key string) string {
	v, _ := l.Lookup(key)
	return v
}

// GetWithDefault returns the value for key, or defaultValue when
// unset or empty.
func (l *DefaultLoader) GetWithDefault(key, defaultValue string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// All returns a copy of the file-loaded variables.
func (l *DefaultLoader) All() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		result[k] = v
	}
	return result
}
