// Package assertion holds the ordered registry of named checks a
// harness run evaluates. Each Case pairs an expected JSON value
// with a deferred computation; the runner resolves or rejects it
// exactly once per run.
package assertion
