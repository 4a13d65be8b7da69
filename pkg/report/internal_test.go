package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONReporter_MarshalError(t *testing.T) {
	original := jsonMarshalIndent
	t.Cleanup(func() { jsonMarshalIndent = original })

	jsonMarshalIndent = func(v any, prefix, indent string) ([]byte, error) {
		return nil, assert.AnError
	}

	_, err := NewJSONReporter(true).GenerateReport(makeTestRun())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "marshal payload")
}

func TestFailures_UnserializableActual(t *testing.T) {
	original := jsonMarshal
	t.Cleanup(func() { jsonMarshal = original })

	jsonMarshal = func(v any) ([]byte, error) {
		return nil, assert.AnError
	}

	got := failures(makeTestRun())
	assert.Equal(t, []string{"greeting: got x", "boom: boom"}, got)
}
