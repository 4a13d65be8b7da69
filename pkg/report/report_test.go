package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/session"
)

func makeTestPayload() *payload.ResultPayload {
	return &payload.ResultPayload{
		Type:      payload.Type,
		Version:   payload.Version,
		Test:      "Smoke",
		RunID:     "RUN-1",
		StartedAt: "2024-05-01T12:00:00.000Z",
		EndedAt:   "2024-05-01T12:00:01.500Z",
		Pass:      false,
		Summary: []payload.CaseSummary{
			{Name: "sum", Pass: true, Expected: 2, Actual: 2},
			{
				Name:     "greeting",
				Pass:     false,
				Expected: map[string]any{"a": "<b>"},
				Actual:   "x",
			},
			{Name: "boom", Pass: false, Expected: "x", Error: "boom"},
		},
		Log: []string{
			"[2024-05-01T12:00:00.000Z] Window size=1280x960 (recommended 1280x960)",
			"[2024-05-01T12:00:01.500Z] QR encoded length=321",
		},
	}
}

func makeTestRun() *Run {
	return NewRun(makeTestPayload(), nil)
}

func makeMetaRun() *Run {
	return NewRun(makeTestPayload(), []session.Pair{
		{Key: "name", Value: "Smoke"},
		{Key: "actions", Value: 3},
	})
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
