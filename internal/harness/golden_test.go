package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestCanonicalTrace_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "transfer_basic.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := CanonicalTrace(scenario, first)
	require.NoError(t, err)
	b, err := CanonicalTrace(scenario, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCanonicalTrace_DefaultTraceID(t *testing.T) {
	scenario := &Scenario{Name: "empty"}
	out, err := CanonicalTrace(scenario, NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[],"trace_id":"test-trace-default"}`, string(out))
}
