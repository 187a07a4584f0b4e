package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "boiler.yaml", boilerScenario)

	stdout, _, err := execute(t, "explain", path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Scenario: boiler\n")
	assert.Contains(t, stdout, "temp: 92.7 (17.70 over optimal)")
	assert.Contains(t, stdout, "1. reduce optimal by 17.70 (priority: critical) [temp]")
	assert.Contains(t, stdout, "Optimal action: reduce optimal by 17.70 (priority: critical)")
	assert.Contains(t, stdout, "Assertions: PASS")
}

func TestExplain_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "boiler.yaml", boilerScenario)

	stdout, _, err := execute(t, "explain", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		RunID  string `json:"run_id"`
		Data   struct {
			Scenario string `json:"scenario"`
			Pass     bool   `json:"pass"`
			Actions  []struct {
				Target string `json:"target"`
			} `json:"actions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "boiler", resp.Data.Scenario)
	assert.True(t, resp.Data.Pass)
	require.Len(t, resp.Data.Actions, 1)
	assert.Equal(t, "optimal", resp.Data.Actions[0].Target)
}

func TestExplain_AssertionFailuresDoNotFail(t *testing.T) {
	failing := `name: failing
anchors: [{name: optimal, value: 75.0, tolerance: 2.0}]
relations: [{name: temp, value: 92.7, anchors: [optimal]}]
assertions: [{type: qualifier, relation: temp, anchor: optimal, expect: near}]
`
	path := writeFile(t, t.TempDir(), "failing.yaml", failing)

	stdout, _, err := execute(t, "explain", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Assertions: FAIL (1)")
}

func TestExplain_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"missing file", dir + "/missing.yaml", ErrCodeLoad},
		{"malformed yaml", writeFile(t, dir, "bad.yaml", "name: [unterminated"), ErrCodeLoad},
		{"invalid scenario", writeFile(t, dir, "invalid.yaml", "anchors: [{name: a, value: 1}]"), ErrCodeInvalid},
		{
			"inverted range",
			writeFile(t, dir, "range.yaml", "name: r\nanchors: [{name: a, value: 1, range_start: 5, range_end: 1}]"),
			ErrCodeInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "explain", tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestActions(t *testing.T) {
	twoRelations := `name: two
anchors: [{name: optimal, value: 75.0, tolerance: 2.0}]
relations:
  - {name: temp, value: 92.7, anchors: [optimal]}
  - {name: probe, value: 50.0, anchors: [optimal]}
`
	path := writeFile(t, t.TempDir(), "two.yaml", twoRelations)

	stdout, _, err := execute(t, "actions", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[temp]")
	assert.Contains(t, stdout, "[probe]")

	stdout, _, err = execute(t, "actions", path, "--relation", "probe")
	require.NoError(t, err)
	assert.Equal(t, "1. increase optimal by 25.00 (priority: critical) [probe]\n", stdout)

	stdout, _, err = execute(t, "actions", path, "--relation", "probe", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data ActionsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "probe", resp.Data.Relation)
	require.Len(t, resp.Data.Actions, 1)
	assert.Equal(t, "probe", resp.Data.Actions[0].Relation)
}

func TestActions_None(t *testing.T) {
	path := writeFile(t, t.TempDir(), "idle.yaml", idleScenario)

	stdout, _, err := execute(t, "actions", path)
	require.NoError(t, err)
	assert.Equal(t, "No suggested actions.\n", stdout)

	stdout, _, err = execute(t, "actions", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"actions": []`)
}

func TestOptimize(t *testing.T) {
	path := writeFile(t, t.TempDir(), "boiler.yaml", boilerScenario)

	stdout, _, err := execute(t, "optimize", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Optimal action: reduce optimal by 17.70 (priority: critical)\n")
	assert.Contains(t, stdout, "Pareto front: 1 solution(s)\n")
	assert.Contains(t, stdout, "No tradeoffs (only one objective defined)")

	stdout, _, err = execute(t, "optimize", path, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		RunID string         `json:"run_id"`
		Data  OptimizeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.NotNil(t, resp.Data.Optimal)
	assert.NotEmpty(t, resp.Data.Optimal.ID)
	assert.Len(t, resp.Data.Pareto, 1)
}

func TestOptimize_NoObjectives(t *testing.T) {
	path := writeFile(t, t.TempDir(), "idle.yaml", idleScenario)

	stdout, _, err := execute(t, "optimize", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "scenario declares no objectives")
}

func TestOptimize_NothingToScore(t *testing.T) {
	idleWithObjective := idleScenario + `objectives:
  - name: cost
    goal: minimize
`
	path := writeFile(t, t.TempDir(), "idle.yaml", idleWithObjective)

	stdout, _, err := execute(t, "optimize", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E_NO_ACTION]")
}
