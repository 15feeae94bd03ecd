package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ShippedScenarios(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	a := scenarios[0]
	assert.Equal(t, "scenario_a_overflow", a.Name)
	assert.Equal(t, "waitroom", a.Engine)
	require.NotNil(t, a.WaitingRoom)
	require.NotNil(t, a.WaitingRoom.Chairs)
	assert.Equal(t, 3, *a.WaitingRoom.Chairs)
	require.NotNil(t, a.WaitingRoom.Service)
	assert.Equal(t, 100*time.Millisecond, time.Duration(*a.WaitingRoom.Service))
	require.NotNil(t, a.Timeout)
	assert.Equal(t, 20*time.Second, time.Duration(*a.Timeout))

	assert.Equal(t, "scenario_c_readers_writers", scenarios[2].Name)
	assert.Nil(t, scenarios[2].WaitingRoom)
}

func TestLoadDir_Filter(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"), "scenario_b_*")
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "scenario_b_sparse", scenarios[0].Name)

	_, err = LoadDir(filepath.Join("testdata", "scenarios"), "[")
	assert.Error(t, err)
}

func TestLoadDir_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yml"), []byte(`
name: one
description: d
engine: gate
assertions:
  - type: terminated
`), 0o644))

	scenarios, err := LoadDir(dir, "")
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "one", scenarios[0].Name)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: d\nengine: gate\nasertions: []\n",
			want: "field asertions not found",
		},
		{
			name: "missing name",
			yaml: "description: d\nengine: gate\nassertions: [{type: terminated}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nengine: gate\nassertions: [{type: terminated}]\n",
			want: "description is required",
		},
		{
			name: "missing engine",
			yaml: "name: x\ndescription: d\nassertions: [{type: terminated}]\n",
			want: "engine is required",
		},
		{
			name: "unknown engine",
			yaml: "name: x\ndescription: d\nengine: philosophers\nassertions: [{type: terminated}]\n",
			want: `unknown engine "philosophers"`,
		},
		{
			name: "settings for the other engine",
			yaml: "name: x\ndescription: d\nengine: gate\nwaitroom: {chairs: 2}\nassertions: [{type: terminated}]\n",
			want: "waitroom settings given",
		},
		{
			name: "no assertions",
			yaml: "name: x\ndescription: d\nengine: gate\n",
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: x\ndescription: d\nengine: gate\nassertions: [{type: fairness}]\n",
			want: `unknown assertion type "fairness"`,
		},
		{
			name: "waitroom assertion on gate",
			yaml: "name: x\ndescription: d\nengine: gate\nassertions: [{type: waiting_bound}]\n",
			want: "waitroom engine only",
		},
		{
			name: "gate assertion on waitroom",
			yaml: "name: x\ndescription: d\nengine: waitroom\nassertions: [{type: exclusive_access}]\n",
			want: "gate engine only",
		},
		{
			name: "phase_count without phase",
			yaml: "name: x\ndescription: d\nengine: gate\nassertions: [{type: phase_count, count: 1}]\n",
			want: "phase is required",
		},
		{
			name: "phase_count without bound",
			yaml: "name: x\ndescription: d\nengine: gate\nassertions: [{type: phase_count, phase: done}]\n",
			want: "count, min or max is required",
		},
		{
			name: "phase_count count and min",
			yaml: "name: x\ndescription: d\nengine: gate\nassertions: [{type: phase_count, phase: done, count: 1, min: 0}]\n",
			want: "cannot be combined",
		},
		{
			name: "phase_count inverted range",
			yaml: "name: x\ndescription: d\nengine: gate\nassertions: [{type: phase_count, phase: done, min: 3, max: 1}]\n",
			want: "min 3 is greater than max 1",
		},
		{
			name: "bad duration",
			yaml: "name: x\ndescription: d\nengine: gate\ngate: {read: soon}\nassertions: [{type: terminated}]\n",
			want: "invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssertion_String(t *testing.T) {
	one := 1
	assert.Equal(t, "terminated", Assertion{Type: AssertTerminated}.String())
	assert.Equal(t, "phase_count(done)", Assertion{Type: AssertPhaseCount, Phase: "done", Count: &one}.String())
	assert.Equal(t, "phase_count(writer.done)", Assertion{Type: AssertPhaseCount, Kind: "writer", Phase: "done"}.String())
}
