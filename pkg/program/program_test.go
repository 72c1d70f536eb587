package program

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_Pad(t *testing.T) {
	p := Program{Name: "short", Actions: []Step{{Right, 1}}}
	padded := p.Pad()

	require.Len(t, padded.Actions, Size)
	assert.Len(t, p.Actions, 1, "Pad modified its receiver")
	assert.Equal(t, Step{Right, 1}, padded.Actions[0])
	for _, s := range padded.Actions[1:] {
		assert.Equal(t, Step{None, 1}, s)
	}
	assert.Equal(t, "short", padded.Name)
}

func TestProgram_New(t *testing.T) {
	p := New("blank")
	assert.Len(t, p.Actions, Size)
	assert.False(t, p.Done())
}

func TestProgram_Predefined(t *testing.T) {
	table := NewDispatchTable(&countingMutators{})
	for name, p := range Predefined() {
		assert.Len(t, p.Actions, Size, name)
		assert.NoError(t, p.Validate(table), name)
	}

	// Callers get fresh copies.
	a := OneDrop()
	a.Actions[0].Value = 9
	assert.Equal(t, 1, OneDrop().Actions[0].Value)
}

func TestProgram_SetStep(t *testing.T) {
	p := New("edit")
	q := p.SetStep(2, Step{Capture, 1})

	assert.Equal(t, Step{Capture, 1}, q.Actions[2])
	assert.Equal(t, Step{None, 1}, p.Actions[2])
}

func TestProgram_Validate(t *testing.T) {
	table := NewDispatchTable(&countingMutators{})

	tests := []struct {
		name string
		p    Program
		want error
	}{
		{"ok", OneDrop(), nil},
		{"unknown", Program{Actions: []Step{{Right, 1}, {"spin", 1}}}, ErrUnknownAction},
		{"negative", Program{Actions: []Step{{Up, -1}}}, ErrNegativeValue},
		{"too long", Program{Actions: make([]Step, Size+1)}, ErrProgramTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate(table)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

func TestDispatchTable_NoneIsSkip(t *testing.T) {
	table := NewDispatchTable(&countingMutators{})

	assert.Nil(t, table[None].Effect)
	for _, name := range AllActions() {
		entry, ok := table[name]
		require.True(t, ok, name)
		if name != None {
			assert.NotNil(t, entry.Effect, name)
		}
	}
	assert.Equal(t, "Release", table.Label(Drop))
	assert.Equal(t, "spin", table.Label("spin"))
}

func TestParse(t *testing.T) {
	data := []byte(`
name: Two steps
actions:
  - {action: right, value: 2}
  - action: capture
    value: 1
`)
	p, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "Two steps", p.Name)
	require.Len(t, p.Actions, Size)
	assert.Equal(t, Step{Right, 2}, p.Actions[0])
	assert.Equal(t, Step{Capture, 1}, p.Actions[1])
	assert.Equal(t, Step{None, 1}, p.Actions[2])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"syntax", "actions: [", ErrProgramFile},
		{"unknown action", "actions:\n  - {action: fly, value: 1}\n", ErrUnknownAction},
		{"negative", "actions:\n  - {action: up, value: -2}\n", ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.Cause(err))
		})
	}
}

func TestProgram_ValidateMessage(t *testing.T) {
	p := Program{Actions: []Step{{Right, 1}, {"spin", 1}}}
	err := p.Validate(NewDispatchTable(&countingMutators{}))

	require.Error(t, err)
	assert.Equal(t, `step 1: "spin": unknown action`, err.Error())
}
