// Package program defines arm programs and the interpreter that replays
// them one repeat at a time.
package program

import (
	"fmt"
	"time"
)

// Size is the fixed number of steps in a program.
const Size = 30

// DefaultDelay is the pause before each effectful step runs.
const DefaultDelay = 500 * time.Millisecond

// ActionName identifies an entry of the dispatch table.
type ActionName string

// Action names understood by the simulator.
const (
	None    ActionName = "none"
	Reset   ActionName = "reset"
	Right   ActionName = "right"
	Left    ActionName = "left"
	Down    ActionName = "down"
	Up      ActionName = "up"
	Capture ActionName = "capture"
	Drop    ActionName = "drop"
)

// AllActions returns every action name in menu order.
func AllActions() []ActionName {
	return []ActionName{None, Reset, Right, Left, Down, Up, Capture, Drop}
}

// Step is an action paired with its remaining repeat count.
type Step struct {
	Action ActionName `yaml:"action" json:"action"`
	Value  int        `yaml:"value" json:"value"`
}

func (s Step) String() string {
	return fmt.Sprintf("%s×%d", s.Action, s.Value)
}

// Program is an ordered list of steps.
type Program struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Actions []Step `yaml:"actions" json:"actions"`
}

// New returns a program of Size no-op steps.
func New(name string) Program {
	return Program{Name: name}.Pad()
}

// Clone returns a deep copy of the program.
func (p Program) Clone() Program {
	p.Actions = append([]Step(nil), p.Actions...)
	return p
}

// Pad returns a copy of the program extended with {none, 1} steps up to
// Size. Programs already at or above Size are returned unchanged.
func (p Program) Pad() Program {
	p = p.Clone()
	for len(p.Actions) < Size {
		p.Actions = append(p.Actions, Step{Action: None, Value: 1})
	}
	return p
}

// SetStep returns a copy with step i replaced.
func (p Program) SetStep(i int, s Step) Program {
	p = p.Clone()
	p.Actions[i] = s
	return p
}

// Done reports whether no step has repeats left.
func (p Program) Done() bool {
	for _, s := range p.Actions {
		if s.Value > 0 {
			return false
		}
	}
	return true
}

// Validate checks that every step can be dispatched by table.
func (p Program) Validate(table DispatchTable) error {
	if len(p.Actions) > Size {
		return wrapErrorf(ErrProgramTooLong, "%d steps", len(p.Actions))
	}
	for i, s := range p.Actions {
		if s.Value < 0 {
			return wrapErrorf(ErrNegativeValue, "step %d: %s", i, s)
		}
		if _, ok := table[s.Action]; !ok {
			return wrapErrorf(ErrUnknownAction, "step %d: %q", i, s.Action)
		}
	}
	return nil
}
