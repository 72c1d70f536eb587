package main

import (
	"sort"

	"github.com/charmbracelet/huh"

	"github.com/gwillem/armsim/pkg/program"
)

// Repeat counts the editor can set.
const (
	minRepeat = 1
	maxRepeat = 10
)

// pickProgram asks which predefined program to load, or starts a blank one
// to be filled in with the editor.
func pickProgram() (program.Program, error) {
	predefined := program.Predefined()

	names := make([]string, 0, len(predefined))
	for key := range predefined {
		names = append(names, key)
	}
	sort.Strings(names)

	var options []huh.Option[string]
	for _, key := range names {
		options = append(options, huh.NewOption(predefined[key].Name, key))
	}
	options = append(options, huh.NewOption("Blank program (press e to edit)", "blank"))

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which program?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return program.Program{}, err
	}

	if choice == "blank" {
		return program.New("Custom program"), nil
	}
	return predefined[choice], nil
}

// stepEditor changes the loaded program in place, one step at a time.
type stepEditor struct {
	active bool
	cursor int
}

// update applies an editing key to p and returns the edited copy.
func (e *stepEditor) update(p program.Program, key string) program.Program {
	if len(p.Actions) == 0 {
		e.active = false
		return p
	}
	e.cursor = max(0, min(len(p.Actions)-1, e.cursor))
	step := p.Actions[e.cursor]

	switch key {
	case "up", "k":
		e.cursor = max(0, e.cursor-1)
	case "down", "j":
		e.cursor = min(len(p.Actions)-1, e.cursor+1)
	case "left", "h":
		step.Action = cycleAction(step.Action, -1)
		return p.SetStep(e.cursor, step)
	case "right", "l", " ":
		step.Action = cycleAction(step.Action, 1)
		return p.SetStep(e.cursor, step)
	case "+", "=":
		step.Value = max(minRepeat, min(maxRepeat, step.Value+1))
		return p.SetStep(e.cursor, step)
	case "-":
		step.Value = max(minRepeat, min(maxRepeat, step.Value-1))
		return p.SetStep(e.cursor, step)
	case "esc", "e", "enter":
		e.active = false
	}
	return p
}

// cycleAction returns the action d places from name in menu order.
func cycleAction(name program.ActionName, d int) program.ActionName {
	actions := program.AllActions()
	i := 0
	for j, a := range actions {
		if a == name {
			i = j
			break
		}
	}
	n := len(actions)
	return actions[((i+d)%n+n)%n]
}
