package program

// OneDrop moves the red object from bin 1 into bin 0.
func OneDrop() Program {
	return Program{
		Name: "Move one object",
		Actions: []Step{
			{Right, 1},
			{Down, 5},
			{Capture, 1},
			{Up, 3},
			{Left, 1},
			{Drop, 1},
			{Up, 2},
		},
	}.Pad()
}

// Full moves every object into bin 0.
func Full() Program {
	p := Program{Name: "Move all objects"}
	for bin := 1; bin <= 4; bin++ {
		depth := 3
		if bin == 1 {
			depth = 5
		}
		p.Actions = append(p.Actions,
			Step{Right, bin},
			Step{Down, depth},
			Step{Capture, 1},
			Step{Up, 3},
			Step{Left, bin},
			Step{Drop, 1},
		)
	}
	p.Actions = append(p.Actions, Step{Up, 2})
	return p.Pad()
}

// Predefined returns the built-in programs keyed by short name.
func Predefined() map[string]Program {
	return map[string]Program{
		"one":  OneDrop(),
		"full": Full(),
	}
}
