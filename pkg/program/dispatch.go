package program

// Entry is one row of the dispatch table. A nil Effect marks a step that is
// skipped without delay.
type Entry struct {
	Label  string
	Effect func()
}

// DispatchTable maps action names to their effects.
type DispatchTable map[ActionName]Entry

// Mutators are the arm operations a dispatch table binds to.
type Mutators interface {
	Reset()
	MoveRight()
	MoveLeft()
	Lower()
	Raise()
	EngageCapture()
	DisengageCapture()
}

var labels = map[ActionName]string{
	None:    "No action",
	Reset:   "Reset",
	Right:   "Right",
	Left:    "Left",
	Down:    "Down",
	Up:      "Up",
	Capture: "Capture",
	Drop:    "Release",
}

// Label returns the display label of an action name.
func Label(name ActionName) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return string(name)
}

// NewDispatchTable binds every action name to the matching mutator of m.
func NewDispatchTable(m Mutators) DispatchTable {
	effects := map[ActionName]func(){
		Reset:   m.Reset,
		Right:   m.MoveRight,
		Left:    m.MoveLeft,
		Down:    m.Lower,
		Up:      m.Raise,
		Capture: m.EngageCapture,
		Drop:    m.DisengageCapture,
	}

	t := DispatchTable{None: {Label: Label(None)}}
	for name, effect := range effects {
		t[name] = Entry{Label: Label(name), Effect: effect}
	}
	return t
}

// Label returns the display label of an action in this table, or its name
// if the table has no entry for it.
func (t DispatchTable) Label(name ActionName) string {
	if e, ok := t[name]; ok {
		return e.Label
	}
	return string(name)
}
