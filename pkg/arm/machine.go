package arm

// Direction of a horizontal move.
type Direction int

const (
	Left Direction = iota
	Right
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// State is the observable position of the arm.
type State struct {
	X            int
	CaptureDelta int
	CaptureOn    bool
}

// Machine owns the arm state, the floor bins and the held object, and applies
// the capture policy after every mutation. It is not safe for concurrent use;
// callers serialize access (see the control package).
type Machine struct {
	geom  Geometry
	state State
	bar   ObjectBar
	held  *Object

	initial ObjectBar
	prevOn  bool
}

// NewMachine returns a machine in its default state with the default bins.
func NewMachine(g Geometry) *Machine {
	return NewMachineWithBar(g, DefaultObjectBar())
}

// NewMachineWithBar returns a machine whose reset restores bar.
func NewMachineWithBar(g Geometry, bar ObjectBar) *Machine {
	m := &Machine{
		geom:    g,
		initial: bar.Clone(),
	}
	m.Reset()
	return m
}

// State returns the arm position.
func (m *Machine) State() State {
	return m.state
}

// Bar returns a copy of the floor bins.
func (m *Machine) Bar() ObjectBar {
	return m.bar.Clone()
}

// Held returns the object in the gripper, if any.
func (m *Machine) Held() (Object, bool) {
	if m.held == nil {
		return "", false
	}
	return *m.held, true
}

// Total counts every object on the floor or in the gripper.
func (m *Machine) Total() int {
	n := m.bar.Total()
	if m.held != nil {
		n++
	}
	return n
}

// CanMove reports whether a move of delta in dir keeps the arm on the rail.
// delta must be a non-negative multiple of the rail step.
func (m *Machine) CanMove(delta int, dir Direction) bool {
	if delta < 0 || delta%m.geom.XStep != 0 {
		return false
	}
	nx := m.target(delta, dir)
	return nx >= 0 && nx <= m.geom.MaxX()
}

func (m *Machine) target(delta int, dir Direction) int {
	if dir == Left {
		return m.state.X - delta
	}
	return m.state.X + delta
}

// MoveBy moves the arm horizontally. Moves that would leave the rail or
// land between rail positions are ignored.
func (m *Machine) MoveBy(delta int, dir Direction) {
	if !m.CanMove(delta, dir) {
		return
	}
	m.state.X = m.target(delta, dir)
	m.settle()
}

// MoveLeft moves the arm one rail position to the left.
func (m *Machine) MoveLeft() {
	m.MoveBy(m.geom.XStep, Left)
}

// MoveRight moves the arm one rail position to the right.
func (m *Machine) MoveRight() {
	m.MoveBy(m.geom.XStep, Right)
}

// MoveTo sets the rail position without any bounds check.
func (m *Machine) MoveTo(x int) {
	m.state.X = x
	m.settle()
}

// Lower extends the gripper by one step.
func (m *Machine) Lower() {
	m.state.CaptureDelta = min(m.state.CaptureDelta+m.geom.CaptureStep, m.geom.MaxCaptureLen)
	m.settle()
}

// Raise retracts the gripper by one step.
func (m *Machine) Raise() {
	m.state.CaptureDelta = max(0, m.state.CaptureDelta-m.geom.CaptureStep)
	m.settle()
}

// EngageCapture closes the gripper.
func (m *Machine) EngageCapture() {
	m.state.CaptureOn = true
	m.settle()
}

// DisengageCapture opens the gripper.
func (m *Machine) DisengageCapture() {
	m.state.CaptureOn = false
	m.settle()
}

// ToggleCapture flips the gripper.
func (m *Machine) ToggleCapture() {
	m.state.CaptureOn = !m.state.CaptureOn
	m.settle()
}

// Reset restores the default position and the initial bins and drops
// whatever the gripper held.
func (m *Machine) Reset() {
	m.held = nil
	m.bar = m.initial.Clone()
	m.state.CaptureDelta = 0
	m.state.CaptureOn = false
	m.MoveTo(0)
}

func (m *Machine) settle() {
	out := Transition(CaptureInput{
		PrevOn:   m.prevOn,
		On:       m.state.CaptureOn,
		InReach:  m.geom.InReach(m.state.CaptureDelta),
		BinIndex: m.geom.BinIndex(m.state.X),
		Bins:     m.bar,
		Held:     m.held,
	})
	m.bar = out.Bins
	m.held = out.Held
	m.prevOn = out.EdgeMemory
}
