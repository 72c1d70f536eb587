package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_MoveClamping(t *testing.T) {
	g := DefaultGeometry()

	for _, delta := range []int{-1000, -400, -200, -50, 0, 50, 150, 200, 400, 800, 1000} {
		for _, dir := range []Direction{Left, Right} {
			for start := 0; start <= g.MaxX(); start += g.XStep {
				m := NewMachine(g)
				m.MoveTo(start)
				m.MoveBy(delta, dir)

				x := m.State().X
				assert.GreaterOrEqual(t, x, 0, "start=%d delta=%d dir=%s", start, delta, dir)
				assert.LessOrEqual(t, x, g.MaxX(), "start=%d delta=%d dir=%s", start, delta, dir)
			}
		}
	}
}

func TestMachine_MoveBy(t *testing.T) {
	tests := []struct {
		start int
		delta int
		dir   Direction
		want  int
	}{
		{0, 200, Right, 200},
		{0, 200, Left, 0},      // already at the left edge
		{800, 200, Right, 800}, // already at the right edge
		{800, 200, Left, 600},
		{600, 400, Right, 600}, // would overshoot
		{400, 400, Left, 0},
		{0, -200, Right, 0}, // negative deltas are ignored
		{800, -400, Left, 800},
		{200, 50, Right, 200}, // not a rail step
		{400, 250, Left, 400},
	}

	for _, tt := range tests {
		m := NewMachine(DefaultGeometry())
		m.MoveTo(tt.start)
		m.MoveBy(tt.delta, tt.dir)
		if got := m.State().X; got != tt.want {
			t.Errorf("MoveBy(%d, %s) from %d = %d, want %d", tt.delta, tt.dir, tt.start, got, tt.want)
		}
	}
}

func TestMachine_DepthClamping(t *testing.T) {
	g := DefaultGeometry()
	m := NewMachine(g)

	for i := 0; i < 10; i++ {
		m.Lower()
		require.LessOrEqual(t, m.State().CaptureDelta, g.MaxCaptureLen)
	}
	assert.Equal(t, g.MaxCaptureLen, m.State().CaptureDelta)

	for i := 0; i < 10; i++ {
		m.Raise()
		require.GreaterOrEqual(t, m.State().CaptureDelta, 0)
	}
	assert.Equal(t, 0, m.State().CaptureDelta)
}

func TestMachine_CaptureAndDrop(t *testing.T) {
	m := NewMachine(DefaultGeometry())
	total := m.Total()

	m.MoveRight()
	for i := 0; i < 5; i++ {
		m.Lower()
	}
	m.EngageCapture()

	held, ok := m.Held()
	require.True(t, ok)
	assert.Equal(t, Red, held)
	assert.Empty(t, m.Bar()[1])
	assert.Equal(t, total, m.Total())

	m.Raise()
	m.MoveRight()
	m.DisengageCapture()

	_, ok = m.Held()
	assert.False(t, ok)
	assert.Equal(t, Bin{Green, Red}, m.Bar()[2])
	assert.Equal(t, total, m.Total())
}

func TestMachine_ReachGating(t *testing.T) {
	g := DefaultGeometry()
	g.CaptureStep = 1
	g.MaxCaptureLen = 300

	m := NewMachine(g)
	m.MoveRight()
	for m.State().CaptureDelta < 249 {
		m.Lower()
	}
	m.EngageCapture()
	_, ok := m.Held()
	assert.False(t, ok, "captured at depth 249")
	assert.True(t, m.State().CaptureOn)
	assert.Equal(t, Bin{Red}, m.Bar()[1])

	m.DisengageCapture()
	m.Lower()
	require.Equal(t, 250, m.State().CaptureDelta)
	m.EngageCapture()
	held, ok := m.Held()
	require.True(t, ok, "nothing captured at depth 250")
	assert.Equal(t, Red, held)
}

func TestMachine_EmptyBin(t *testing.T) {
	m := NewMachine(DefaultGeometry())
	for i := 0; i < 5; i++ {
		m.Lower()
	}
	m.EngageCapture()

	_, ok := m.Held()
	assert.False(t, ok)
	assert.True(t, m.State().CaptureOn)
	assert.Equal(t, DefaultObjectBar(), m.Bar())
}

func TestMachine_NoDoubleCapture(t *testing.T) {
	m := NewMachine(DefaultGeometry())
	m.MoveRight()
	for i := 0; i < 5; i++ {
		m.Lower()
	}
	m.EngageCapture()
	bar := m.Bar()

	// Repeated evaluations and moves with the gripper still closed.
	for i := 0; i < 3; i++ {
		m.settle()
		m.EngageCapture()
	}
	m.MoveRight()
	m.Raise()
	m.Lower()

	held, ok := m.Held()
	require.True(t, ok)
	assert.Equal(t, Red, held)
	assert.Equal(t, bar, m.Bar())
}

func TestMachine_ToggleCapture(t *testing.T) {
	m := NewMachine(DefaultGeometry())
	m.MoveRight()
	for i := 0; i < 5; i++ {
		m.Lower()
	}

	m.ToggleCapture()
	_, ok := m.Held()
	require.True(t, ok)

	m.MoveLeft()
	m.ToggleCapture()
	_, ok = m.Held()
	require.False(t, ok)
	assert.Equal(t, Bin{Red}, m.Bar()[0])
}

func TestMachine_Reset(t *testing.T) {
	m := NewMachine(DefaultGeometry())
	m.MoveRight()
	for i := 0; i < 5; i++ {
		m.Lower()
	}
	m.EngageCapture()
	m.MoveRight()

	m.Reset()

	assert.Equal(t, State{}, m.State())
	_, ok := m.Held()
	assert.False(t, ok)
	assert.Equal(t, DefaultObjectBar(), m.Bar())
	assert.Equal(t, 4, m.Total())

	// Closing the gripper after a reset is a fresh rising edge.
	m.MoveRight()
	for i := 0; i < 5; i++ {
		m.Lower()
	}
	m.EngageCapture()
	_, ok = m.Held()
	assert.True(t, ok)
}

func TestMachine_BarIsCopy(t *testing.T) {
	m := NewMachine(DefaultGeometry())
	bar := m.Bar()
	bar[1] = append(bar[1], Green)

	assert.Equal(t, Bin{Red}, m.Bar()[1])
}
