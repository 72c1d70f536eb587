// Package arm models the simulated rail arm: its position, gripper depth,
// capture flag and the floor bins it moves objects between.
package arm

// Geometry holds the fixed dimensions of the simulated workspace.
type Geometry struct {
	CanvasWidth    int
	ArmWidth       int
	XStep          int
	CaptureStep    int
	MaxCaptureLen  int
	ReachThreshold int
}

// DefaultGeometry returns the dimensions used by the simulator.
func DefaultGeometry() Geometry {
	return Geometry{
		CanvasWidth:    1000,
		ArmWidth:       200,
		XStep:          200,
		CaptureStep:    50,
		MaxCaptureLen:  250,
		ReachThreshold: 250,
	}
}

// MaxX is the right-most position the arm may reach.
func (g Geometry) MaxX() int {
	return g.CanvasWidth - g.ArmWidth
}

// Bins returns the number of bins on the floor, one per rail position.
func (g Geometry) Bins() int {
	return g.CanvasWidth / g.XStep
}

// BinIndex maps a step-aligned rail position to its bin.
func (g Geometry) BinIndex(x int) int {
	return x / g.XStep
}

// InReach reports whether the gripper is lowered enough to touch a bin.
func (g Geometry) InReach(depth int) bool {
	return depth >= g.ReachThreshold
}
