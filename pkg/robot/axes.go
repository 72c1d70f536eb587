// Package robot mirrors the simulated arm onto a Feetech servo rig and holds
// the simulator's configuration file.
package robot

// AxisName identifies a servo of the rig.
type AxisName string

// Axes of the rig.
const (
	Rail    AxisName = "rail"
	Lift    AxisName = "lift"
	Gripper AxisName = "gripper"
)

// AllAxes returns all axis names in order (matching servo IDs 1-3).
func AllAxes() []AxisName {
	return []AxisName{
		Rail,
		Lift,
		Gripper,
	}
}
