package robot

import (
	"math"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/armsim/pkg/arm"
)

// AxisCalibration holds the raw servo range of one axis. RangeMin is the
// servo position at the start of the simulated axis (left end, raised,
// released) unless Inverted is set.
type AxisCalibration struct {
	ID       int  `json:"id"`
	RangeMin int  `json:"range_min"`
	RangeMax int  `json:"range_max"`
	Inverted bool `json:"inverted,omitempty"`
}

// NewAxisCalibration builds a calibration from the raw positions recorded at
// the start and the end of an axis. A servo counting down along the axis is
// stored as an inverted range.
func NewAxisCalibration(id, atStart, atEnd int) AxisCalibration {
	if atStart <= atEnd {
		return AxisCalibration{ID: id, RangeMin: atStart, RangeMax: atEnd}
	}
	return AxisCalibration{ID: id, RangeMin: atEnd, RangeMax: atStart, Inverted: true}
}

// Calibration holds calibration data for all axes, keyed by axis name.
type Calibration map[AxisName]AxisCalibration

// Fraction converts a raw servo position to its place along the axis, 0 at
// the start and 1 at the end.
func (c AxisCalibration) Fraction(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	f := float64(raw-c.RangeMin) / rangeSize
	if c.Inverted {
		f = 1 - f
	}
	return f
}

// Raw converts a fraction in [0, 1] to a raw servo position. Fractions
// outside the range are clamped.
func (c AxisCalibration) Raw(f float64) int {
	f = max(0, min(1, f))
	if c.Inverted {
		f = 1 - f
	}
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(f*rangeSize+0.5) + c.RangeMin
}

// IDs returns the servo IDs for all axes in the calibration.
func (c Calibration) IDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllAxes() to ensure consistent ordering
	for _, name := range AllAxes() {
		if ac, ok := c[name]; ok {
			ids = append(ids, ac.ID)
		}
	}
	return ids
}

// State converts raw servo positions back to the nearest arm state the
// simulator can represent: the rail snaps to a bin, the lift to a depth step
// and the gripper counts as closed past half way.
func (c Calibration) State(raw feetech.PositionMap, g arm.Geometry) arm.State {
	fraction := func(axis AxisName) float64 {
		ac, ok := c[axis]
		if !ok {
			return 0
		}
		pos, ok := raw[ac.ID]
		if !ok {
			return 0
		}
		return max(0, min(1, ac.Fraction(pos)))
	}

	return arm.State{
		X:            snap(fraction(Rail)*float64(g.MaxX()), g.XStep),
		CaptureDelta: snap(fraction(Lift)*float64(g.MaxCaptureLen), g.CaptureStep),
		CaptureOn:    fraction(Gripper) >= 0.5,
	}
}

func snap(v float64, step int) int {
	if step <= 0 {
		return int(math.Round(v))
	}
	return int(math.Round(v/float64(step))) * step
}
