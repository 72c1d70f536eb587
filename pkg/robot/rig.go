package robot

import (
	"context"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"

	"github.com/gwillem/armsim/pkg/arm"
)

// Rig is a servo bus that follows the simulated arm: the rail servo tracks
// the horizontal position, the lift servo the gripper depth and the gripper
// servo the capture flag.
type Rig struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
	geom        arm.Geometry
}

// NewRig opens the bus on port and groups the calibrated servos.
func NewRig(port string, cal Calibration, geom arm.Geometry) (*Rig, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open bus")
	}

	group := feetech.NewServoGroupByIDs(bus, cal.IDs()...)

	return &Rig{
		bus:         bus,
		group:       group,
		calibration: cal,
		geom:        geom,
	}, nil
}

// Close closes the rig's bus connection.
func (r *Rig) Close() error {
	return r.bus.Close()
}

// Enable enables torque on all servos.
func (r *Rig) Enable(ctx context.Context) error {
	return r.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (r *Rig) Disable(ctx context.Context) error {
	return r.group.DisableAll(ctx)
}

// Targets converts an arm state to raw servo positions keyed by servo ID.
func (r *Rig) Targets(s arm.State) feetech.PositionMap {
	fractions := map[AxisName]float64{
		Rail: ratio(s.X, r.geom.MaxX()),
		Lift: ratio(s.CaptureDelta, r.geom.MaxCaptureLen),
	}
	if s.CaptureOn {
		fractions[Gripper] = 1
	} else {
		fractions[Gripper] = 0
	}

	targets := make(feetech.PositionMap, len(fractions))
	for name, f := range fractions {
		cal, ok := r.calibration[name]
		if !ok {
			continue
		}
		targets[cal.ID] = cal.Raw(f)
	}
	return targets
}

// WriteState moves the servos to match s.
func (r *Rig) WriteState(ctx context.Context, s arm.State) error {
	if err := r.group.SetPositions(ctx, r.Targets(s)); err != nil {
		return errors.Wrap(err, "write positions")
	}
	return nil
}

// ReadState reads the servo positions back as an arm state.
func (r *Rig) ReadState(ctx context.Context) (arm.State, error) {
	raw, err := r.group.Positions(ctx)
	if err != nil {
		return arm.State{}, errors.Wrap(err, "read positions")
	}
	return r.calibration.State(raw, r.geom), nil
}

func ratio(v, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(v) / float64(total)
}
