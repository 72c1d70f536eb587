// Package armsim simulates a gantry pick-and-place arm driven by short
// step programs.
//
// The arm rides a horizontal rail above a row of bins, lowers a gripper and
// moves colored objects between bins. Programs are lists of (action, repeat)
// steps that run with a fixed delay between effects. The simulated state can
// optionally be mirrored to a three-servo rig.
//
// # Installation
//
//	go install github.com/gwillem/armsim/cmd/armsim@latest
//
// # Usage
//
// Run a predefined program in the terminal UI:
//
//	armsim run --program full
//
// Or without a UI, printing the final bins:
//
//	armsim run --program one --headless
//
// To mirror the arm to hardware, detect and calibrate the rig first:
//
//	armsim setup
//	armsim run --rig
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/armsim: CLI with setup and run commands
//   - pkg/arm: Rail geometry, bins and the capture state machine
//   - pkg/program: Programs, the dispatch table and the step executor
//   - pkg/control: Event loop that owns the arm and runs programs
//   - pkg/robot: Rig calibration, configuration and servo mirroring
package armsim
