package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/gwillem/armsim/pkg/arm"
	"github.com/gwillem/armsim/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const rigBaudRate = 1_000_000

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	closeLog, err := setupLogging(true)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer closeLog()

	fmt.Println(headerStyle.Render("armsim Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrapf(err, "load %s", opts.Config)
	}
	geom := arm.DefaultGeometry()

	port, err := findRig()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Rig ━━━"))
	fmt.Println("Each axis is recorded at both ends of its simulated range.")
	fmt.Println()

	cal, err := calibrateRig(port, geom)
	if err != nil {
		return err
	}

	cfg.Rig = robot.RigConfig{Port: port, Calibration: cal}
	if err := cfg.SaveTo(opts.Config); err != nil {
		return errors.Wrap(err, "save config")
	}

	fmt.Println()
	verifyRig(cfg.Rig, geom)

	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Mirror the simulator with: " + headerStyle.Render("armsim run --rig"))

	return nil
}

// findRig returns the port of the servo rig, asking the user when more than
// one is connected.
func findRig() (string, error) {
	fmt.Println("Scanning for servo rigs...")

	ports, err := serial.GetPortsList()
	if err != nil {
		return "", errors.Wrap(err, "list serial ports")
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		bus, _, err := openRigBus(port)
		if err != nil {
			logrus.WithField("port", port).WithError(err).Debug("no rig")
			continue
		}
		bus.Close()
		fmt.Printf("  Found rig on %s\n", port)
		found = append(found, port)
	}

	switch len(found) {
	case 0:
		return "", errors.New("no servo rig found, make sure it is connected and powered on")
	case 1:
		return found[0], nil
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Several rigs found. Which one mirrors the simulator?").
				Options(huh.NewOptions(found...)...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return port, nil
}

// openRigBus opens port and checks that it carries one servo per axis, with
// IDs 1 to 3 in axis order.
func openRigBus(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: rigBaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "open bus")
	}

	axes := robot.AllAxes()
	servos, err := bus.Scan(ctx, 1, len(axes))
	if err != nil {
		bus.Close()
		return nil, nil, errors.Wrap(err, "scan bus")
	}

	ids := make(map[int]bool, len(servos))
	for _, s := range servos {
		ids[s.ID] = true
	}
	complete := len(servos) == len(axes)
	for i := range axes {
		complete = complete && ids[i+1]
	}
	if !complete {
		bus.Close()
		return nil, nil, errors.Errorf("expected servo IDs 1-%d, found %d servos", len(axes), len(servos))
	}

	return bus, servos, nil
}

func calibrateRig(port string, geom arm.Geometry) (robot.Calibration, error) {
	bus, found, err := openRigBus(port)
	if err != nil {
		return nil, err
	}
	defer bus.Close()

	// Torque off so the axes can be moved by hand
	ctx := context.Background()
	servos := make(map[robot.AxisName]*feetech.Servo, len(found))
	for _, s := range found {
		axis := robot.AllAxes()[s.ID-1]
		servos[axis] = feetech.NewServo(bus, s.ID, s.Model)
		if err := servos[axis].Disable(ctx); err != nil {
			return nil, errors.Wrapf(err, "disable %s", axis)
		}
	}

	final, err := tea.NewProgram(newCalibrationModel(geom, servos)).Run()
	if err != nil {
		return nil, errors.Wrap(err, "run calibration")
	}

	m := final.(calibrationModel)
	if !m.complete() {
		return nil, errors.New("calibration aborted")
	}
	return m.calibration(), nil
}

// verifyRig reads the calibrated rig back in simulator units.
func verifyRig(rc robot.RigConfig, geom arm.Geometry) {
	rig, err := robot.NewRig(rc.Port, rc.Calibration, geom)
	if err != nil {
		fmt.Println(dimStyle.Render("Could not reopen rig: " + err.Error()))
		return
	}
	defer rig.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := rig.ReadState(ctx)
	if err != nil {
		fmt.Println(dimStyle.Render("Could not read rig: " + err.Error()))
		return
	}
	fmt.Printf("Rig reads x=%d (bin %d) depth=%d capture=%v\n",
		s.X, geom.BinIndex(s.X), s.CaptureDelta, s.CaptureOn)
}

// pose is one end of a simulated axis that the rig is moved to by hand.
type pose struct {
	axis  robot.AxisName
	end   bool // false for the start of the axis
	label string
}

func axisPoses(g arm.Geometry) []pose {
	maxX := g.MaxX()
	return []pose{
		{robot.Rail, false, "the rail to its left end (x=0, bin 0)"},
		{robot.Rail, true, fmt.Sprintf("the rail to its right end (x=%d, bin %d)", maxX, g.BinIndex(maxX))},
		{robot.Lift, false, "the gripper fully up (depth 0)"},
		{robot.Lift, true, fmt.Sprintf("the gripper fully down (depth %d)", g.MaxCaptureLen)},
		{robot.Gripper, false, "the gripper open (released)"},
		{robot.Gripper, true, "the gripper closed (capturing)"},
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// calibrationModel walks through the axis poses, recording the live raw
// position of the matching servo on Enter.
type calibrationModel struct {
	geom   arm.Geometry
	servos map[robot.AxisName]*feetech.Servo
	poses  []pose
	next   int

	raw   map[robot.AxisName]int
	start map[robot.AxisName]int
	end   map[robot.AxisName]int

	quitting bool
}

func newCalibrationModel(geom arm.Geometry, servos map[robot.AxisName]*feetech.Servo) calibrationModel {
	return calibrationModel{
		geom:   geom,
		servos: servos,
		poses:  axisPoses(geom),
		raw:    make(map[robot.AxisName]int),
		start:  make(map[robot.AxisName]int),
		end:    make(map[robot.AxisName]int),
	}
}

func (m calibrationModel) complete() bool {
	return m.next == len(m.poses)
}

// calibration returns the ranges recorded so far. Axes missing an end are
// left out.
func (m calibrationModel) calibration() robot.Calibration {
	cal := make(robot.Calibration)
	for i, axis := range robot.AllAxes() {
		start, okStart := m.start[axis]
		end, okEnd := m.end[axis]
		if okStart && okEnd {
			cal[axis] = robot.NewAxisCalibration(i+1, start, end)
		}
	}
	return cal
}

func (m calibrationModel) rawByID() feetech.PositionMap {
	raw := make(feetech.PositionMap, len(m.raw))
	for i, axis := range robot.AllAxes() {
		if pos, ok := m.raw[axis]; ok {
			raw[i+1] = pos
		}
	}
	return raw
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter", " ":
			return m.record()
		}

	case tickMsg:
		ctx := context.Background()
		for axis, servo := range m.servos {
			if pos, err := servo.Position(ctx); err == nil {
				m.raw[axis] = pos
			}
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) record() (tea.Model, tea.Cmd) {
	if m.complete() {
		return m, tea.Quit
	}
	p := m.poses[m.next]
	pos, ok := m.raw[p.axis]
	if !ok {
		// No reading yet
		return m, nil
	}
	if p.end {
		m.end[p.axis] = pos
	} else {
		m.start[p.axis] = pos
	}
	m.next++
	if m.complete() {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(subHeaderStyle.Render(fmt.Sprintf("Step %d/%d", m.next+1, len(m.poses))))
	sb.WriteString(" Move " + m.poses[m.next].label + " and press Enter\n\n")

	cal := m.calibration()
	sim := cal.State(m.rawByID(), m.geom)

	rows := make([][]string, 0, len(robot.AllAxes()))
	for _, axis := range robot.AllAxes() {
		row := []string{string(axis), "-", "-", "-", "-"}
		if pos, ok := m.raw[axis]; ok {
			row[1] = fmt.Sprintf("%d", pos)
		}
		if pos, ok := m.start[axis]; ok {
			row[2] = fmt.Sprintf("%d", pos)
		}
		if pos, ok := m.end[axis]; ok {
			row[3] = fmt.Sprintf("%d", pos)
		}
		if _, ok := cal[axis]; ok {
			row[4] = simValue(axis, sim)
		}
		rows = append(rows, row)
	}

	current := m.poses[m.next].axis
	sb.WriteString(renderTable([]string{"Axis", "Raw", "Start", "End", "Simulator"}, rows,
		func(row, col int) lipgloss.Style {
			if row >= 0 && row < len(rows) && rows[row][0] == string(current) {
				return tableCellStyle.Foreground(lipgloss.Color("11"))
			}
			return tableCellStyle
		}))
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Enter record  Esc abort"))

	return sb.String()
}

func simValue(axis robot.AxisName, s arm.State) string {
	switch axis {
	case robot.Rail:
		return fmt.Sprintf("x=%d", s.X)
	case robot.Lift:
		return fmt.Sprintf("depth=%d", s.CaptureDelta)
	case robot.Gripper:
		if s.CaptureOn {
			return "closed"
		}
		return "open"
	}
	return ""
}
