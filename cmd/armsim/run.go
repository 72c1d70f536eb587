package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/armsim/pkg/arm"
	"github.com/gwillem/armsim/pkg/control"
	"github.com/gwillem/armsim/pkg/program"
	"github.com/gwillem/armsim/pkg/robot"
)

type RunCommand struct {
	Program  string `long:"program" short:"p" choice:"one" choice:"full" choice:"pick" description:"Load a predefined program, or pick/build one interactively"`
	File     string `long:"file" short:"f" description:"Load a program from a YAML file"`
	DelayMS  int    `long:"delay" description:"Delay between program steps in ms (default from config, else 500)"`
	Hold     bool   `long:"hold" description:"Keep controls disabled until the last step has taken effect"`
	Rig      bool   `long:"rig" description:"Mirror the arm onto the configured servo rig"`
	Headless bool   `long:"headless" description:"Run the program without the TUI and print the final state"`
}

const (
	maxLogs     = 5  // number of log messages to show
	borderSize  = 2  // chart border
	chartHeight = 8  // rows of the position chart
	stepsWidth  = 22 // program panel width
)

// Series colors
var seriesColors = map[string]string{
	"rail":  "51",  // cyan
	"depth": "201", // magenta
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type simModel struct {
	ctrl     *control.Controller
	geom     arm.Geometry
	prog     program.Program
	chart    *streamlinechart.Model
	snap     control.Snapshot
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	quitting bool
	lastArm  *arm.State // track previous state to detect movement
	editor   stepEditor
}

func (m *simModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if the arm moved since the last state
func (m *simModel) hasMovement(s arm.State) bool {
	return m.lastArm == nil || *m.lastArm != s
}

// Messages from the controller
type stateMsg control.Snapshot
type logMsg string
type runDoneMsg struct{}
type errMsg struct{ err error }

func waitForState(ctrl *control.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *control.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func waitForRun(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return runDoneMsg{}
	}
}

func manualCmd(ctrl *control.Controller, name program.ActionName) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.Manual(context.Background(), name); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func runCmd(ctrl *control.Controller, p program.Program) tea.Cmd {
	return func() tea.Msg {
		done, err := ctrl.Run(context.Background(), p)
		if err != nil {
			return errMsg{err}
		}
		return waitForRun(done)()
	}
}

// chartWidth calculates the width of the chart based on terminal dimensions
func (m *simModel) chartWidth() int {
	if m.width == 0 {
		return 60 // default size before we know terminal size
	}
	return max(m.width-borderSize-2, 40)
}

func (m *simModel) resizeChart() {
	m.chart.Resize(m.chartWidth(), chartHeight)
}

func initialSimModel(ctrl *control.Controller, geom arm.Geometry, p program.Program) simModel {
	chart := streamlinechart.New(60, chartHeight,
		streamlinechart.WithYRange(0, 100),
	)

	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return simModel{
		ctrl:  ctrl,
		geom:  geom,
		prog:  p,
		chart: &chart,
		snap:  ctrl.Snapshot(),
	}
}

func (m simModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

// programKeys load a predefined program while no program runs.
var programKeys = map[string]string{
	"1": "one",
	"2": "full",
}

var manualKeys = map[string]program.ActionName{
	"left":  program.Left,
	"h":     program.Left,
	"right": program.Right,
	"l":     program.Right,
	"down":  program.Down,
	"j":     program.Down,
	"up":    program.Up,
	"k":     program.Up,
	" ":     program.Capture,
	"c":     program.Capture,
	"r":     program.Reset,
}

func (m simModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || (key == "q" && !m.editor.active) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.editor.active {
			m.prog = m.editor.update(m.prog, key)
			return m, nil
		}
		switch key {
		case "p", "enter":
			return m, runCmd(m.ctrl, m.prog)
		case "e":
			if m.snap.ControlsEnabled {
				m.editor.active = true
			}
			return m, nil
		}
		if name, ok := programKeys[key]; ok {
			if m.snap.ControlsEnabled {
				m.prog = program.Predefined()[name]
				m.editor.cursor = 0
				m.addLog(fmt.Sprintf("Loaded %q", m.prog.Name))
			}
			return m, nil
		}
		if name, ok := manualKeys[key]; ok {
			if !m.snap.ControlsEnabled {
				return m, nil
			}
			return m, manualCmd(m.ctrl, name)
		}

	case stateMsg:
		m.snap = control.Snapshot(msg)
		// Only update chart if there's movement (freeze when idle)
		if m.hasMovement(m.snap.Arm) {
			m.chart.PushDataSet("rail", percent(m.snap.Arm.X, m.geom.MaxX()))
			m.chart.PushDataSet("depth", percent(m.snap.Arm.CaptureDelta, m.geom.MaxCaptureLen))
			m.chart.DrawAll()
			s := m.snap.Arm
			m.lastArm = &s
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)

	case runDoneMsg:
		return m, nil

	case errMsg:
		m.addLog(disabledStyle.Render(msg.err.Error()))
		return m, nil
	}

	return m, nil
}

func percent(v, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(v) * 100 / float64(total)
}

func (m simModel) View() string {
	if m.quitting {
		return "Simulator stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("armsim"))
	sb.WriteString(" ")
	sb.WriteString(renderStatus(m.snap))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	if m.ctrl != nil {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  step delay %s", m.ctrl.Delay())))
	}
	sb.WriteString("\n\n")

	// Workspace and program side by side
	steps, current := m.prog.Actions, -1
	title := m.prog.Name
	switch {
	case m.editor.active:
		current = m.editor.cursor
		title += " (editing)"
	case m.snap.Status == program.Running && m.snap.Steps != nil:
		steps, current = m.snap.Steps, m.snap.Current
	}
	programPanel := lipgloss.NewStyle().Width(stepsWidth).Render(
		titleStyle.Render(title) + "\n" + renderSteps(steps, current),
	)
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(renderWorkspace(m.snap, m.geom)),
		panelStyle.Render(programPanel),
	))
	sb.WriteString("\n")

	// Chart
	sb.WriteString(panelStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend())
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(m.help()))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 40)).
		Height(maxLogs)

	sb.WriteString(logStyle.Render(strings.Join(m.logs, "\n")))
	sb.WriteString("\n")

	return sb.String()
}

func (m simModel) help() string {
	if m.editor.active {
		return "↑/↓ step  ←/→ action  +/- repeat  esc done"
	}
	return "←/→ move  ↑/↓ raise/lower  space capture  r reset  p run  1/2 load  e edit  q quit"
}

func renderStatus(s control.Snapshot) string {
	var parts []string
	switch s.Status {
	case program.Running:
		parts = append(parts, runningStyle.Render("RUNNING"))
	default:
		parts = append(parts, idleStyle.Render(strings.ToUpper(s.Status.String())))
	}
	if !s.ControlsEnabled {
		parts = append(parts, disabledStyle.Render("controls disabled"))
	}
	if s.EffectPending {
		parts = append(parts, statusStyle.Render("moving…"))
	}
	parts = append(parts, statusStyle.Render(fmt.Sprintf("x=%d depth=%d", s.Arm.X, s.Arm.CaptureDelta)))
	return strings.Join(parts, "  ")
}

func renderLegend() string {
	var items []string
	for _, name := range []string{"rail", "depth"} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) loadProgram() (program.Program, error) {
	switch {
	case c.File != "":
		return program.Load(c.File)
	case c.Program == "pick":
		return pickProgram()
	case c.Program != "":
		return program.Predefined()[c.Program], nil
	default:
		return program.OneDrop(), nil
	}
}

func (c *RunCommand) Execute(args []string) error {
	closeLog, err := setupLogging(!c.Headless)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer closeLog()

	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrapf(err, "load %s", opts.Config)
	}

	p, err := c.loadProgram()
	if err != nil {
		return errors.Wrap(err, "load program")
	}

	geom := arm.DefaultGeometry()
	ccfg := control.Config{
		Geometry:                 geom,
		Delay:                    cfg.Delay(),
		HoldControlsUntilSettled: cfg.HoldControlsUntilSettled || c.Hold,
	}
	if c.DelayMS > 0 {
		ccfg.Delay = time.Duration(c.DelayMS) * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.Rig {
		rig, err := openRig(ctx, cfg, geom)
		if err != nil {
			return err
		}
		defer closeRig(rig)
		ccfg.Mirror = rig
	}

	ctrl := control.NewController(ccfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Start(ctx)
	}()

	if c.Headless {
		err = runHeadless(ctx, ctrl, p)
	} else {
		_, err = tea.NewProgram(initialSimModel(ctrl, geom, p), tea.WithAltScreen()).Run()
		err = errors.Wrap(err, "run simulator")
	}

	cancel()
	if cerr := <-errCh; cerr != nil && cerr != context.Canceled {
		logrus.WithError(cerr).Warn("controller stopped with error")
	}
	return err
}

func openRig(ctx context.Context, cfg *robot.Config, geom arm.Geometry) (*robot.Rig, error) {
	if cfg.Rig.Port == "" || !cfg.Rig.IsCalibrated() {
		return nil, errors.New("rig not configured, run 'armsim setup' first")
	}
	rig, err := robot.NewRig(cfg.Rig.Port, cfg.Rig.Calibration, geom)
	if err != nil {
		return nil, err
	}
	if err := rig.Enable(ctx); err != nil {
		if cerr := rig.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close rig")
		}
		return nil, errors.Wrap(err, "enable rig")
	}
	return rig, nil
}

// closeRig releases the servos and the bus.
func closeRig(rig *robot.Rig) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rig.Disable(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not disable rig torque: %v\n", err)
		logrus.WithError(err).Warn("disable rig")
	}
	if err := rig.Close(); err != nil {
		logrus.WithError(err).Warn("close rig")
	}
}

func runHeadless(ctx context.Context, ctrl *control.Controller, p program.Program) error {
	fmt.Println(headerStyle.Render("armsim"), dimStyle.Render("running "+p.Name))

	done, err := ctrl.Run(ctx, p)
	if err != nil {
		return errors.Wrap(err, "start program")
	}
	<-done

	// Completion is reported before the last effect lands; wait for it.
	for ctrl.Snapshot().EffectPending {
		time.Sleep(10 * time.Millisecond)
	}

	s := ctrl.Snapshot()
	fmt.Println(successStyle.Render("Program complete"))
	fmt.Printf("  Position: x=%d depth=%d capture=%v\n", s.Arm.X, s.Arm.CaptureDelta, s.Arm.CaptureOn)
	if s.Holding {
		fmt.Printf("  Holding:  %s\n", s.Held)
	}
	fmt.Println(renderBins(s))
	return nil
}
