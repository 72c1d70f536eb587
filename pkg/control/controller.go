// Package control drives the simulated arm: it owns the machine, runs
// programs on it and gates manual control while a program runs.
package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/armsim/pkg/arm"
	"github.com/gwillem/armsim/pkg/program"
)

// StateWriter receives every new arm state, e.g. a servo rig.
type StateWriter interface {
	WriteState(ctx context.Context, s arm.State) error
}

// Snapshot is everything needed to render the simulator.
type Snapshot struct {
	Arm             arm.State
	Bar             arm.ObjectBar
	Held            arm.Object
	Holding         bool
	Status          program.Status
	ControlsEnabled bool
	EffectPending   bool
	RunID           string
	ProgramName     string
	Steps           []program.Step // remaining repeats of the running program
	Current         int            // step taken last, -1 if none
	Timestamp       time.Time
}

// Config holds configuration for the controller.
type Config struct {
	Geometry arm.Geometry
	Bar      arm.ObjectBar // initial bins, DefaultObjectBar if nil
	Delay    time.Duration

	// HoldControlsUntilSettled keeps manual controls disabled after a run
	// completes until its last delayed effect has fired.
	HoldControlsUntilSettled bool

	Mirror    StateWriter
	Scheduler program.Scheduler // host timers, time.AfterFunc if nil
	Logger    logrus.FieldLogger
}

// Controller is the single owner of the arm machine. All mutations happen on
// the goroutine running Start; other goroutines post requests to it.
type Controller struct {
	machine *arm.Machine
	table   program.DispatchTable
	manual  program.DispatchTable
	delay   time.Duration
	hold    bool
	mirror  StateWriter
	clock   program.Scheduler
	logger  logrus.FieldLogger

	events  chan event
	stopped chan struct{}
	ctx     context.Context

	// Owned by the loop goroutine.
	exec           *program.Executor
	prog           program.Program
	runID          string
	status         program.Status
	done           chan struct{}
	advancePending bool
	effectsPending int
	mirrored       *arm.State

	mu      sync.RWMutex
	running bool
	snap    Snapshot
	stateCh chan Snapshot
	logCh   chan string
}

// NewController creates a controller with the machine in its default state.
func NewController(cfg Config) *Controller {
	if cfg.Geometry == (arm.Geometry{}) {
		cfg.Geometry = arm.DefaultGeometry()
	}
	if cfg.Bar == nil {
		cfg.Bar = arm.DefaultObjectBar()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = program.DefaultDelay
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = program.TimerScheduler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = stdLogger
	}

	m := arm.NewMachineWithBar(cfg.Geometry, cfg.Bar)
	manual := program.NewDispatchTable(m)
	manual[program.Capture] = program.Entry{Label: "Capture/Release", Effect: m.ToggleCapture}
	delete(manual, program.Drop)

	c := &Controller{
		machine: m,
		table:   program.NewDispatchTable(m),
		manual:  manual,
		delay:   cfg.Delay,
		hold:    cfg.HoldControlsUntilSettled,
		mirror:  cfg.Mirror,
		clock:   cfg.Scheduler,
		logger:  cfg.Logger.WithField("channel", "control"),
		events:  make(chan event, 16),
		stopped: make(chan struct{}),
		ctx:     context.Background(),
		stateCh: make(chan Snapshot, 1),
		logCh:   make(chan string, 10),
	}
	c.snap = c.snapshot()
	return c
}

// States returns a channel that receives a snapshot after every change.
func (c *Controller) States() <-chan Snapshot {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Delay returns the pause before each effectful program step.
func (c *Controller) Delay() time.Duration {
	return c.delay
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the event loop until ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	c.ctx = ctx
	c.publish()
	c.logger.Info("controller started")

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case ev := <-c.events:
			err := ev.fn()
			c.settle()
			if ev.reply != nil {
				ev.reply <- err
			}
		}
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	close(c.stopped)

	if c.status == program.Running {
		c.logger.WithField("run", c.runID).Warn("controller stopped during a run")
	}
	c.log("Controller stopped")
	c.logger.Info("controller stopped")
}

// event is a unit of work for the loop goroutine. The reply, if any, is sent
// after the resulting state has been published.
type event struct {
	fn    func() error
	reply chan error
}

// post queues ev for the loop goroutine.
func (c *Controller) post(ctx context.Context, ev event) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs f on the loop goroutine and waits for its result.
func (c *Controller) call(ctx context.Context, f func() error) error {
	reply := make(chan error, 1)
	if err := c.post(ctx, event{fn: f, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle runs after every event: it takes the pending program step, finishes
// a completed run and publishes the new state.
func (c *Controller) settle() {
	for c.advancePending {
		c.advancePending = false
		if c.exec != nil && c.exec.Status() == program.Running {
			c.exec.Step()
		}
	}

	c.writeMirror()
	c.publish()

	// Closed after publishing so waiters see the final snapshot.
	if c.status == program.Completed && c.done != nil && c.controlsEnabled() {
		close(c.done)
		c.done = nil
		c.log("Program finished")
		c.logger.WithFields(logrus.Fields{
			"run":     c.runID,
			"objects": c.machine.Total(),
		}).Info("controls enabled")
	}
}

func (c *Controller) controlsEnabled() bool {
	if c.status == program.Running {
		return false
	}
	return !c.hold || c.effectsPending == 0
}

func (c *Controller) writeMirror() {
	if c.mirror == nil {
		return
	}
	s := c.machine.State()
	if c.mirrored != nil && *c.mirrored == s {
		return
	}
	if err := c.mirror.WriteState(c.ctx, s); err != nil {
		c.log("Rig write error: %v", err)
		c.logger.WithError(err).Warn("rig write failed")
		return
	}
	c.mirrored = &s
}

func (c *Controller) snapshot() Snapshot {
	held, holding := c.machine.Held()
	s := Snapshot{
		Arm:             c.machine.State(),
		Bar:             c.machine.Bar(),
		Held:            held,
		Holding:         holding,
		Status:          c.status,
		ControlsEnabled: c.controlsEnabled(),
		EffectPending:   c.effectsPending > 0,
		RunID:           c.runID,
		ProgramName:     c.prog.Name,
		Current:         -1,
		Timestamp:       time.Now(),
	}
	if c.exec != nil {
		s.Steps = c.exec.Remaining()
		s.Current = c.exec.Current()
	}
	return s
}

func (c *Controller) publish() {
	s := c.snapshot()

	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()

	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

// Manual applies one manual command. Capture toggles the gripper. Commands
// are rejected while a program runs.
func (c *Controller) Manual(ctx context.Context, name program.ActionName) error {
	return c.call(ctx, func() error {
		if !c.controlsEnabled() {
			return ErrControlsDisabled
		}
		entry, ok := c.manual[name]
		if !ok {
			return errors.Wrapf(ErrUnknownCommand, "%q", name)
		}
		if entry.Effect != nil {
			entry.Effect()
		}
		c.logger.WithField("action", name).Debug("manual command")
		return nil
	})
}

// Run starts p and returns a channel that is closed once the run completed
// and manual controls are enabled again.
func (c *Controller) Run(ctx context.Context, p program.Program) (<-chan struct{}, error) {
	var done chan struct{}
	err := c.call(ctx, func() error {
		if c.status == program.Running || c.effectsPending > 0 {
			return ErrProgramRunning
		}
		if err := p.Validate(c.table); err != nil {
			return err
		}
		done = make(chan struct{})
		c.start(p, done)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

func (c *Controller) start(p program.Program, done chan struct{}) {
	c.prog = p.Clone()
	c.runID = uuid.Must(uuid.NewV4()).String()
	c.status = program.Running
	c.done = done

	logger := c.logger.WithFields(logrus.Fields{"run": c.runID, "program": p.Name})
	c.exec = program.NewExecutor(p, c.table, c.delay, loopScheduler{c},
		func() { c.onStepAdvance(logger) },
		func() { c.onComplete(logger) },
	)

	c.log("Running program %q", p.Name)
	logger.Info("program started")
	c.exec.Step()
}

func (c *Controller) onStepAdvance(logger logrus.FieldLogger) {
	if c.advancePending {
		logger.Warn("step advanced twice without a step in between")
		return
	}
	c.advancePending = true

	if c.exec != nil && c.exec.Status() == program.Running {
		i := c.exec.Current()
		logger.WithFields(logrus.Fields{
			"step":   i,
			"action": c.exec.Remaining()[i].Action,
		}).Debug("step done")
	}
}

func (c *Controller) onComplete(logger logrus.FieldLogger) {
	c.status = program.Completed
	logger.WithField("effectPending", c.effectsPending > 0).Info("program complete")
}

// loopScheduler delivers timer callbacks on the controller's loop goroutine.
type loopScheduler struct {
	c *Controller
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) {
	c := s.c
	c.effectsPending++
	c.clock.AfterFunc(d, func() {
		// The loop may have exited; the effect is dropped then.
		_ = c.post(context.Background(), event{fn: func() error {
			c.effectsPending--
			f()
			return nil
		}})
	})
}
