package program

import (
	"fmt"
	"time"
)

// Status of an executor run.
type Status int

const (
	Idle Status = iota
	Running
	Completed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules with time.AfterFunc. Callbacks run on their own
// goroutine.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Executor replays a private copy of a program, one repeat per Step call.
//
// Step must not be called again before onStepAdvance fired for the previous
// call. Completion is detected from the repeat counters as soon as the last
// repeat is taken, so onComplete may fire while the final effect is still
// waiting for its delay.
type Executor struct {
	prog  Program
	table DispatchTable
	delay time.Duration
	sched Scheduler

	onStepAdvance func()
	onComplete    func()

	status  Status
	current int
}

// NewExecutor copies p and returns an idle executor for it.
func NewExecutor(
	p Program,
	table DispatchTable,
	delay time.Duration,
	sched Scheduler,
	onStepAdvance, onComplete func(),
) *Executor {
	if sched == nil {
		sched = TimerScheduler{}
	}
	return &Executor{
		prog:          p.Clone(),
		table:         table,
		delay:         delay,
		sched:         sched,
		onStepAdvance: onStepAdvance,
		onComplete:    onComplete,
		current:       -1,
	}
}

// Step takes one repeat of the first step with repeats left and dispatches
// its effect. Steps after completion do nothing.
func (e *Executor) Step() {
	if e.status == Completed {
		return
	}
	e.status = Running

	for i := range e.prog.Actions {
		if e.prog.Actions[i].Value == 0 {
			continue
		}

		e.prog.Actions[i].Value--
		e.current = i
		e.dispatch(e.prog.Actions[i].Action)
		break
	}

	// A synchronous advance may have re-entered Step and completed the run.
	if e.status == Running && e.prog.Done() {
		e.status = Completed
		if e.onComplete != nil {
			e.onComplete()
		}
	}
}

func (e *Executor) dispatch(name ActionName) {
	entry, ok := e.table[name]
	if !ok {
		panic(fmt.Sprintf("program: no dispatch entry for action %q", name))
	}

	if entry.Effect == nil {
		e.advance()
		return
	}

	effect := entry.Effect
	e.sched.AfterFunc(e.delay, func() {
		effect()
		e.advance()
	})
}

func (e *Executor) advance() {
	if e.onStepAdvance != nil {
		e.onStepAdvance()
	}
}

// Status returns the run status.
func (e *Executor) Status() Status {
	return e.status
}

// Current returns the index of the step taken last, or -1 before the first
// Step.
func (e *Executor) Current() int {
	return e.current
}

// Remaining returns a copy of the steps with their remaining counts.
func (e *Executor) Remaining() []Step {
	return append([]Step(nil), e.prog.Actions...)
}
