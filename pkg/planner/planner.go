package planner

import (
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/events"
)

// Limits are the business bounds the planner enforces
type Limits struct {
	// MaxShiftMinutes caps the minutes one cook may commit within one shift.
	// It stands in for an eight hour shift and does not look at the shift's own window.
	MaxShiftMinutes int
	// MaxShiftItems caps the tasks and parts one shift may index.
	MaxShiftItems int
}

// DefaultLimits are 480 minutes per cook and shift and 10 items per shift
var DefaultLimits = Limits{
	MaxShiftMinutes: 480,
	MaxShiftItems:   10,
}

// Planner wires the registries, the ledger and the plan state machine for one running system
type Planner struct {
	Bus    *events.Bus
	Tasks  *TaskRegistry
	Shifts *ShiftRegistry
	Ledger *Ledger
	Plan   *PlanMachine
}

// Option customizes a Planner
type Option func(*Planner)

// WithClock makes every component stamp times with now
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.Bus.Now = now
		p.Tasks.now = now
		p.Ledger.now = now
	}
}

// WithIDs makes every component draw ids from newID
func WithIDs(newID func() string) Option {
	return func(p *Planner) {
		p.Tasks.newID = newID
		p.Shifts.newID = newID
		p.Ledger.newID = newID
	}
}

// WithOrderCheck installs the execution-order check run before confirmation
func WithOrderCheck(check OrderCheck) Option {
	return func(p *Planner) {
		p.Plan.SetOrderCheck(check)
	}
}

// New builds a planner. Zero limits fall back to DefaultLimits.
func New(limits Limits, opts ...Option) *Planner {
	if limits.MaxShiftMinutes <= 0 {
		limits.MaxShiftMinutes = DefaultLimits.MaxShiftMinutes
	}
	if limits.MaxShiftItems <= 0 {
		limits.MaxShiftItems = DefaultLimits.MaxShiftItems
	}
	bus := events.NewBus()
	plan := NewPlan()
	shifts := NewShiftRegistry(limits.MaxShiftItems, bus)
	tasks := NewTaskRegistry(plan, shifts, bus)
	ledger := NewLedger(limits.MaxShiftMinutes, plan, tasks, shifts, bus)

	p := &Planner{
		Bus:    bus,
		Tasks:  tasks,
		Shifts: shifts,
		Ledger: ledger,
		Plan:   NewPlanMachine(plan, tasks, ledger, bus),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
