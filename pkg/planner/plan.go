package planner

import (
	"sync"

	"github.com/arnavshah/kitchen-planner-go/pkg/events"
	"github.com/arnavshah/kitchen-planner-go/pkg/models"
)

// Plan is the draft/confirmed gate shared by every plan-guarded write.
// Writers hold the read side while they mutate; confirm and reset hold the write side.
type Plan struct {
	mu        sync.RWMutex
	confirmed bool
}

// NewPlan creates a plan in draft state
func NewPlan() *Plan {
	return &Plan{}
}

// IsConfirmed reports whether the plan is currently confirmed
func (p *Plan) IsConfirmed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.confirmed
}

// acquire enters a plan-guarded write. The returned func must be called once the write is done.
func (p *Plan) acquire() (func(), error) {
	p.mu.RLock()
	if p.confirmed {
		p.mu.RUnlock()
		return nil, ErrPlanLocked
	}
	return p.mu.RUnlock, nil
}

// OrderCheck inspects the schedule before confirmation and returns pending warnings
type OrderCheck func(tasks []models.Task, assignments []models.TaskAssignment) []string

// NoOrderWarnings never reports a warning
func NoOrderWarnings([]models.Task, []models.TaskAssignment) []string {
	return nil
}

// PlanMachine confirms and resets the task plan
type PlanMachine struct {
	plan       *Plan
	tasks      *TaskRegistry
	ledger     *Ledger
	bus        *events.Bus
	orderCheck OrderCheck
}

// NewPlanMachine wires the state machine to the registries it inspects
func NewPlanMachine(plan *Plan, tasks *TaskRegistry, ledger *Ledger, bus *events.Bus) *PlanMachine {
	return &PlanMachine{
		plan:       plan,
		tasks:      tasks,
		ledger:     ledger,
		bus:        bus,
		orderCheck: NoOrderWarnings,
	}
}

// SetOrderCheck replaces the execution-order check run on confirmation
func (m *PlanMachine) SetOrderCheck(check OrderCheck) {
	if check == nil {
		check = NoOrderWarnings
	}
	m.orderCheck = check
}

// IsConfirmed reports whether the plan is confirmed
func (m *PlanMachine) IsConfirmed() bool {
	return m.plan.IsConfirmed()
}

// ConfirmTaskPlan locks every assignment once all critical tasks are assigned.
// Confirming an already confirmed plan succeeds without changes.
func (m *PlanMachine) ConfirmTaskPlan() error {
	_, _, err := m.Confirm()
	return err
}

// Confirm is ConfirmTaskPlan that also returns the frozen assignments and whether
// this call moved the plan from draft to confirmed. The assignments are read before
// the plan gate is released, so a concurrent reset cannot interleave.
func (m *PlanMachine) Confirm() ([]models.TaskAssignment, bool, error) {
	m.plan.mu.Lock()
	if m.plan.confirmed {
		m.plan.mu.Unlock()
		return nil, false, nil
	}

	tasks := m.tasks.List("")
	if missing := unassignedCritical(tasks); len(missing) > 0 {
		m.plan.mu.Unlock()
		return nil, false, statef("%d critical tasks are not assigned: %v", len(missing), missing)
	}
	if warnings := m.orderCheck(tasks, m.ledger.All()); len(warnings) > 0 {
		m.plan.mu.Unlock()
		return nil, false, statef("execution order warnings pending: %v", warnings)
	}

	locked := m.ledger.setLocked(true)
	m.plan.confirmed = true
	frozen := m.ledger.All()
	m.plan.mu.Unlock()

	m.bus.Emit(events.PlanConfirmed, "", map[string]any{"locked_assignments": locked})
	return frozen, true, nil
}

// ResetPlan returns the plan to draft and unlocks every assignment
func (m *PlanMachine) ResetPlan() {
	m.plan.mu.Lock()
	wasConfirmed := m.plan.confirmed
	m.plan.confirmed = false
	unlocked := 0
	if wasConfirmed {
		unlocked = m.ledger.setLocked(false)
	}
	m.plan.mu.Unlock()

	m.bus.Emit(events.PlanReset, "", map[string]any{
		"was_confirmed":        wasConfirmed,
		"unlocked_assignments": unlocked,
	})
}

// unassignedCritical lists the ids of critical tasks that are not covered.
// A split task is covered when every one of its parts is assigned.
func unassignedCritical(tasks []models.Task) []string {
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	var missing []string
	for _, t := range tasks {
		if !t.Kind.Critical() || covered(t, byID) {
			continue
		}
		missing = append(missing, t.ID)
	}
	return missing
}

func covered(t models.Task, byID map[string]models.Task) bool {
	if t.Assigned {
		return true
	}
	if !t.Split || len(t.PartIDs) == 0 {
		return false
	}
	for _, id := range t.PartIDs {
		part, ok := byID[id]
		if !ok || !covered(part, byID) {
			return false
		}
	}
	return true
}
