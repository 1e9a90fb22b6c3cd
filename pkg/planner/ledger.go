package planner

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/events"
	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/google/uuid"
)

// Ledger owns task assignments and enforces per-cook, per-shift workload capacity
type Ledger struct {
	mu          sync.RWMutex
	assignments map[string]*models.TaskAssignment
	byTask      map[string]string
	order       []string
	maxMinutes  int
	plan        *Plan
	tasks       *TaskRegistry
	shifts      *ShiftRegistry
	bus         *events.Bus
	now         func() time.Time
	newID       func() string
}

// NewLedger creates an empty ledger; maxMinutes caps a cook's committed minutes within one shift
func NewLedger(maxMinutes int, plan *Plan, tasks *TaskRegistry, shifts *ShiftRegistry, bus *events.Bus) *Ledger {
	if maxMinutes <= 0 {
		maxMinutes = DefaultLimits.MaxShiftMinutes
	}
	return &Ledger{
		assignments: make(map[string]*models.TaskAssignment),
		byTask:      make(map[string]string),
		maxMinutes:  maxMinutes,
		plan:        plan,
		tasks:       tasks,
		shifts:      shifts,
		bus:         bus,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// MaxShiftMinutes is the workload cap applied per cook and shift
func (l *Ledger) MaxShiftMinutes() int {
	return l.maxMinutes
}

// AssignTaskToCook binds a task to a cook within a shift
func (l *Ledger) AssignTaskToCook(taskID, cookID, shiftID string, timeEstimate, quantity int) error {
	if err := requireIDs(map[string]string{"task id": taskID, "cook id": cookID, "shift id": shiftID}); err != nil {
		return err
	}
	if timeEstimate <= 0 {
		return validationf("time estimate must be positive, got %d", timeEstimate)
	}
	if quantity <= 0 {
		return validationf("quantity must be positive, got %d", quantity)
	}
	release, err := l.plan.acquire()
	if err != nil {
		return err
	}
	defer release()

	if _, err := l.tasks.Get(taskID); err != nil {
		return err
	}
	if !l.shifts.Exists(shiftID) {
		return notFoundf("shift %s", shiftID)
	}

	l.mu.Lock()
	if _, ok := l.byTask[taskID]; ok {
		l.mu.Unlock()
		return statef("task %s is already assigned; reassign it instead", taskID)
	}
	committed := l.workloadLocked(cookID, shiftID, "")
	if committed+timeEstimate > l.maxMinutes {
		l.mu.Unlock()
		return capacityf("cook %s has %d of %d minutes committed in shift %s, cannot add %d",
			cookID, committed, l.maxMinutes, shiftID, timeEstimate)
	}
	added, err := l.shifts.addItem(shiftID, taskID)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	err = l.tasks.update(taskID, func(t *models.Task) error {
		if t.Split {
			return statef("task %s is split; assign its parts instead", taskID)
		}
		if t.AssignedShift != "" && t.AssignedShift != shiftID {
			return statef("part %s is pinned to shift %s", taskID, t.AssignedShift)
		}
		t.Assigned = true
		return nil
	})
	if err != nil {
		if added {
			l.shifts.removeItem(shiftID, taskID)
		}
		l.mu.Unlock()
		return err
	}

	a := &models.TaskAssignment{
		ID:           l.newID(),
		TaskID:       taskID,
		CookID:       cookID,
		ShiftID:      shiftID,
		TimeEstimate: timeEstimate,
		Quantity:     quantity,
		Issues:       []string{},
		CreatedAt:    l.now().UTC(),
	}
	l.assignments[a.ID] = a
	l.byTask[taskID] = a.ID
	l.order = append(l.order, a.ID)
	l.mu.Unlock()

	l.bus.Emit(events.AssignmentCreated, a.ID, map[string]any{
		"task_id":       taskID,
		"cook_id":       cookID,
		"shift_id":      shiftID,
		"time_estimate": timeEstimate,
		"quantity":      quantity,
	})
	return nil
}

// ReassignTask moves an existing assignment to another cook and shift, keeping its identity
func (l *Ledger) ReassignTask(taskID, newCookID, newShiftID string) error {
	if err := requireIDs(map[string]string{"task id": taskID, "cook id": newCookID, "shift id": newShiftID}); err != nil {
		return err
	}
	release, err := l.plan.acquire()
	if err != nil {
		return err
	}
	defer release()

	l.mu.Lock()
	a, ok := l.assignmentLocked(taskID)
	if !ok {
		l.mu.Unlock()
		return notFoundf("assignment for task %s", taskID)
	}
	if a.Locked {
		l.mu.Unlock()
		return ErrPlanLocked
	}
	if a.CookID == newCookID && a.ShiftID == newShiftID {
		l.mu.Unlock()
		return nil
	}
	committed := l.workloadLocked(newCookID, newShiftID, a.ID)
	if committed+a.TimeEstimate > l.maxMinutes {
		l.mu.Unlock()
		return capacityf("cook %s has %d of %d minutes committed in shift %s, cannot move %d",
			newCookID, committed, l.maxMinutes, newShiftID, a.TimeEstimate)
	}
	oldCookID, oldShiftID := a.CookID, a.ShiftID
	if newShiftID != oldShiftID {
		added, err := l.shifts.addItem(newShiftID, taskID)
		if err != nil {
			l.mu.Unlock()
			return err
		}
		err = l.tasks.update(taskID, func(t *models.Task) error {
			if t.AssignedShift != "" {
				t.AssignedShift = newShiftID
			}
			return nil
		})
		if err != nil {
			if added {
				l.shifts.removeItem(newShiftID, taskID)
			}
			l.mu.Unlock()
			return err
		}
		l.shifts.removeItem(oldShiftID, taskID)
	}
	a.CookID = newCookID
	a.ShiftID = newShiftID
	id := a.ID
	l.mu.Unlock()

	l.bus.Emit(events.AssignmentMoved, id, map[string]any{
		"task_id":           taskID,
		"cook_id":           newCookID,
		"shift_id":          newShiftID,
		"previous_cook_id":  oldCookID,
		"previous_shift_id": oldShiftID,
	})
	return nil
}

// MarkTaskCompleted records that the cook finished the task
func (l *Ledger) MarkTaskCompleted(taskID, cookID string) error {
	l.mu.Lock()
	a, ok := l.assignmentLocked(taskID)
	if !ok || a.CookID != cookID {
		l.mu.Unlock()
		return notFoundf("assignment for task %s and cook %s", taskID, cookID)
	}
	if a.Completed {
		l.mu.Unlock()
		return nil
	}
	err := l.tasks.update(taskID, func(t *models.Task) error {
		t.Completed = true
		return nil
	})
	if err != nil {
		l.mu.Unlock()
		return err
	}
	now := l.now().UTC()
	a.Completed = true
	a.CompletedAt = &now
	id := a.ID
	l.mu.Unlock()

	l.bus.Emit(events.AssignmentCompleted, id, map[string]any{"task_id": taskID, "cook_id": cookID})
	return nil
}

// ReportTaskIssue appends a problem report to the cook's assignment
func (l *Ledger) ReportTaskIssue(taskID, cookID, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return validationf("issue description is required")
	}
	l.mu.Lock()
	a, ok := l.assignmentLocked(taskID)
	if !ok || a.CookID != cookID {
		l.mu.Unlock()
		return notFoundf("assignment for task %s and cook %s", taskID, cookID)
	}
	err := l.tasks.update(taskID, func(t *models.Task) error {
		t.HasIssues = true
		return nil
	})
	if err != nil {
		l.mu.Unlock()
		return err
	}
	a.Issues = append(a.Issues, description)
	id := a.ID
	l.mu.Unlock()

	l.bus.Emit(events.AssignmentIssue, id, map[string]any{"task_id": taskID, "cook_id": cookID, "issue": description})
	return nil
}

// Assignment returns the assignment of a task
func (l *Ledger) Assignment(taskID string) (models.TaskAssignment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.assignmentLocked(taskID)
	if !ok {
		return models.TaskAssignment{}, notFoundf("assignment for task %s", taskID)
	}
	return a.Clone(), nil
}

// All returns every assignment in creation order
func (l *Ledger) All() []models.TaskAssignment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.TaskAssignment, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.assignments[id].Clone())
	}
	return out
}

// AssignmentsByCook returns the cook's assignments ordered by shift id
func (l *Ledger) AssignmentsByCook(cookID string) []models.TaskAssignment {
	out := l.filter(func(a *models.TaskAssignment) bool { return a.CookID == cookID })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ShiftID != out[j].ShiftID {
			return out[i].ShiftID < out[j].ShiftID
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

// AssignmentsByShift returns the shift's assignments ordered by ascending time estimate
func (l *Ledger) AssignmentsByShift(shiftID string) []models.TaskAssignment {
	out := l.filter(func(a *models.TaskAssignment) bool { return a.ShiftID == shiftID })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimeEstimate != out[j].TimeEstimate {
			return out[i].TimeEstimate < out[j].TimeEstimate
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

// CookWorkload returns the minutes the cook has committed in the shift
func (l *Ledger) CookWorkload(cookID, shiftID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.workloadLocked(cookID, shiftID, "")
}

// ShiftWorkloads returns committed minutes per cook within the shift
func (l *Ledger) ShiftWorkloads(shiftID string) map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int)
	for _, a := range l.assignments {
		if a.ShiftID == shiftID {
			out[a.CookID] += a.TimeEstimate
		}
	}
	return out
}

// ShiftProgress summarizes execution of the shift's assignments
func (l *Ledger) ShiftProgress(shiftID string) models.ShiftProgress {
	return progressOf(l.AssignmentsByShift(shiftID))
}

// Stats summarizes execution across the whole ledger
func (l *Ledger) Stats() models.ShiftProgress {
	return progressOf(l.All())
}

func progressOf(assignments []models.TaskAssignment) models.ShiftProgress {
	completed, withIssues := 0, 0
	for _, a := range assignments {
		if a.Completed {
			completed++
		}
		if a.HasIssues() {
			withIssues++
		}
	}
	return models.NewShiftProgress(len(assignments), completed, withIssues)
}

func (l *Ledger) filter(keep func(a *models.TaskAssignment) bool) []models.TaskAssignment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.TaskAssignment
	for _, id := range l.order {
		if a := l.assignments[id]; keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

func (l *Ledger) assignmentLocked(taskID string) (*models.TaskAssignment, bool) {
	id, ok := l.byTask[taskID]
	if !ok {
		return nil, false
	}
	a, ok := l.assignments[id]
	return a, ok
}

// workloadLocked sums the cook's minutes in the shift, skipping the assignment with id skip
func (l *Ledger) workloadLocked(cookID, shiftID, skip string) int {
	total := 0
	for id, a := range l.assignments {
		if id != skip && a.CookID == cookID && a.ShiftID == shiftID {
			total += a.TimeEstimate
		}
	}
	return total
}

// setLocked flips the lock flag on every assignment and returns how many were touched
func (l *Ledger) setLocked(locked bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.assignments {
		a.Locked = locked
	}
	return len(l.assignments)
}

func requireIDs(ids map[string]string) error {
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(ids[name]) == "" {
			return validationf("%s is required", name)
		}
	}
	return nil
}
