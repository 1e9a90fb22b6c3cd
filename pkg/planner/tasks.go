package planner

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/events"
	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/google/uuid"
)

// TaskRegistry owns tasks and their split/part relationships
type TaskRegistry struct {
	mu     sync.RWMutex
	tasks  map[string]*models.Task
	order  []string
	plan   *Plan
	shifts *ShiftRegistry
	bus    *events.Bus
	now    func() time.Time
	newID  func() string
}

// NewTaskRegistry creates an empty registry guarded by plan
func NewTaskRegistry(plan *Plan, shifts *ShiftRegistry, bus *events.Bus) *TaskRegistry {
	return &TaskRegistry{
		tasks:  make(map[string]*models.Task),
		plan:   plan,
		shifts: shifts,
		bus:    bus,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// AddExtraTask registers an ad-hoc task
func (r *TaskRegistry) AddExtraTask(description string) (string, error) {
	return r.add(models.KindExtra, description)
}

// AddRecipeTask registers a critical task handed over by menu management
func (r *TaskRegistry) AddRecipeTask(description string) (string, error) {
	return r.add(models.KindRecipe, description)
}

func (r *TaskRegistry) add(kind models.TaskKind, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", validationf("task description is required")
	}
	release, err := r.plan.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	r.mu.Lock()
	t := r.insertLocked(kind, description, "")
	r.mu.Unlock()

	r.bus.Emit(events.TaskCreated, t.ID, map[string]any{"kind": string(kind)})
	return t.ID, nil
}

func (r *TaskRegistry) insertLocked(kind models.TaskKind, description, parentID string) *models.Task {
	t := &models.Task{
		ID:           r.newID(),
		Description:  description,
		Kind:         kind,
		ParentTaskID: parentID,
		CreatedAt:    r.now().UTC(),
	}
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t
}

// SplitPreparation decomposes a task into independently schedulable parts
func (r *TaskRegistry) SplitPreparation(taskID string, parts int) ([]string, error) {
	if parts <= 1 {
		return nil, validationf("a preparation must be split into at least 2 parts, got %d", parts)
	}
	release, err := r.plan.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	r.mu.Lock()
	original, ok := r.tasks[taskID]
	if !ok {
		r.mu.Unlock()
		return nil, notFoundf("task %s", taskID)
	}
	if original.Split {
		r.mu.Unlock()
		return nil, statef("task %s is already split", taskID)
	}
	if original.Assigned {
		r.mu.Unlock()
		return nil, statef("task %s is assigned to a cook and cannot be split", taskID)
	}

	ids := make([]string, 0, parts)
	for i := 1; i <= parts; i++ {
		desc := fmt.Sprintf("%s (Part %d/%d)", original.Description, i, parts)
		part := r.insertLocked(models.KindPreparationPart, desc, taskID)
		ids = append(ids, part.ID)
	}
	original.Split = true
	original.PartIDs = append([]string(nil), ids...)
	r.mu.Unlock()

	r.bus.Emit(events.TaskSplit, taskID, map[string]any{"part_ids": ids})
	return append([]string(nil), ids...), nil
}

// AssignPreparationPartToShift pins a preparation part to a shift without naming a cook
func (r *TaskRegistry) AssignPreparationPartToShift(partID, shiftID string) error {
	release, err := r.plan.acquire()
	if err != nil {
		return err
	}
	defer release()

	r.mu.Lock()
	part, ok := r.tasks[partID]
	if !ok || part.Kind != models.KindPreparationPart {
		r.mu.Unlock()
		return notFoundf("preparation part %s", partID)
	}
	previous := part.AssignedShift
	if previous == shiftID {
		r.mu.Unlock()
		return nil
	}
	if part.Assigned {
		r.mu.Unlock()
		return statef("part %s is assigned to a cook; reassign it instead", partID)
	}
	if _, err := r.shifts.addItem(shiftID, partID); err != nil {
		r.mu.Unlock()
		return err
	}
	if previous != "" {
		r.shifts.removeItem(previous, partID)
	}
	part.AssignedShift = shiftID
	r.mu.Unlock()

	r.bus.Emit(events.TaskPinned, partID, map[string]any{"shift_id": shiftID, "previous_shift_id": previous})
	return nil
}

// Get returns a copy of the task
func (r *TaskRegistry) Get(id string) (models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, notFoundf("task %s", id)
	}
	return t.Clone(), nil
}

// List returns tasks in creation order, optionally restricted to one kind
func (r *TaskRegistry) List(kind models.TaskKind) []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		t := r.tasks[id]
		if kind != "" && t.Kind != kind {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// update applies fn to the task under the registry lock; an error from fn leaves the task untouched
func (r *TaskRegistry) update(id string, fn func(t *models.Task) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return notFoundf("task %s", id)
	}
	return fn(t)
}
