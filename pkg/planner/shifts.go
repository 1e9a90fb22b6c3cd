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

// ShiftRegistry owns shifts, shift groups and per-shift staff availability
type ShiftRegistry struct {
	mu       sync.RWMutex
	shifts   map[string]*models.Shift
	groups   map[string]*models.ShiftGroup
	maxItems int
	bus      *events.Bus
	newID    func() string
}

// NewShiftRegistry creates an empty registry; maxItems bounds the items a shift may index
func NewShiftRegistry(maxItems int, bus *events.Bus) *ShiftRegistry {
	if maxItems <= 0 {
		maxItems = DefaultLimits.MaxShiftItems
	}
	return &ShiftRegistry{
		shifts:   make(map[string]*models.Shift),
		groups:   make(map[string]*models.ShiftGroup),
		maxItems: maxItems,
		bus:      bus,
		newID:    uuid.NewString,
	}
}

// CreatePreparatoryShift creates a scheduled preparatory shift
func (r *ShiftRegistry) CreatePreparatoryShift(date time.Time, start, end models.Clock, location string) (string, error) {
	return r.create(models.ShiftPreparatory, "", date, start, end, location)
}

// CreateServiceShift creates a scheduled shift backing a service
func (r *ShiftRegistry) CreateServiceShift(serviceID string, date time.Time, start, end models.Clock, location string) (string, error) {
	if strings.TrimSpace(serviceID) == "" {
		return "", validationf("service id is required")
	}
	return r.create(models.ShiftService, serviceID, date, start, end, location)
}

func validateWindow(start, end models.Clock, location string) error {
	if end <= start {
		return validationf("shift end %s must be after start %s", end, start)
	}
	if start < 0 || end > models.NewClock(24, 0) {
		return validationf("shift window %s-%s is outside the day", start, end)
	}
	if strings.TrimSpace(location) == "" {
		return validationf("shift location is required")
	}
	return nil
}

func (r *ShiftRegistry) create(kind models.ShiftKind, serviceID string, date time.Time, start, end models.Clock, location string) (string, error) {
	if err := validateWindow(start, end, location); err != nil {
		return "", err
	}
	r.mu.Lock()
	s := r.insertLocked(kind, serviceID, date, start, end, location)
	r.mu.Unlock()

	r.bus.Emit(events.ShiftCreated, s.ID, map[string]any{"kind": string(kind), "date": s.Date.Format("2006-01-02")})
	return s.ID, nil
}

func (r *ShiftRegistry) insertLocked(kind models.ShiftKind, serviceID string, date time.Time, start, end models.Clock, location string) *models.Shift {
	s := &models.Shift{
		ID:           r.newID(),
		Kind:         kind,
		ServiceID:    serviceID,
		Date:         models.Day(date),
		StartTime:    start,
		EndTime:      end,
		Location:     strings.TrimSpace(location),
		State:        models.ShiftScheduled,
		Availability: make(map[string]bool),
	}
	r.shifts[s.ID] = s
	return s
}

// CreateRecurringShifts creates one preparatory shift per day in [startDate, endDate]
// whose weekday is listed, returning the ids in date order
func (r *ShiftRegistry) CreateRecurringShifts(startDate, endDate time.Time, start, end models.Clock, location string, daysOfWeek []time.Weekday) ([]string, error) {
	if err := validateWindow(start, end, location); err != nil {
		return nil, err
	}
	first, last := models.Day(startDate), models.Day(endDate)
	if last.Before(first) {
		return nil, validationf("recurrence end %s is before start %s", last.Format("2006-01-02"), first.Format("2006-01-02"))
	}
	if len(daysOfWeek) == 0 {
		return nil, validationf("at least one weekday is required")
	}
	wanted := make(map[time.Weekday]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		wanted[d] = true
	}

	r.mu.Lock()
	var ids []string
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}
		s := r.insertLocked(models.ShiftPreparatory, "", day, start, end, location)
		ids = append(ids, s.ID)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.bus.Emit(events.ShiftCreated, id, map[string]any{"kind": string(models.ShiftPreparatory), "recurring": true})
	}
	return ids, nil
}

// CreateShiftGroup ties scheduled shifts together so availability is declared once for all of them
func (r *ShiftRegistry) CreateShiftGroup(shiftIDs []string, recurring bool) (string, error) {
	if len(shiftIDs) == 0 {
		return "", validationf("a shift group needs at least one shift")
	}
	r.mu.Lock()
	seen := make(map[string]bool, len(shiftIDs))
	members := make([]string, 0, len(shiftIDs))
	for _, id := range shiftIDs {
		s, ok := r.shifts[id]
		if !ok {
			r.mu.Unlock()
			return "", notFoundf("shift %s", id)
		}
		if !s.Modifiable() {
			r.mu.Unlock()
			return "", statef("shift %s is %s and cannot be grouped", id, s.State)
		}
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	g := &models.ShiftGroup{ID: r.newID(), ShiftIDs: members, Recurring: recurring}
	for _, id := range members {
		s := r.shifts[id]
		if s.GroupID != "" {
			r.leaveGroupLocked(s.GroupID, id)
		}
		s.GroupID = g.ID
	}
	r.groups[g.ID] = g
	r.mu.Unlock()

	r.bus.Emit(events.ShiftGrouped, g.ID, map[string]any{"shift_ids": members, "recurring": recurring})
	return g.ID, nil
}

func (r *ShiftRegistry) leaveGroupLocked(groupID, shiftID string) {
	g, ok := r.groups[groupID]
	if !ok {
		return
	}
	kept := g.ShiftIDs[:0]
	for _, id := range g.ShiftIDs {
		if id != shiftID {
			kept = append(kept, id)
		}
	}
	g.ShiftIDs = kept
	if len(g.ShiftIDs) == 0 {
		delete(r.groups, groupID)
	}
}

// fanOutLocked returns the shifts a per-shift write applies to: the whole group when grouped
func (r *ShiftRegistry) fanOutLocked(s *models.Shift) []*models.Shift {
	g, ok := r.groups[s.GroupID]
	if s.GroupID == "" || !ok {
		return []*models.Shift{s}
	}
	out := make([]*models.Shift, 0, len(g.ShiftIDs))
	for _, id := range g.ShiftIDs {
		if member, ok := r.shifts[id]; ok {
			out = append(out, member)
		}
	}
	return out
}

// AddAvailability records whether staffID can work the shift. Grouped shifts apply it group-wide.
func (r *ShiftRegistry) AddAvailability(shiftID, staffID string, available bool) error {
	if strings.TrimSpace(staffID) == "" {
		return validationf("staff id is required")
	}
	r.mu.Lock()
	s, ok := r.shifts[shiftID]
	if !ok {
		r.mu.Unlock()
		return notFoundf("shift %s", shiftID)
	}
	targets := r.fanOutLocked(s)
	ids := make([]string, len(targets))
	for i, t := range targets {
		t.Availability[staffID] = available
		ids[i] = t.ID
	}
	r.mu.Unlock()

	r.bus.Emit(events.ShiftAvailability, shiftID, map[string]any{"staff_id": staffID, "available": available, "shift_ids": ids})
	return nil
}

// RemoveAvailability forgets the staff member's declaration. Grouped shifts apply it group-wide.
func (r *ShiftRegistry) RemoveAvailability(shiftID, staffID string) error {
	r.mu.Lock()
	s, ok := r.shifts[shiftID]
	if !ok {
		r.mu.Unlock()
		return notFoundf("shift %s", shiftID)
	}
	targets := r.fanOutLocked(s)
	ids := make([]string, len(targets))
	for i, t := range targets {
		delete(t.Availability, staffID)
		ids[i] = t.ID
	}
	r.mu.Unlock()

	r.bus.Emit(events.ShiftAvailability, shiftID, map[string]any{"staff_id": staffID, "removed": true, "shift_ids": ids})
	return nil
}

// AssignStaff puts a staff member who declared availability on the shift
func (r *ShiftRegistry) AssignStaff(shiftID, staffID, organizerID string) error {
	r.mu.Lock()
	s, ok := r.shifts[shiftID]
	if !ok {
		r.mu.Unlock()
		return notFoundf("shift %s", shiftID)
	}
	if !s.Availability[staffID] {
		r.mu.Unlock()
		return statef("staff %s has not declared availability for shift %s", staffID, shiftID)
	}
	if s.State == models.ShiftCompleted || s.State == models.ShiftCancelled {
		r.mu.Unlock()
		return statef("shift %s is %s", shiftID, s.State)
	}
	if !s.IsAssigned(staffID) {
		s.AssignedStaff = append(s.AssignedStaff, staffID)
		sort.Strings(s.AssignedStaff)
	}
	r.mu.Unlock()

	r.bus.Emit(events.ShiftStaffAssigned, shiftID, map[string]any{"staff_id": staffID, "organizer_id": organizerID})
	return nil
}

// UnassignStaff takes a staff member off the shift
func (r *ShiftRegistry) UnassignStaff(shiftID, staffID string) error {
	r.mu.Lock()
	s, ok := r.shifts[shiftID]
	if !ok {
		r.mu.Unlock()
		return notFoundf("shift %s", shiftID)
	}
	if !s.IsAssigned(staffID) {
		r.mu.Unlock()
		return notFoundf("staff %s on shift %s", staffID, shiftID)
	}
	kept := s.AssignedStaff[:0]
	for _, id := range s.AssignedStaff {
		if id != staffID {
			kept = append(kept, id)
		}
	}
	s.AssignedStaff = kept
	r.mu.Unlock()

	r.bus.Emit(events.ShiftStaffAssigned, shiftID, map[string]any{"staff_id": staffID, "removed": true})
	return nil
}

// StartShift moves a scheduled shift to in progress
func (r *ShiftRegistry) StartShift(id string) error {
	return r.transition(id, models.ShiftInProgress, "")
}

// CompleteShift moves an in-progress shift to completed
func (r *ShiftRegistry) CompleteShift(id string) error {
	return r.transition(id, models.ShiftCompleted, "")
}

// CancelShift cancels a scheduled or in-progress shift
func (r *ShiftRegistry) CancelShift(id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return validationf("a cancellation reason is required")
	}
	return r.transition(id, models.ShiftCancelled, reason)
}

func (r *ShiftRegistry) transition(id string, next models.ShiftState, reason string) error {
	r.mu.Lock()
	s, ok := r.shifts[id]
	if !ok {
		r.mu.Unlock()
		return notFoundf("shift %s", id)
	}
	prev := s.State
	if !prev.CanTransition(next) {
		r.mu.Unlock()
		return statef("shift %s cannot go from %s to %s", id, prev, next)
	}
	s.State = next
	if next == models.ShiftCancelled {
		s.CancelReason = strings.TrimSpace(reason)
	}
	r.mu.Unlock()

	r.bus.Emit(events.ShiftStateChanged, id, map[string]any{"previous_state": string(prev), "new_state": string(next), "reason": reason})
	return nil
}

// HasShiftCapacity reports whether the shift can index another task or part
func (r *ShiftRegistry) HasShiftCapacity(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shifts[id]
	return ok && len(s.Items) < r.maxItems
}

// DeleteShift removes a shift with no recorded availability and no indexed items
func (r *ShiftRegistry) DeleteShift(id string) error {
	r.mu.Lock()
	s, ok := r.shifts[id]
	if !ok {
		r.mu.Unlock()
		return notFoundf("shift %s", id)
	}
	if len(s.Availability) > 0 {
		r.mu.Unlock()
		return statef("shift %s has %d availability entries", id, len(s.Availability))
	}
	if len(s.Items) > 0 {
		r.mu.Unlock()
		return statef("shift %s still holds %d tasks", id, len(s.Items))
	}
	if s.GroupID != "" {
		r.leaveGroupLocked(s.GroupID, id)
	}
	delete(r.shifts, id)
	r.mu.Unlock()

	r.bus.Emit(events.ShiftDeleted, id, nil)
	return nil
}

// Get returns a copy of the shift
func (r *ShiftRegistry) Get(id string) (models.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shifts[id]
	if !ok {
		return models.Shift{}, notFoundf("shift %s", id)
	}
	return s.Clone(), nil
}

// Exists reports whether the shift is known
func (r *ShiftRegistry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.shifts[id]
	return ok
}

// GetGroup returns a copy of the group
func (r *ShiftRegistry) GetGroup(id string) (models.ShiftGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return models.ShiftGroup{}, notFoundf("shift group %s", id)
	}
	out := *g
	out.ShiftIDs = append([]string{}, g.ShiftIDs...)
	return out, nil
}

// ShiftFilter narrows List. Zero fields match everything.
type ShiftFilter struct {
	Date     time.Time
	Location string
}

// List returns matching shifts ordered by start instant, then id
func (r *ShiftRegistry) List(filter ShiftFilter) []models.Shift {
	var day time.Time
	if !filter.Date.IsZero() {
		day = models.Day(filter.Date)
	}
	r.mu.RLock()
	out := make([]models.Shift, 0, len(r.shifts))
	for _, s := range r.shifts {
		if !day.IsZero() && !s.Date.Equal(day) {
			continue
		}
		if filter.Location != "" && !strings.EqualFold(s.Location, filter.Location) {
			continue
		}
		out = append(out, s.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start().Equal(out[j].Start()) {
			return out[i].Start().Before(out[j].Start())
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// addItem indexes a task or part on the shift and reports whether it was newly added.
// Already indexed ids are accepted as is.
func (r *ShiftRegistry) addItem(shiftID, itemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return false, notFoundf("shift %s", shiftID)
	}
	if s.HasItem(itemID) {
		return false, nil
	}
	if s.State == models.ShiftCompleted || s.State == models.ShiftCancelled {
		return false, statef("shift %s is %s", shiftID, s.State)
	}
	if len(s.Items) >= r.maxItems {
		return false, capacityf("shift %s already holds %d items", shiftID, len(s.Items))
	}
	s.Items = append(s.Items, itemID)
	return true, nil
}

func (r *ShiftRegistry) removeItem(shiftID, itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return
	}
	kept := s.Items[:0]
	for _, id := range s.Items {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	s.Items = kept
}
