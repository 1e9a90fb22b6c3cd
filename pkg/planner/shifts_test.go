package planner

import (
	"testing"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/events"
	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestScenario_RecurringMondays(t *testing.T) {
	p, _ := newTestPlanner(t)
	ids, err := p.Shifts.CreateRecurringShifts(date(2025, 1, 6), date(2025, 1, 20),
		models.NewClock(8, 0), models.NewClock(16, 0), "Kitchen", []time.Weekday{time.Monday})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	want := []time.Time{date(2025, 1, 6), date(2025, 1, 13), date(2025, 1, 20)}
	for i, id := range ids {
		s, err := p.Shifts.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want[i], s.Date)
		assert.Equal(t, models.ShiftPreparatory, s.Kind)
		assert.Equal(t, models.ShiftScheduled, s.State)
		assert.Equal(t, "08:00", s.StartTime.String())
	}
}

func TestCreateRecurringShifts_Validation(t *testing.T) {
	p, _ := newTestPlanner(t)
	start, end := models.NewClock(8, 0), models.NewClock(16, 0)
	mondays := []time.Weekday{time.Monday}

	_, err := p.Shifts.CreateRecurringShifts(date(2025, 1, 20), date(2025, 1, 6), start, end, "Kitchen", mondays)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Shifts.CreateRecurringShifts(date(2025, 1, 6), date(2025, 1, 20), start, end, "Kitchen", nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Shifts.CreateRecurringShifts(date(2025, 1, 6), date(2025, 1, 20), end, start, "Kitchen", mondays)
	assert.ErrorIs(t, err, ErrValidation)

	// a range with no matching weekday creates nothing
	ids, err := p.Shifts.CreateRecurringShifts(date(2025, 1, 7), date(2025, 1, 9), start, end, "Kitchen", mondays)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, p.Shifts.List(ShiftFilter{}))
}

func TestCreateShift_Validation(t *testing.T) {
	p, _ := newTestPlanner(t)
	day := date(2025, 1, 6)

	_, err := p.Shifts.CreatePreparatoryShift(day, models.NewClock(10, 0), models.NewClock(10, 0), "Kitchen")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Shifts.CreatePreparatoryShift(day, models.NewClock(10, 0), models.NewClock(25, 0), "Kitchen")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Shifts.CreatePreparatoryShift(day, models.NewClock(10, 0), models.NewClock(12, 0), " ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Shifts.CreateServiceShift("", day, models.NewClock(18, 0), models.NewClock(23, 0), "Dining room")
	assert.ErrorIs(t, err, ErrValidation)

	id, err := p.Shifts.CreateServiceShift("dinner-1", time.Date(2025, 1, 6, 15, 30, 0, 0, time.UTC),
		models.NewClock(18, 0), models.NewClock(23, 0), "Dining room")
	require.NoError(t, err)
	s, err := p.Shifts.Get(id)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftService, s.Kind)
	assert.Equal(t, "dinner-1", s.ServiceID)
	assert.Equal(t, day, s.Date)
	assert.Equal(t, time.Date(2025, 1, 6, 23, 0, 0, 0, time.UTC), s.End())
}

func TestShiftGroup_AvailabilityFansOut(t *testing.T) {
	p, rec := newTestPlanner(t)
	ids, err := p.Shifts.CreateRecurringShifts(date(2025, 1, 6), date(2025, 1, 20),
		models.NewClock(8, 0), models.NewClock(16, 0), "Kitchen", []time.Weekday{time.Monday})
	require.NoError(t, err)
	loner := newShift(t, p, date(2025, 1, 7))

	groupID, err := p.Shifts.CreateShiftGroup(ids, true)
	require.NoError(t, err)
	g, err := p.Shifts.GetGroup(groupID)
	require.NoError(t, err)
	assert.Equal(t, ids, g.ShiftIDs)
	assert.True(t, g.Recurring)

	require.NoError(t, p.Shifts.AddAvailability(ids[1], "cook1", true))
	for _, id := range ids {
		s, err := p.Shifts.Get(id)
		require.NoError(t, err)
		assert.Equal(t, groupID, s.GroupID)
		assert.True(t, s.Availability["cook1"], "shift %s", id)
	}
	s, err := p.Shifts.Get(loner)
	require.NoError(t, err)
	assert.Empty(t, s.Availability)

	require.NoError(t, p.Shifts.RemoveAvailability(ids[0], "cook1"))
	for _, id := range ids {
		s, err := p.Shifts.Get(id)
		require.NoError(t, err)
		_, declared := s.Availability["cook1"]
		assert.False(t, declared)
	}

	last := rec.Events()[len(rec.Events())-1]
	assert.Equal(t, events.ShiftAvailability, last.Type)
	assert.Equal(t, ids, last.Data["shift_ids"])
}

func TestShiftGroup_Failures(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := newShift(t, p, date(2025, 1, 6))
	b := newShift(t, p, date(2025, 1, 7))

	_, err := p.Shifts.CreateShiftGroup(nil, false)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Shifts.CreateShiftGroup([]string{a, "missing"}, false)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.Shifts.StartShift(b))
	_, err = p.Shifts.CreateShiftGroup([]string{a, b}, false)
	assert.ErrorIs(t, err, ErrState)

	s, err := p.Shifts.Get(a)
	require.NoError(t, err)
	assert.Empty(t, s.GroupID)
}

func TestShiftGroup_Regrouping(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := newShift(t, p, date(2025, 1, 6))
	b := newShift(t, p, date(2025, 1, 7))

	first, err := p.Shifts.CreateShiftGroup([]string{a, b, a}, false)
	require.NoError(t, err)
	g, err := p.Shifts.GetGroup(first)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, g.ShiftIDs)

	second, err := p.Shifts.CreateShiftGroup([]string{a}, false)
	require.NoError(t, err)
	g, err = p.Shifts.GetGroup(first)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, g.ShiftIDs)

	_, err = p.Shifts.CreateShiftGroup([]string{b}, false)
	require.NoError(t, err)
	_, err = p.Shifts.GetGroup(first)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.Shifts.GetGroup(second)
	assert.NoError(t, err)
}

func TestShiftLifecycle(t *testing.T) {
	p, rec := newTestPlanner(t)
	id := newShift(t, p, date(2025, 1, 6))

	assert.ErrorIs(t, p.Shifts.CompleteShift(id), ErrState)
	require.NoError(t, p.Shifts.StartShift(id))
	assert.ErrorIs(t, p.Shifts.StartShift(id), ErrState)
	require.NoError(t, p.Shifts.CompleteShift(id))
	assert.ErrorIs(t, p.Shifts.CancelShift(id, "storm"), ErrState)

	other := newShift(t, p, date(2025, 1, 7))
	assert.ErrorIs(t, p.Shifts.CancelShift(other, ""), ErrValidation)
	require.NoError(t, p.Shifts.CancelShift(other, "power outage"))
	s, err := p.Shifts.Get(other)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftCancelled, s.State)
	assert.Equal(t, "power outage", s.CancelReason)

	assert.ErrorIs(t, p.Shifts.StartShift("missing"), ErrNotFound)

	// cancelled and completed shifts take no new work
	task, err := p.Tasks.AddExtraTask("Clean fryer")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Ledger.AssignTaskToCook(task, "cook1", other, 30, 1), ErrState)
	assert.ErrorIs(t, p.Ledger.AssignTaskToCook(task, "cook1", id, 30, 1), ErrState)

	var changes int
	for _, e := range rec.Events() {
		if e.Type == events.ShiftStateChanged {
			changes++
		}
	}
	assert.Equal(t, 3, changes)
}

func TestAssignStaff(t *testing.T) {
	p, _ := newTestPlanner(t)
	id := newShift(t, p, date(2025, 1, 6))

	assert.ErrorIs(t, p.Shifts.AssignStaff(id, "cook1", "admin"), ErrState)
	require.NoError(t, p.Shifts.AddAvailability(id, "cook1", false))
	assert.ErrorIs(t, p.Shifts.AssignStaff(id, "cook1", "admin"), ErrState)

	require.NoError(t, p.Shifts.AddAvailability(id, "cook2", true))
	require.NoError(t, p.Shifts.AddAvailability(id, "cook1", true))
	require.NoError(t, p.Shifts.AssignStaff(id, "cook2", "admin"))
	require.NoError(t, p.Shifts.AssignStaff(id, "cook1", "admin"))
	require.NoError(t, p.Shifts.AssignStaff(id, "cook1", "admin"))

	s, err := p.Shifts.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"cook1", "cook2"}, s.AssignedStaff)

	require.NoError(t, p.Shifts.UnassignStaff(id, "cook1"))
	assert.ErrorIs(t, p.Shifts.UnassignStaff(id, "cook1"), ErrNotFound)
	s, err = p.Shifts.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"cook2"}, s.AssignedStaff)

	assert.ErrorIs(t, p.Shifts.AddAvailability(id, "", true), ErrValidation)
	assert.ErrorIs(t, p.Shifts.AddAvailability("missing", "cook1", true), ErrNotFound)
}

func TestDeleteShift(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := newShift(t, p, date(2025, 1, 6))
	b := newShift(t, p, date(2025, 1, 7))
	c := newShift(t, p, date(2025, 1, 8))
	groupID, err := p.Shifts.CreateShiftGroup([]string{a, c}, false)
	require.NoError(t, err)

	require.NoError(t, p.Shifts.AddAvailability(b, "cook1", false))
	assert.ErrorIs(t, p.Shifts.DeleteShift(b), ErrState)
	require.NoError(t, p.Shifts.RemoveAvailability(b, "cook1"))

	task, err := p.Tasks.AddExtraTask("Mise en place")
	require.NoError(t, err)
	require.NoError(t, p.Ledger.AssignTaskToCook(task, "cook1", b, 30, 1))
	assert.ErrorIs(t, p.Shifts.DeleteShift(b), ErrState)

	require.NoError(t, p.Shifts.DeleteShift(a))
	assert.False(t, p.Shifts.Exists(a))
	assert.ErrorIs(t, p.Shifts.DeleteShift(a), ErrNotFound)
	g, err := p.Shifts.GetGroup(groupID)
	require.NoError(t, err)
	assert.Equal(t, []string{c}, g.ShiftIDs)
}

func TestListShifts(t *testing.T) {
	p, _ := newTestPlanner(t)
	day := date(2025, 1, 6)
	late, err := p.Shifts.CreatePreparatoryShift(day, models.NewClock(14, 0), models.NewClock(18, 0), "Pastry")
	require.NoError(t, err)
	early, err := p.Shifts.CreatePreparatoryShift(day, models.NewClock(6, 0), models.NewClock(10, 0), "Kitchen")
	require.NoError(t, err)
	nextDay, err := p.Shifts.CreatePreparatoryShift(day.AddDate(0, 0, 1), models.NewClock(6, 0), models.NewClock(10, 0), "Kitchen")
	require.NoError(t, err)

	ids := func(shifts []models.Shift) []string {
		out := make([]string, len(shifts))
		for i, s := range shifts {
			out[i] = s.ID
		}
		return out
	}
	assert.Equal(t, []string{early, late, nextDay}, ids(p.Shifts.List(ShiftFilter{})))
	assert.Equal(t, []string{early, late}, ids(p.Shifts.List(ShiftFilter{Date: day.Add(13 * time.Hour)})))
	assert.Equal(t, []string{early, nextDay}, ids(p.Shifts.List(ShiftFilter{Location: "kitchen"})))
}

func TestShiftCopiesAreDetached(t *testing.T) {
	p, _ := newTestPlanner(t)
	id := newShift(t, p, date(2025, 1, 6))
	require.NoError(t, p.Shifts.AddAvailability(id, "cook1", true))

	s, err := p.Shifts.Get(id)
	require.NoError(t, err)
	s.Availability["cook1"] = false
	s.Items = append(s.Items, "ghost")

	fresh, err := p.Shifts.Get(id)
	require.NoError(t, err)
	assert.True(t, fresh.Availability["cook1"])
	assert.Empty(t, fresh.Items)
}
