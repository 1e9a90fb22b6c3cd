package scheduler

import (
	"testing"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/arnavshah/kitchen-planner-go/pkg/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*planner.Planner, *Detector) {
	t.Helper()
	p := planner.New(planner.DefaultLimits)
	return p, NewDetector(p.Shifts, p.Ledger)
}

func mustShift(t *testing.T, p *planner.Planner, day time.Time, from, to models.Clock, location string) string {
	t.Helper()
	id, err := p.Shifts.CreatePreparatoryShift(day, from, to, location)
	require.NoError(t, err)
	return id
}

func mustAssign(t *testing.T, p *planner.Planner, cookID, shiftID string, minutes int) string {
	t.Helper()
	id, err := p.Tasks.AddExtraTask("prep for " + shiftID)
	require.NoError(t, err)
	require.NoError(t, p.Ledger.AssignTaskToCook(id, cookID, shiftID, minutes, 1))
	return id
}

func TestHasOverlap(t *testing.T) {
	at := func(h int) time.Time { return monday.Add(time.Duration(h) * time.Hour) }
	assert.True(t, HasOverlap(at(8), at(12), at(11), at(14)))
	assert.True(t, HasOverlap(at(8), at(12), at(9), at(10)))
	assert.False(t, HasOverlap(at(8), at(12), at(12), at(14)), "touching windows do not overlap")
	assert.False(t, HasOverlap(at(14), at(16), at(8), at(12)))
}

func TestCheckCookScheduleConflicts(t *testing.T) {
	p, d := setup(t)
	morning := mustShift(t, p, monday, models.NewClock(6, 0), models.NewClock(12, 0), "Kitchen")
	lunch := mustShift(t, p, monday, models.NewClock(11, 0), models.NewClock(15, 0), "Kitchen")
	evening := mustShift(t, p, monday, models.NewClock(17, 0), models.NewClock(23, 0), "Kitchen")
	tuesday := mustShift(t, p, monday.AddDate(0, 0, 1), models.NewClock(6, 0), models.NewClock(12, 0), "Kitchen")

	require.NoError(t, p.Shifts.AddAvailability(morning, "cook1", true))
	require.NoError(t, p.Shifts.AssignStaff(morning, "cook1", "admin"))
	require.NoError(t, p.Shifts.AddAvailability(evening, "cook1", false))
	require.NoError(t, p.Shifts.AddAvailability(tuesday, "cook1", true))
	mustAssign(t, p, "cook1", lunch, 60)

	got := d.CheckCookScheduleConflicts("cook1", monday)
	require.Len(t, got, 2)
	assert.Equal(t, morning, got[0].ID)
	assert.Equal(t, lunch, got[1].ID)

	assert.Empty(t, d.CheckCookScheduleConflicts("cook2", monday))

	overlaps := d.OverlappingShifts("cook1", monday)
	require.Len(t, overlaps, 1)
	assert.Equal(t, morning, overlaps[0].First.ID)
	assert.Equal(t, lunch, overlaps[0].Second.ID)
}

func TestLocationConflicts(t *testing.T) {
	p, d := setup(t)
	a := mustShift(t, p, monday, models.NewClock(8, 0), models.NewClock(12, 0), "Kitchen")
	b := mustShift(t, p, monday, models.NewClock(10, 0), models.NewClock(14, 0), "Kitchen")
	mustShift(t, p, monday, models.NewClock(10, 0), models.NewClock(14, 0), "Pastry")
	cancelled := mustShift(t, p, monday, models.NewClock(9, 0), models.NewClock(11, 0), "kitchen")
	require.NoError(t, p.Shifts.CancelShift(cancelled, "no covers"))

	got := d.LocationConflicts("KITCHEN", monday, models.NewClock(11, 0), models.NewClock(13, 0), "")
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].ID)
	assert.Equal(t, b, got[1].ID)

	got = d.LocationConflicts("Kitchen", monday, models.NewClock(11, 0), models.NewClock(13, 0), a)
	require.Len(t, got, 1)
	assert.Equal(t, b, got[0].ID)

	assert.Empty(t, d.LocationConflicts("Kitchen", monday, models.NewClock(14, 0), models.NewClock(16, 0), ""))
}

func TestSuggestCooks(t *testing.T) {
	p, d := setup(t)
	target := mustShift(t, p, monday, models.NewClock(8, 0), models.NewClock(16, 0), "Kitchen")
	clash := mustShift(t, p, monday, models.NewClock(15, 0), models.NewClock(20, 0), "Pastry")

	mustAssign(t, p, "busy", target, 450)
	mustAssign(t, p, "half", target, 240)
	mustAssign(t, p, "elsewhere", clash, 30)

	got, err := d.SuggestCooks(target, 60, []string{"half", "busy", "fresh", "elsewhere", "fresh", ""})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.CookSuggestion{CookID: "fresh", CommittedMinutes: 0, RemainingMinutes: 480}, got[0])
	assert.Equal(t, models.CookSuggestion{CookID: "half", CommittedMinutes: 240, RemainingMinutes: 240}, got[1])

	_, err = d.SuggestCooks("missing", 60, []string{"fresh"})
	assert.ErrorIs(t, err, planner.ErrNotFound)
}

func TestWorkloadFairness(t *testing.T) {
	p, d := setup(t)
	even := mustShift(t, p, monday, models.NewClock(8, 0), models.NewClock(16, 0), "Kitchen")
	uneven := mustShift(t, p, monday, models.NewClock(8, 0), models.NewClock(16, 0), "Pastry")

	assert.Equal(t, 100.0, d.WorkloadFairness(even))

	mustAssign(t, p, "cook1", even, 120)
	mustAssign(t, p, "cook2", even, 120)
	assert.Equal(t, 100.0, d.WorkloadFairness(even))

	mustAssign(t, p, "cook1", uneven, 300)
	mustAssign(t, p, "cook2", uneven, 100)
	// mean 200, standard deviation 100
	assert.InDelta(t, 50.0, d.WorkloadFairness(uneven), 1e-9)
}

func TestDurationMinutes(t *testing.T) {
	s := models.Shift{Date: monday, StartTime: models.NewClock(6, 30), EndTime: models.NewClock(14, 0)}
	assert.Equal(t, 450, DurationMinutes(s))
}
