package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock(t *testing.T) {
	c, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, NewClock(7, 45), c)
	assert.Equal(t, "07:45", c.String())

	_, err = ParseClock("7pm")
	assert.Error(t, err)

	day := time.Date(2025, 1, 6, 22, 10, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 6, 7, 45, 0, 0, time.UTC), c.On(day))

	var payload struct {
		Start Clock `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"18:30"}`), &payload))
	assert.Equal(t, NewClock(18, 30), payload.Start)
	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"18:30"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"noon"}`), &payload))
}

func TestShiftStateTransitions(t *testing.T) {
	allowed := map[ShiftState][]ShiftState{
		ShiftScheduled:  {ShiftInProgress, ShiftCancelled},
		ShiftInProgress: {ShiftCompleted, ShiftCancelled},
	}
	all := []ShiftState{ShiftScheduled, ShiftInProgress, ShiftCompleted, ShiftCancelled}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTaskKind(t *testing.T) {
	assert.True(t, KindRecipe.Critical())
	assert.False(t, KindExtra.Critical())
	assert.False(t, KindPreparationPart.Critical())
	assert.True(t, KindPreparationPart.Valid())
	assert.False(t, TaskKind("DESSERT").Valid())
}

func TestShiftProgress(t *testing.T) {
	assert.Equal(t, ShiftProgress{}, NewShiftProgress(0, 0, 0))

	p := NewShiftProgress(4, 1, 3)
	assert.Equal(t, 4, p.TotalTasks)
	assert.Equal(t, 1, p.CompletedTasks)
	assert.Equal(t, 3, p.TasksWithIssues)
	assert.Equal(t, 25.0, p.CompletionPercentage)
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"Monday", "wed", " FRI ", "saturday"})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Saturday}, days)

	_, err = ParseWeekdays([]string{"mo"})
	assert.Error(t, err)
	_, err = ParseWeekdays([]string{"funday"})
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-01-20 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("20/01/2025")
	assert.Error(t, err)
}

func TestCloneDetaches(t *testing.T) {
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	a := TaskAssignment{Issues: []string{"late"}, CompletedAt: &at}
	c := a.Clone()
	c.Issues[0] = "changed"
	*c.CompletedAt = at.Add(time.Hour)
	assert.Equal(t, "late", a.Issues[0])
	assert.Equal(t, at, *a.CompletedAt)

	task := Task{PartIDs: []string{"p1"}}
	tc := task.Clone()
	tc.PartIDs[0] = "p2"
	assert.Equal(t, "p1", task.PartIDs[0])
}
