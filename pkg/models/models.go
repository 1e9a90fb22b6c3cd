package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskKind is the discriminant of a Task
type TaskKind string

const (
	KindRecipe          TaskKind = "RECIPE"
	KindExtra           TaskKind = "EXTRA"
	KindPreparationPart TaskKind = "PREPARATION_PART"
)

// Valid reports whether k is one of the known task kinds
func (k TaskKind) Valid() bool {
	switch k {
	case KindRecipe, KindExtra, KindPreparationPart:
		return true
	}
	return false
}

// Critical reports whether tasks of this kind must be assigned before the plan can be confirmed
func (k TaskKind) Critical() bool {
	return k == KindRecipe
}

// Task represents a unit of kitchen work
type Task struct {
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	Kind          TaskKind  `json:"kind"`
	Assigned      bool      `json:"assigned"`
	Completed     bool      `json:"completed"`
	HasIssues     bool      `json:"has_issues"`
	Split         bool      `json:"split"`
	PartIDs       []string  `json:"part_ids,omitempty"`
	ParentTaskID  string    `json:"parent_task_id,omitempty"`
	AssignedShift string    `json:"assigned_shift,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a copy that shares no slices with t
func (t Task) Clone() Task {
	t.PartIDs = append([]string(nil), t.PartIDs...)
	return t
}

// ShiftKind tells preparatory shifts apart from service shifts
type ShiftKind string

const (
	ShiftPreparatory ShiftKind = "PREPARATORY"
	ShiftService     ShiftKind = "SERVICE"
)

// ShiftState is the lifecycle state of a shift
type ShiftState string

const (
	ShiftScheduled  ShiftState = "SCHEDULED"
	ShiftInProgress ShiftState = "IN_PROGRESS"
	ShiftCompleted  ShiftState = "COMPLETED"
	ShiftCancelled  ShiftState = "CANCELLED"
)

// CanTransition reports whether a shift may move from s to next
func (s ShiftState) CanTransition(next ShiftState) bool {
	switch s {
	case ShiftScheduled:
		return next == ShiftInProgress || next == ShiftCancelled
	case ShiftInProgress:
		return next == ShiftCompleted || next == ShiftCancelled
	}
	return false
}

// Clock is a time of day in minutes since midnight
type Clock int

// NewClock builds a Clock from hours and minutes
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM"
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at which this clock time falls on the given day
func (c Clock) On(date time.Time) time.Time {
	return Day(date).Add(time.Duration(c) * time.Minute)
}

// MarshalText encodes the clock as "HH:MM"
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes "HH:MM"
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Day truncates t to its civil date at UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Shift represents a bounded work window
type Shift struct {
	ID            string          `json:"id"`
	Kind          ShiftKind       `json:"kind"`
	ServiceID     string          `json:"service_id,omitempty"`
	Date          time.Time       `json:"date"`
	StartTime     Clock           `json:"start_time"`
	EndTime       Clock           `json:"end_time"`
	Location      string          `json:"location"`
	State         ShiftState      `json:"state"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	GroupID       string          `json:"group_id,omitempty"`
	Availability  map[string]bool `json:"availability"`
	AssignedStaff []string        `json:"assigned_staff"`
	Items         []string        `json:"items"`
}

// Start is the instant the shift begins
func (s Shift) Start() time.Time {
	return s.StartTime.On(s.Date)
}

// End is the instant the shift ends
func (s Shift) End() time.Time {
	return s.EndTime.On(s.Date)
}

// Modifiable reports whether the shift has not started yet
func (s Shift) Modifiable() bool {
	return s.State == ShiftScheduled
}

// HasItem reports whether id is indexed on the shift
func (s Shift) HasItem(id string) bool {
	for _, it := range s.Items {
		if it == id {
			return true
		}
	}
	return false
}

// IsAssigned reports whether staffID is assigned to the shift
func (s Shift) IsAssigned(staffID string) bool {
	for _, id := range s.AssignedStaff {
		if id == staffID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of s
func (s Shift) Clone() Shift {
	avail := make(map[string]bool, len(s.Availability))
	for k, v := range s.Availability {
		avail[k] = v
	}
	s.Availability = avail
	s.AssignedStaff = append([]string{}, s.AssignedStaff...)
	s.Items = append([]string{}, s.Items...)
	return s
}

// ShiftGroup ties shifts that share availability declarations
type ShiftGroup struct {
	ID        string   `json:"id"`
	ShiftIDs  []string `json:"shift_ids"`
	Recurring bool     `json:"recurring"`
}

// TaskAssignment binds one task to one cook within one shift
type TaskAssignment struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	CookID       string     `json:"cook_id"`
	ShiftID      string     `json:"shift_id"`
	TimeEstimate int        `json:"time_estimate"`
	Quantity     int        `json:"quantity"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Issues       []string   `json:"issues"`
	Locked       bool       `json:"locked"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HasIssues reports whether any problem was reported against the assignment
func (a TaskAssignment) HasIssues() bool {
	return len(a.Issues) > 0
}

// Clone returns a deep copy of a
func (a TaskAssignment) Clone() TaskAssignment {
	a.Issues = append([]string{}, a.Issues...)
	if a.CompletedAt != nil {
		at := *a.CompletedAt
		a.CompletedAt = &at
	}
	return a
}

// ShiftProgress summarizes execution of the assignments in a shift
type ShiftProgress struct {
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	TasksWithIssues      int     `json:"tasks_with_issues"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// NewShiftProgress computes the percentage from the counters
func NewShiftProgress(total, completed, withIssues int) ShiftProgress {
	p := ShiftProgress{
		TotalTasks:      total,
		CompletedTasks:  completed,
		TasksWithIssues: withIssues,
	}
	if total > 0 {
		p.CompletionPercentage = 100 * float64(completed) / float64(total)
	}
	return p
}

// ShiftOverlap is a pair of shifts whose windows intersect
type ShiftOverlap struct {
	First  Shift `json:"first"`
	Second Shift `json:"second"`
}

// CookSuggestion is a cook that can absorb more work in a shift
type CookSuggestion struct {
	CookID           string `json:"cook_id"`
	CommittedMinutes int    `json:"committed_minutes"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// ParseDate parses a "2006-01-02" civil date
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekdays maps names like "monday" or "Mon" to weekdays
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		d, ok := weekdays[key]
		if !ok && len(key) >= 3 {
			for full, wd := range weekdays {
				if strings.HasPrefix(full, key) {
					d, ok = wd, true
					break
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		out = append(out, d)
	}
	return out, nil
}
