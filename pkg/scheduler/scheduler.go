package scheduler

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/arnavshah/kitchen-planner-go/pkg/planner"
)

// ShiftSource is the read side of the shift registry
type ShiftSource interface {
	Get(id string) (models.Shift, error)
	List(filter planner.ShiftFilter) []models.Shift
}

// AssignmentSource is the read side of the assignment ledger
type AssignmentSource interface {
	AssignmentsByCook(cookID string) []models.TaskAssignment
	ShiftWorkloads(shiftID string) map[string]int
	MaxShiftMinutes() int
}

// Detector answers double-booking questions over shifts and assignments. It never mutates.
type Detector struct {
	Shifts      ShiftSource
	Assignments AssignmentSource
}

// NewDetector creates a detector over the given sources
func NewDetector(shifts ShiftSource, assignments AssignmentSource) *Detector {
	return &Detector{
		Shifts:      shifts,
		Assignments: assignments,
	}
}

// HasOverlap checks if two half-open time ranges overlap
func HasOverlap(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// DurationMinutes is the length of a shift's window
func DurationMinutes(shift models.Shift) int {
	return int(shift.End().Sub(shift.Start()).Minutes())
}

// CheckCookScheduleConflicts returns every shift on date where staffID is assigned as staff,
// has declared availability, or holds a task assignment. Callers decide whether to block.
func (d *Detector) CheckCookScheduleConflicts(staffID string, date time.Time) []models.Shift {
	withTasks := make(map[string]bool)
	for _, a := range d.Assignments.AssignmentsByCook(staffID) {
		withTasks[a.ShiftID] = true
	}

	var out []models.Shift
	for _, s := range d.Shifts.List(planner.ShiftFilter{Date: date}) {
		if s.IsAssigned(staffID) || s.Availability[staffID] || withTasks[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// OverlappingShifts returns the pairs among the staff member's shifts on date whose windows overlap
func (d *Detector) OverlappingShifts(staffID string, date time.Time) []models.ShiftOverlap {
	shifts := d.CheckCookScheduleConflicts(staffID, date)
	var out []models.ShiftOverlap
	for i := 0; i < len(shifts); i++ {
		for j := i + 1; j < len(shifts); j++ {
			a, b := shifts[i], shifts[j]
			if HasOverlap(a.Start(), a.End(), b.Start(), b.End()) {
				out = append(out, models.ShiftOverlap{First: a, Second: b})
			}
		}
	}
	return out
}

// LocationConflicts returns the live shifts at location whose window overlaps start-end on date
func (d *Detector) LocationConflicts(location string, date time.Time, start, end models.Clock, excludeID string) []models.Shift {
	from, to := start.On(date), end.On(date)
	var out []models.Shift
	for _, s := range d.Shifts.List(planner.ShiftFilter{Date: date}) {
		if s.ID == excludeID || s.State == models.ShiftCancelled {
			continue
		}
		if !strings.EqualFold(s.Location, strings.TrimSpace(location)) {
			continue
		}
		if HasOverlap(from, to, s.Start(), s.End()) {
			out = append(out, s)
		}
	}
	return out
}

// wouldOverlap checks if the cook already works another shift overlapping target
func (d *Detector) wouldOverlap(cookID string, target models.Shift) bool {
	for _, a := range d.Assignments.AssignmentsByCook(cookID) {
		if a.ShiftID == target.ID {
			continue
		}
		other, err := d.Shifts.Get(a.ShiftID)
		if err != nil || other.State == models.ShiftCancelled {
			continue
		}
		if HasOverlap(other.Start(), other.End(), target.Start(), target.End()) {
			return true
		}
	}
	return false
}

// SuggestCooks returns the candidates that can absorb minutes more work in the shift,
// least loaded first. Cooks booked on an overlapping shift are left out.
func (d *Detector) SuggestCooks(shiftID string, minutes int, candidates []string) ([]models.CookSuggestion, error) {
	shift, err := d.Shifts.Get(shiftID)
	if err != nil {
		return nil, err
	}
	limit := d.Assignments.MaxShiftMinutes()
	workloads := d.Assignments.ShiftWorkloads(shiftID)

	seen := make(map[string]bool, len(candidates))
	var out []models.CookSuggestion
	for _, cookID := range candidates {
		if cookID == "" || seen[cookID] {
			continue
		}
		seen[cookID] = true
		committed := workloads[cookID]
		if committed+minutes > limit || d.wouldOverlap(cookID, shift) {
			continue
		}
		out = append(out, models.CookSuggestion{
			CookID:           cookID,
			CommittedMinutes: committed,
			RemainingMinutes: limit - committed,
		})
	}

	// Pick the least loaded first to balance load
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CommittedMinutes != out[j].CommittedMinutes {
			return out[i].CommittedMinutes < out[j].CommittedMinutes
		}
		return out[i].CookID < out[j].CookID
	})
	return out, nil
}

// WorkloadFairness returns a percentage (0-100) representing how evenly
// minutes are spread among the cooks of a shift. 100% is perfectly fair (Standard Deviation = 0).
func (d *Detector) WorkloadFairness(shiftID string) float64 {
	workloads := d.Assignments.ShiftWorkloads(shiftID)
	if len(workloads) == 0 {
		return 100.0
	}

	var sum float64
	for _, m := range workloads {
		sum += float64(m)
	}
	mean := sum / float64(len(workloads))

	var varianceSum float64
	for _, m := range workloads {
		diff := float64(m) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(workloads)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
