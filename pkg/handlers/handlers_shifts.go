package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/arnavshah/kitchen-planner-go/pkg/planner"
	"github.com/gin-gonic/gin"
)

type shiftRequest struct {
	ServiceID string       `json:"service_id"`
	Date      string       `json:"date"`
	Start     models.Clock `json:"start"`
	End       models.Clock `json:"end"`
	Location  string       `json:"location"`
}

// CreatePreparatoryShift creates a preparatory shift
func (h *Handler) CreatePreparatoryShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.Planner.Shifts.CreatePreparatoryShift(date, req.Start, req.End, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondCreatedShift(c, id)
}

// CreateServiceShift creates a shift backing a service
func (h *Handler) CreateServiceShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.Planner.Shifts.CreateServiceShift(req.ServiceID, date, req.Start, req.End, req.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondCreatedShift(c, id)
}

// respondCreatedShift returns the new shift with any location clash as a warning
func (h *Handler) respondCreatedShift(c *gin.Context, id string) {
	shift, err := h.Planner.Shifts.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"shift":              shift,
		"location_conflicts": h.Detector.LocationConflicts(shift.Location, shift.Date, shift.StartTime, shift.EndTime, shift.ID),
	})
}

// CreateRecurringShifts creates preparatory shifts on the given weekdays of a date range
func (h *Handler) CreateRecurringShifts(c *gin.Context) {
	var req struct {
		From     string       `json:"from"`
		To       string       `json:"to"`
		Start    models.Clock `json:"start"`
		End      models.Clock `json:"end"`
		Location string       `json:"location"`
		Days     []string     `json:"days"`
		Group    bool         `json:"group"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := models.ParseDate(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := models.ParseDate(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := models.ParseWeekdays(req.Days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids, err := h.Planner.Shifts.CreateRecurringShifts(from, to, req.Start, req.End, req.Location, days)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"shift_ids": ids}
	if req.Group && len(ids) > 0 {
		groupID, err := h.Planner.Shifts.CreateShiftGroup(ids, true)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["group_id"] = groupID
	}
	c.JSON(http.StatusCreated, resp)
}

// ListShifts returns shifts filtered by date and location
func (h *Handler) ListShifts(c *gin.Context) {
	var filter planner.ShiftFilter
	if d := c.Query("date"); d != "" {
		date, err := models.ParseDate(d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Date = date
	}
	filter.Location = c.Query("location")
	c.JSON(http.StatusOK, gin.H{"shifts": h.Planner.Shifts.List(filter)})
}

// GetShift returns one shift
func (h *Handler) GetShift(c *gin.Context) {
	shift, err := h.Planner.Shifts.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shift)
}

// DeleteShift removes a shift nobody declared availability for
func (h *Handler) DeleteShift(c *gin.Context) {
	if err := h.Planner.Shifts.DeleteShift(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted"})
}

// StartShift marks a shift in progress
func (h *Handler) StartShift(c *gin.Context) {
	h.respondTransition(c, h.Planner.Shifts.StartShift(c.Param("id")))
}

// CompleteShift marks a shift completed
func (h *Handler) CompleteShift(c *gin.Context) {
	h.respondTransition(c, h.Planner.Shifts.CompleteShift(c.Param("id")))
}

// CancelShift cancels a shift with a reason
func (h *Handler) CancelShift(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondTransition(c, h.Planner.Shifts.CancelShift(c.Param("id"), req.Reason))
}

func (h *Handler) respondTransition(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	h.GetShift(c)
}

// AssignStaff puts an available staff member on a shift
func (h *Handler) AssignStaff(c *gin.Context) {
	var req struct {
		StaffID string `json:"staff_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	organizer := c.GetString("organizer")
	if err := h.Planner.Shifts.AssignStaff(c.Param("id"), req.StaffID, organizer); err != nil {
		respondError(c, err)
		return
	}
	h.GetShift(c)
}

// UnassignStaff takes a staff member off a shift
func (h *Handler) UnassignStaff(c *gin.Context) {
	if err := h.Planner.Shifts.UnassignStaff(c.Param("id"), c.Param("staffId")); err != nil {
		respondError(c, err)
		return
	}
	h.GetShift(c)
}

// CreateShiftGroup groups shifts so availability is declared once
func (h *Handler) CreateShiftGroup(c *gin.Context) {
	var req struct {
		ShiftIDs  []string `json:"shift_ids"`
		Recurring bool     `json:"recurring"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.Planner.Shifts.CreateShiftGroup(req.ShiftIDs, req.Recurring)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group_id": id})
}

// GetShiftGroup returns one shift group
func (h *Handler) GetShiftGroup(c *gin.Context) {
	g, err := h.Planner.Shifts.GetGroup(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// GetShiftProgress reports execution progress of a shift
func (h *Handler) GetShiftProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.Planner.Ledger.ShiftProgress(c.Param("id")))
}

// ListShiftAssignments returns a shift's assignments by ascending time estimate
func (h *Handler) ListShiftAssignments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assignments": h.Planner.Ledger.AssignmentsByShift(c.Param("id"))})
}

// SuggestCooks lists candidate cooks that can absorb the given minutes
func (h *Handler) SuggestCooks(c *gin.Context) {
	minutes, err := strconv.Atoi(c.Query("minutes"))
	if err != nil || minutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutes must be a positive integer"})
		return
	}
	var cooks []string
	for _, id := range strings.Split(c.Query("cooks"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cooks = append(cooks, id)
		}
	}
	suggestions, err := h.Detector.SuggestCooks(c.Param("id"), minutes, cooks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetFairness reports how evenly work is spread over the shift's cooks
func (h *Handler) GetFairness(c *gin.Context) {
	id := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"fairness_score": h.Detector.WorkloadFairness(id),
		"workloads":      h.Planner.Ledger.ShiftWorkloads(id),
	})
}

// GetLocationConflicts lists shifts at the same location overlapping this one
func (h *Handler) GetLocationConflicts(c *gin.Context) {
	shift, err := h.Planner.Shifts.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conflicts": h.Detector.LocationConflicts(shift.Location, shift.Date, shift.StartTime, shift.EndTime, shift.ID),
	})
}

// GetCookConflicts lists a staff member's shifts on a date and which of them overlap
func (h *Handler) GetCookConflicts(c *gin.Context) {
	staffID := c.Query("staff_id")
	if staffID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "staff_id is required"})
		return
	}
	date, err := models.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"shifts":   h.Detector.CheckCookScheduleConflicts(staffID, date),
		"overlaps": h.Detector.OverlappingShifts(staffID, date),
	})
}
