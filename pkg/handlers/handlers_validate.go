package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidateAssignment checks whether an assignment would be accepted, without committing it
func (h *Handler) ValidateAssignment(c *gin.Context) {
	var req struct {
		TaskID string `json:"task_id"`
		assignRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	invalid := func(msg string) {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": msg})
	}

	if h.Planner.Plan.IsConfirmed() {
		invalid("The plan is confirmed")
		return
	}
	if req.TimeEstimate <= 0 || req.Quantity <= 0 {
		invalid("time_estimate and quantity must be positive")
		return
	}
	task, err := h.Planner.Tasks.Get(req.TaskID)
	if err != nil {
		invalid("Unknown task: " + req.TaskID)
		return
	}
	if task.Split {
		invalid("Task is split; assign its parts instead")
		return
	}
	if task.Assigned {
		invalid("Task is already assigned")
		return
	}
	shift, err := h.Planner.Shifts.Get(req.ShiftID)
	if err != nil {
		invalid("Unknown shift: " + req.ShiftID)
		return
	}
	if !shift.HasItem(task.ID) && !h.Planner.Shifts.HasShiftCapacity(shift.ID) {
		invalid("Shift holds the maximum number of tasks")
		return
	}

	committed := h.Planner.Ledger.CookWorkload(req.CookID, req.ShiftID)
	limit := h.Planner.Ledger.MaxShiftMinutes()
	if committed+req.TimeEstimate > limit {
		invalid("Cook would exceed the shift workload")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"committed_minutes": committed,
			"remaining_minutes": limit - committed - req.TimeEstimate,
			"conflicts":         h.Detector.CheckCookScheduleConflicts(req.CookID, shift.Date),
		},
	})
}
