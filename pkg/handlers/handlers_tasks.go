package handlers

import (
	"net/http"
	"strings"

	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"github.com/gin-gonic/gin"
)

type taskRequest struct {
	Description string `json:"description"`
}

// AddExtraTask registers an ad-hoc task
func (h *Handler) AddExtraTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.Planner.Tasks.AddExtraTask(req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// AddRecipeTask registers a critical recipe task
func (h *Handler) AddRecipeTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.Planner.Tasks.AddRecipeTask(req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListTasks returns tasks, optionally of a single kind
func (h *Handler) ListTasks(c *gin.Context) {
	kind := models.TaskKind(strings.ToUpper(c.Query("kind")))
	if kind != "" && !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task kind"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": h.Planner.Tasks.List(kind)})
}

// GetTask returns a task and its assignment when it has one
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.Planner.Tasks.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"task": task}
	if a, err := h.Planner.Ledger.Assignment(task.ID); err == nil {
		resp["assignment"] = a
	}
	c.JSON(http.StatusOK, resp)
}

// SplitPreparation splits a task into parts
func (h *Handler) SplitPreparation(c *gin.Context) {
	var req struct {
		Parts int `json:"parts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := h.Planner.Tasks.SplitPreparation(c.Param("id"), req.Parts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"part_ids": ids})
}

// PinPreparationPart pins a preparation part to a shift
func (h *Handler) PinPreparationPart(c *gin.Context) {
	var req struct {
		ShiftID string `json:"shift_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Planner.Tasks.AssignPreparationPartToShift(c.Param("id"), req.ShiftID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Part pinned to shift"})
}

type assignRequest struct {
	CookID       string `json:"cook_id"`
	ShiftID      string `json:"shift_id"`
	TimeEstimate int    `json:"time_estimate"`
	Quantity     int    `json:"quantity"`
}

// AssignTask assigns a task to a cook within a shift
func (h *Handler) AssignTask(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID := c.Param("id")
	err := h.Planner.Ledger.AssignTaskToCook(taskID, req.CookID, req.ShiftID, req.TimeEstimate, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	a, _ := h.Planner.Ledger.Assignment(taskID)

	// Overlaps do not block the assignment; the organizer gets them as warnings
	shift, _ := h.Planner.Shifts.Get(req.ShiftID)
	c.JSON(http.StatusCreated, gin.H{
		"assignment": a,
		"overlaps":   h.Detector.OverlappingShifts(req.CookID, shift.Date),
	})
}

// ReassignTask moves a task's assignment to another cook or shift
func (h *Handler) ReassignTask(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID := c.Param("id")
	if err := h.Planner.Ledger.ReassignTask(taskID, req.CookID, req.ShiftID); err != nil {
		respondError(c, err)
		return
	}
	a, _ := h.Planner.Ledger.Assignment(taskID)
	c.JSON(http.StatusOK, gin.H{"assignment": a})
}

// ListCookAssignments returns a cook's assignments ordered by shift
func (h *Handler) ListCookAssignments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assignments": h.Planner.Ledger.AssignmentsByCook(c.Param("id"))})
}
