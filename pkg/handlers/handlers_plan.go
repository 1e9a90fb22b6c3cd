package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/kitchen-planner-go/pkg/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPlan reports the plan state, overall progress and the last frozen snapshot
func (h *Handler) GetPlan(c *gin.Context) {
	resp := gin.H{
		"confirmed": h.Planner.Plan.IsConfirmed(),
		"stats":     h.Planner.Ledger.Stats(),
	}
	snap, err := database.LatestSnapshot(h.DB)
	switch {
	case err == nil:
		resp["snapshot"] = snap
	case !errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load plan snapshot"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPlan locks every assignment and stores the frozen schedule
func (h *Handler) ConfirmPlan(c *gin.Context) {
	frozen, changed, err := h.Planner.Plan.Confirm()
	if err != nil {
		respondError(c, err)
		return
	}

	// Already confirmed: point at the existing snapshot instead of writing another
	if !changed {
		resp := gin.H{"confirmed": true}
		latest, err := database.LatestSnapshot(h.DB)
		switch {
		case err == nil:
			resp["snapshot_id"] = latest.ID
			resp["assignments"] = len(latest.Assignments)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load plan snapshot"})
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	snap, err := database.SaveSnapshot(h.DB, c.GetString("organizer"), h.Now(), frozen)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Plan confirmed but the snapshot could not be stored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"confirmed":   true,
		"snapshot_id": snap.ID,
		"assignments": len(snap.Assignments),
	})
}

// ResetPlan returns the plan to draft
func (h *Handler) ResetPlan(c *gin.Context) {
	h.Planner.Plan.ResetPlan()
	c.JSON(http.StatusOK, gin.H{"confirmed": false})
}
