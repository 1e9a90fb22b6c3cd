package handlers

import (
	"net/http"

	"github.com/arnavshah/kitchen-planner-go/pkg/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeclareAvailability records whether the calling cook can work a shift
func (h *Handler) DeclareAvailability(c *gin.Context) {
	var req struct {
		Available *bool `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Available == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "available is required"})
		return
	}
	if err := h.Planner.Shifts.AddAvailability(c.Param("id"), c.GetString("cookID"), *req.Available); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"message": "Availability recorded"})
}

// WithdrawAvailability removes the calling cook's declaration
func (h *Handler) WithdrawAvailability(c *gin.Context) {
	if err := h.Planner.Shifts.RemoveAvailability(c.Param("id"), c.GetString("cookID")); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"message": "Availability removed"})
}

// ListMyAssignments returns the calling cook's assignments
func (h *Handler) ListMyAssignments(c *gin.Context) {
	h.RecordUsage(c, 0, 0)
	c.JSON(http.StatusOK, gin.H{"assignments": h.Planner.Ledger.AssignmentsByCook(c.GetString("cookID"))})
}

// CompleteTask marks the calling cook's task as done
func (h *Handler) CompleteTask(c *gin.Context) {
	if err := h.Planner.Ledger.MarkTaskCompleted(c.Param("id"), c.GetString("cookID")); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 1, 0)
	a, _ := h.Planner.Ledger.Assignment(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"assignment": a})
}

// ReportIssue attaches a problem report to the calling cook's task
func (h *Handler) ReportIssue(c *gin.Context) {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Planner.Ledger.ReportTaskIssue(c.Param("id"), c.GetString("cookID"), req.Description); err != nil {
		respondError(c, err)
		return
	}
	h.RecordUsage(c, 0, 1)
	a, _ := h.Planner.Ledger.Assignment(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"assignment": a})
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, completions, issues int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := h.Now().Format("2006-01-02")

	// Use OnConflict for a single-query upsert (supported by both Postgres and SQLite)
	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"completions":   gorm.Expr("completions + ?", completions),
			"issues":        gorm.Expr("issues + ?", issues),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		Completions:  completions,
		Issues:       issues,
	})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage)
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", apiKey.ID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRequests, totalCompletions, totalIssues int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalCompletions += int64(u.Completions)
		totalIssues += int64(u.Issues)
	}

	c.JSON(http.StatusOK, gin.H{
		"cook_id":       apiKey.CookID,
		"rate_limit":    apiKey.RateLimit,
		"last_used":     apiKey.LastUsed,
		"usage_history": usage,
		"totals": gin.H{
			"requests":    totalRequests,
			"completions": totalCompletions,
			"issues":      totalIssues,
		},
	})
}
