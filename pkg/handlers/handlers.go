package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/auth"
	"github.com/arnavshah/kitchen-planner-go/pkg/database"
	"github.com/arnavshah/kitchen-planner-go/pkg/planner"
	"github.com/arnavshah/kitchen-planner-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	AppName    = "Kitchen Planner API"
	AppVersion = "1.0.0"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB       *gorm.DB
	Auth     *auth.Service
	Planner  *planner.Planner
	Detector *scheduler.Detector
	Now      func() time.Time
}

// NewHandler wires a handler around a planner
func NewHandler(db *gorm.DB, authService *auth.Service, p *planner.Planner) *Handler {
	return &Handler{
		DB:       db,
		Auth:     authService,
		Planner:  p,
		Detector: scheduler.NewDetector(p.Shifts, p.Ledger),
		Now:      time.Now,
	}
}

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": AppName,
			"version": AppVersion,
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "plan_confirmed": h.Planner.Plan.IsConfirmed()})
	})
	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	// Planning Endpoints
	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.POST("/tasks/extra", h.AddExtraTask)
		api.POST("/tasks/recipe", h.AddRecipeTask)
		api.GET("/tasks", h.ListTasks)
		api.GET("/tasks/:id", h.GetTask)
		api.POST("/tasks/:id/split", h.SplitPreparation)
		api.POST("/tasks/:id/pin", h.PinPreparationPart)
		api.POST("/tasks/:id/assign", h.AssignTask)
		api.POST("/tasks/:id/reassign", h.ReassignTask)
		api.POST("/assignments/validate", h.ValidateAssignment)

		api.POST("/shifts/preparatory", h.CreatePreparatoryShift)
		api.POST("/shifts/service", h.CreateServiceShift)
		api.POST("/shifts/recurring", h.CreateRecurringShifts)
		api.GET("/shifts", h.ListShifts)
		api.GET("/shifts/:id", h.GetShift)
		api.DELETE("/shifts/:id", h.DeleteShift)
		api.POST("/shifts/:id/start", h.StartShift)
		api.POST("/shifts/:id/complete", h.CompleteShift)
		api.POST("/shifts/:id/cancel", h.CancelShift)
		api.POST("/shifts/:id/staff", h.AssignStaff)
		api.DELETE("/shifts/:id/staff/:staffId", h.UnassignStaff)
		api.GET("/shifts/:id/progress", h.GetShiftProgress)
		api.GET("/shifts/:id/assignments", h.ListShiftAssignments)
		api.GET("/shifts/:id/suggestions", h.SuggestCooks)
		api.GET("/shifts/:id/fairness", h.GetFairness)
		api.GET("/shifts/:id/location-conflicts", h.GetLocationConflicts)
		api.POST("/shift-groups", h.CreateShiftGroup)
		api.GET("/shift-groups/:id", h.GetShiftGroup)

		api.GET("/cooks/:id/assignments", h.ListCookAssignments)
		api.GET("/conflicts", h.GetCookConflicts)

		api.GET("/plan", h.GetPlan)
		api.POST("/plan/confirm", h.ConfirmPlan)
		api.POST("/plan/reset", h.ResetPlan)
	}

	// Kitchen client Endpoints
	kitchen := r.Group("/kitchen")
	kitchen.Use(h.APIKeyMiddleware())
	{
		kitchen.PUT("/shifts/:id/availability", h.DeclareAvailability)
		kitchen.DELETE("/shifts/:id/availability", h.WithdrawAvailability)
		kitchen.GET("/assignments", h.ListMyAssignments)
		kitchen.POST("/tasks/:id/complete", h.CompleteTask)
		kitchen.POST("/tasks/:id/issues", h.ReportIssue)
		kitchen.GET("/usage", h.GetMyUsage)
	}

	return r
}

// respondError maps planner errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, planner.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, planner.ErrPlanLocked):
		status = http.StatusLocked
	case errors.Is(err, planner.ErrCapacity), errors.Is(err, planner.ErrState):
		status = http.StatusConflict
	default:
		log.Printf("unexpected error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return token
}

// AuthMiddleware verifies the organizer JWT
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("organizer", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the cook's HMAC API key and tracks the key record
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		cookID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// Fetch or create API key record to track usage
		var apiKey database.APIKey
		err = h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:        key,
			KeyPreview: auth.KeyPreview(key),
			CookID:     cookID,
			RateLimit:  10000,
		}).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}
		now := h.Now()
		h.DB.Model(&apiKey).Update("last_used", &now)

		c.Set("apiKey", &apiKey)
		c.Set("cookID", cookID)
		c.Next()
	}
}

// Login handles organizer login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := auth.Authenticate(h.DB, req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key for a cook using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		CookID    string `json:"cook_id"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.CookID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cook_id is required"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := h.Auth.GenerateHMACKey(req.CookID)
	apiKey := database.APIKey{
		Key:        key,
		KeyPreview: auth.KeyPreview(key),
		CookID:     req.CookID,
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      apiKey.ID,
		"cook_id": req.CookID,
		"key":     key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	h.DB.Order("id asc").Find(&keys)
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}
