package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jwoo/shopflow-backend/internal/app/service"
	apperrors "github.com/jwoo/shopflow-backend/internal/errors"
	"github.com/jwoo/shopflow-backend/internal/middleware"
)

type AnalyticsController struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsController(analyticsService service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// GetUserStats returns purchase statistics for the authenticated user
// GET /api/analytics/user-stats
func (ctrl *AnalyticsController) GetUserStats(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to user stats")
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := ctrl.analyticsService.GetUserStats(userID)
	if err != nil {
		log.Error("Failed to compute user stats", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user stats")
		return
	}

	log.Info("User stats computed", map[string]interface{}{
		"user_id":      userID,
		"total_orders": stats.TotalOrders,
	})

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}
