package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openexam/examportal-backend/internal/middleware"
	"github.com/openexam/examportal-backend/internal/response"
	"github.com/openexam/examportal-backend/internal/service"
)

// DashboardHandler serves the student landing view.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// GET /api/v1/dashboard
// Papers for the caller's course joined with the caller's attempt history.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(c.Request.Context(), claims.UserID, claims.Course)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}
