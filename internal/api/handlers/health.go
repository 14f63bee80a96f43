// internal/api/handlers/health.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagesignal/backend/internal/health"
	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	checker *health.HealthChecker
	logger  *logrus.Logger
}

func NewHealthHandler(checker *health.HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// HandleHealth reports dependency health. Unauthenticated.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	overall := h.checker.CheckAll()

	status := http.StatusOK
	if overall.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, overall)
}
