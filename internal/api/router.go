// internal/api/router.go
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pagesignal/backend/internal/api/handlers"
	"github.com/pagesignal/backend/internal/middleware"
	"github.com/pagesignal/backend/internal/services"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the HTTP surface. All API routes sit behind bearer
// authentication; per-project scope checks happen in the handlers where
// the project is known.
func NewRouter(
	formHandler *handlers.FormHandler,
	responseHandler *handlers.ResponseHandler,
	healthHandler *handlers.HealthHandler,
	acl *services.ACLService,
	rateLimiter *middleware.RateLimiter,
	logger *logrus.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	router.GET("/health", healthHandler.HandleHealth)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authenticate(acl, logger))

	// Core scope: form configuration reads
	v1.GET("/projects/:project/feedback-forms", formHandler.HandleListForms)
	v1.GET("/projects/:project/feedback-forms/:form", formHandler.HandleGetForm)
	// The wildcard keeps the page path literal, trailing slashes included.
	v1.GET("/projects/:project/resolve-form/*path", formHandler.HandleResolveForm)

	// Submit scope: response writes, rate limited per client IP
	submit := v1.Group("")
	submit.Use(rateLimiter.RateLimit())
	submit.POST("/responses", responseHandler.HandleCreateResponse)
	submit.POST("/prompt-responses", responseHandler.HandleCreatePromptResponse)

	// Explore scope: response reads
	v1.GET("/responses", responseHandler.HandleListResponses)
	v1.GET("/responses/:response", responseHandler.HandleGetResponse)
	v1.GET("/prompt-responses", responseHandler.HandleListPromptResponses)
	v1.GET("/prompt-responses/:promptResponse", responseHandler.HandleGetPromptResponse)

	return router
}
