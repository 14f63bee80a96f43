// internal/api/handlers/responses.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagesignal/backend/internal/middleware"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/pagesignal/backend/internal/services"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

type ResponseHandler struct {
	submission  *services.SubmissionService
	acl         *services.ACLService
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger
}

func NewResponseHandler(
	submission *services.SubmissionService,
	acl *services.ACLService,
	repoManager *repository.RepositoryManager,
	logger *logrus.Logger,
) *ResponseHandler {
	return &ResponseHandler{
		submission:  submission,
		acl:         acl,
		repoManager: repoManager,
		logger:      logger,
	}
}

// HandleCreateResponse creates a feedback response together with the
// answer to the form's first prompt.
func (h *ResponseHandler) HandleCreateResponse(c *gin.Context) {
	var req models.CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	// The project is derived from the form; the grant is checked against it.
	form, err := h.repoManager.FeedbackForm.GetByID(req.FeedbackForm)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	policy := middleware.PolicyFromContext(c)
	if err := h.acl.RequireProjectRole(policy, form.ProjectID, models.APIRoleSubmit); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	result, err := h.submission.CreateResponse(&req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Response created", result)
}

// HandleCreatePromptResponse appends one answer to an existing response.
func (h *ResponseHandler) HandleCreatePromptResponse(c *gin.Context) {
	var req models.CreatePromptResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	response, err := h.repoManager.Response.GetByID(req.Response)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	policy := middleware.PolicyFromContext(c)
	if err := h.acl.RequireProjectRole(policy, response.FeedbackForm.ProjectID, models.APIRoleSubmit); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	result, err := h.submission.AppendPromptResponse(&req)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Prompt response created", result)
}

// HandleListResponses lists response summaries across the caller's granted
// projects, optionally narrowed by project or feedback form.
func (h *ResponseHandler) HandleListResponses(c *gin.Context) {
	policy := middleware.PolicyFromContext(c)

	projectIDs := policy.ProjectIDsWithRole(models.APIRoleExplore)
	if projectFilter := c.Query("project"); projectFilter != "" {
		// An explicit project filter outside the caller's grants is a
		// scope violation, not an empty list.
		if err := h.acl.RequireProjectRole(policy, projectFilter, models.APIRoleExplore); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		projectIDs = []string{projectFilter}
	}

	responses, err := h.repoManager.Response.ListByProjects(projectIDs, c.Query("feedback_form"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list responses")
		utils.DomainErrorResponse(c, err)
		return
	}

	summaries := make([]models.ResponseSummary, 0, len(responses))
	for i := range responses {
		summaries = append(summaries, responses[i].Summary())
	}

	utils.SuccessResponse(c, http.StatusOK, "Responses retrieved", summaries)
}

// HandleGetResponse returns one response with its full answer chain. A
// response outside the caller's grants reads as not found so existence
// never leaks across projects.
func (h *ResponseHandler) HandleGetResponse(c *gin.Context) {
	responseID := c.Param("response")
	if !utils.IsValidUUID(responseID) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("response not found"))
		return
	}

	response, err := h.repoManager.Response.GetByID(responseID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	policy := middleware.PolicyFromContext(c)
	if !policy.HasProjectRole(response.FeedbackForm.ProjectID, models.APIRoleExplore) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("response not found"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Response retrieved", response.Represent())
}

// HandleListPromptResponses lists individual answers across the caller's
// granted projects with optional filters.
func (h *ResponseHandler) HandleListPromptResponses(c *gin.Context) {
	policy := middleware.PolicyFromContext(c)

	projectIDs := policy.ProjectIDsWithRole(models.APIRoleExplore)
	filter := models.PromptResponseFilter{
		FeedbackFormID: c.Query("feedback_form"),
		PromptID:       c.Query("prompt"),
		ResponseID:     c.Query("response"),
	}

	if projectFilter := c.Query("project"); projectFilter != "" {
		if err := h.acl.RequireProjectRole(policy, projectFilter, models.APIRoleExplore); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		filter.ProjectID = projectFilter
	}

	promptResponses, err := h.repoManager.Response.ListPromptResponses(projectIDs, filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list prompt responses")
		utils.DomainErrorResponse(c, err)
		return
	}

	details := make([]models.PromptResponseDetail, 0, len(promptResponses))
	for i := range promptResponses {
		details = append(details, promptResponses[i].Represent())
	}

	utils.SuccessResponse(c, http.StatusOK, "Prompt responses retrieved", details)
}

// HandleGetPromptResponse returns one answer.
func (h *ResponseHandler) HandleGetPromptResponse(c *gin.Context) {
	promptResponseID := c.Param("promptResponse")
	if !utils.IsValidUUID(promptResponseID) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("prompt response not found"))
		return
	}

	promptResponse, err := h.repoManager.Response.GetPromptResponse(promptResponseID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	response, err := h.repoManager.Response.GetByID(promptResponse.ResponseID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	policy := middleware.PolicyFromContext(c)
	if !policy.HasProjectRole(response.FeedbackForm.ProjectID, models.APIRoleExplore) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("prompt response not found"))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Prompt response retrieved", promptResponse.Represent())
}
