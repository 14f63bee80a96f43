// internal/api/handlers/forms.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagesignal/backend/internal/database"
	"github.com/pagesignal/backend/internal/middleware"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/pagesignal/backend/internal/services"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

const formDetailCacheTTL = 5 * time.Minute

// coreRoles may read form configuration (the Core scope of the API).
var coreRoles = []models.APIRole{models.APIRoleSubmit, models.APIRoleExplore}

type FormHandler struct {
	resolver    *services.FormResolver
	acl         *services.ACLService
	repoManager *repository.RepositoryManager
	cache       *database.Cache
	logger      *logrus.Logger
}

func NewFormHandler(
	resolver *services.FormResolver,
	acl *services.ACLService,
	repoManager *repository.RepositoryManager,
	cache *database.Cache,
	logger *logrus.Logger,
) *FormHandler {
	return &FormHandler{
		resolver:    resolver,
		acl:         acl,
		repoManager: repoManager,
		cache:       cache,
		logger:      logger,
	}
}

// HandleListForms returns all form summaries of a project.
func (h *FormHandler) HandleListForms(c *gin.Context) {
	projectID := c.Param("project")
	if !utils.IsValidUUID(projectID) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("project not found"))
		return
	}

	policy := middleware.PolicyFromContext(c)
	if err := h.acl.RequireProjectRole(policy, projectID, coreRoles...); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	forms, err := h.repoManager.FeedbackForm.ListByProject(projectID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list feedback forms")
		utils.DomainErrorResponse(c, err)
		return
	}

	summaries := make([]models.FeedbackFormSummary, 0, len(forms))
	for i := range forms {
		summaries = append(summaries, forms[i].Summary())
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback forms retrieved", summaries)
}

// HandleGetForm returns one form with its ordered prompts.
func (h *FormHandler) HandleGetForm(c *gin.Context) {
	projectID := c.Param("project")
	formID := c.Param("form")
	if !utils.IsValidUUID(projectID) || !utils.IsValidUUID(formID) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("feedback form not found"))
		return
	}

	policy := middleware.PolicyFromContext(c)
	if err := h.acl.RequireProjectRole(policy, projectID, coreRoles...); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	if h.cache != nil {
		var cached models.FeedbackFormDetail
		if found, err := h.cache.GetCachedFormDetail(c.Request.Context(), formID, &cached); err == nil && found {
			// Cache entries are keyed by form only; reject a stale hit
			// from another project.
			if cached.Project == projectID {
				utils.SuccessResponse(c, http.StatusOK, "Feedback form retrieved", cached)
				return
			}
		}
	}

	form, err := h.repoManager.FeedbackForm.GetDetail(projectID, formID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	detail := form.Represent()

	if h.cache != nil {
		if err := h.cache.CacheFormDetail(c.Request.Context(), formID, detail, formDetailCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache form detail")
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback form retrieved", detail)
}

// HandleResolveForm resolves the single feedback form configured for a
// page path. The path is the literal wildcard suffix of the request URL,
// so arbitrary segments and trailing slashes pass through untouched. An
// empty result is a normal outcome, not an error.
func (h *FormHandler) HandleResolveForm(c *gin.Context) {
	projectID := c.Param("project")
	path := c.Param("path")
	if !utils.IsValidUUID(projectID) {
		utils.DomainErrorResponse(c, models.NewNotFoundError("project not found"))
		return
	}

	policy := middleware.PolicyFromContext(c)
	if err := h.acl.RequireProjectRole(policy, projectID, coreRoles...); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	detail, err := h.resolver.Resolve(c.Request.Context(), projectID, path)
	if err != nil {
		h.logger.WithError(err).Error("Form resolution failed")
		utils.DomainErrorResponse(c, err)
		return
	}

	if detail == nil {
		utils.SuccessResponse(c, http.StatusOK, "No feedback form matches this path", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback form resolved", detail)
}
