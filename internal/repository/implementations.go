package repository

import (
	"errors"
	"fmt"

	"github.com/pagesignal/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderedPrompts(db *gorm.DB) *gorm.DB {
	return db.Order("prompts.order_index ASC")
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("prompt_options.value ASC")
}

func orderedChain(db *gorm.DB) *gorm.DB {
	return db.Order("prompt_responses.sequence ASC")
}

// ProjectRepositoryImpl implements ProjectRepository
type ProjectRepositoryImpl struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) models.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *ProjectRepositoryImpl) GetByID(id string) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(fmt.Sprintf("project id=%s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FeedbackFormRepositoryImpl implements FeedbackFormRepository
type FeedbackFormRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackFormRepository(db *gorm.DB) models.FeedbackFormRepository {
	return &FeedbackFormRepositoryImpl{db: db}
}

func (r *FeedbackFormRepositoryImpl) Create(form *models.FeedbackForm) error {
	return r.db.Create(form).Error
}

func (r *FeedbackFormRepositoryImpl) CreatePrompt(prompt *models.Prompt) error {
	return r.db.Create(prompt).Error
}

func (r *FeedbackFormRepositoryImpl) CreatePromptOption(option *models.PromptOption) error {
	return r.db.Create(option).Error
}

func (r *FeedbackFormRepositoryImpl) CreatePathPattern(pattern *models.PathPattern) error {
	return r.db.Create(pattern).Error
}

func (r *FeedbackFormRepositoryImpl) GetDetail(projectID, formID string) (*models.FeedbackForm, error) {
	var form models.FeedbackForm
	err := r.db.Preload("Prompts", orderedPrompts).
		Preload("Prompts.Options", orderedOptions).
		Where("project_id = ?", projectID).
		First(&form, "id = ?", formID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(fmt.Sprintf("feedback form id=%s not found", formID))
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *FeedbackFormRepositoryImpl) GetByID(formID string) (*models.FeedbackForm, error) {
	var form models.FeedbackForm
	err := r.db.Preload("Prompts", orderedPrompts).
		Preload("Prompts.Options", orderedOptions).
		First(&form, "id = ?", formID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(fmt.Sprintf("feedback form id=%s not found", formID))
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *FeedbackFormRepositoryImpl) ListByProject(projectID string) ([]models.FeedbackForm, error) {
	var forms []models.FeedbackForm
	err := r.db.Preload("Prompts", orderedPrompts).
		Preload("Prompts.Options", orderedOptions).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&forms).Error
	return forms, err
}

func (r *FeedbackFormRepositoryImpl) ActivePatternsByProject(projectID string) ([]models.PathPattern, error) {
	var patterns []models.PathPattern
	err := r.db.
		Joins("JOIN feedback_forms ON feedback_forms.id = path_patterns.feedback_form_id").
		Where("path_patterns.project_id = ? AND feedback_forms.enabled", projectID).
		Find(&patterns).Error
	return patterns, err
}

// ResponseRepositoryImpl implements ResponseRepository
type ResponseRepositoryImpl struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) models.ResponseRepository {
	return &ResponseRepositoryImpl{db: db}
}

func (r *ResponseRepositoryImpl) CreateWithFirstPrompt(response *models.Response, first *models.PromptResponse) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}
		first.ResponseID = response.ID
		return tx.Create(first).Error
	})
}

func (r *ResponseRepositoryImpl) Append(responseID string, build func(response *models.Response, existing []models.PromptResponse) (*models.PromptResponse, error)) (*models.PromptResponse, error) {
	var created *models.PromptResponse

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the parent row so concurrent appends to the same response
		// serialize here.
		var response models.Response
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&response, "id = ?", responseID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError(fmt.Sprintf("response id=%s not found", responseID))
		}
		if err != nil {
			return err
		}

		if err := tx.Preload("Prompts", orderedPrompts).
			Preload("Prompts.Options", orderedOptions).
			First(&response.FeedbackForm, "id = ?", response.FeedbackFormID).Error; err != nil {
			return err
		}

		var existing []models.PromptResponse
		if err := tx.Where("response_id = ?", responseID).
			Order("sequence ASC").
			Find(&existing).Error; err != nil {
			return err
		}

		promptResponse, err := build(&response, existing)
		if err != nil {
			return err
		}

		if err := tx.Create(promptResponse).Error; err != nil {
			return err
		}
		created = promptResponse
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ResponseRepositoryImpl) GetByID(id string) (*models.Response, error) {
	var response models.Response
	err := r.db.Preload("FeedbackForm").
		Preload("PromptResponses", orderedChain).
		Preload("PromptResponses.Prompt").
		Preload("PromptResponses.Prompt.Options", orderedOptions).
		Preload("PromptResponses.Option").
		First(&response, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(fmt.Sprintf("response id=%s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *ResponseRepositoryImpl) ListByProjects(projectIDs []string, feedbackFormID string) ([]models.Response, error) {
	if len(projectIDs) == 0 {
		return []models.Response{}, nil
	}

	query := r.db.
		Joins("JOIN feedback_forms ON feedback_forms.id = responses.feedback_form_id").
		Where("feedback_forms.project_id IN ?", projectIDs)
	if feedbackFormID != "" {
		query = query.Where("responses.feedback_form_id = ?", feedbackFormID)
	}

	var responses []models.Response
	err := query.Order("responses.created_at DESC").Find(&responses).Error
	return responses, err
}

func (r *ResponseRepositoryImpl) GetPromptResponse(id string) (*models.PromptResponse, error) {
	var promptResponse models.PromptResponse
	err := r.db.Preload("Prompt").
		Preload("Prompt.Options", orderedOptions).
		Preload("Option").
		First(&promptResponse, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError(fmt.Sprintf("prompt response id=%s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &promptResponse, nil
}

func (r *ResponseRepositoryImpl) ListPromptResponses(projectIDs []string, filter models.PromptResponseFilter) ([]models.PromptResponse, error) {
	if len(projectIDs) == 0 {
		return []models.PromptResponse{}, nil
	}

	query := r.db.
		Joins("JOIN responses ON responses.id = prompt_responses.response_id").
		Joins("JOIN feedback_forms ON feedback_forms.id = responses.feedback_form_id").
		Where("feedback_forms.project_id IN ?", projectIDs).
		Preload("Prompt").
		Preload("Prompt.Options", orderedOptions).
		Preload("Option")

	if filter.ProjectID != "" {
		query = query.Where("feedback_forms.project_id = ?", filter.ProjectID)
	}
	if filter.FeedbackFormID != "" {
		query = query.Where("responses.feedback_form_id = ?", filter.FeedbackFormID)
	}
	if filter.PromptID != "" {
		query = query.Where("prompt_responses.prompt_id = ?", filter.PromptID)
	}
	if filter.ResponseID != "" {
		query = query.Where("prompt_responses.response_id = ?", filter.ResponseID)
	}

	var promptResponses []models.PromptResponse
	err := query.Order("prompt_responses.created_at DESC").Find(&promptResponses).Error
	return promptResponses, err
}

// APIAccessRepositoryImpl implements APIAccessRepository
type APIAccessRepositoryImpl struct {
	db *gorm.DB
}

func NewAPIAccessRepository(db *gorm.DB) models.APIAccessRepository {
	return &APIAccessRepositoryImpl{db: db}
}

func (r *APIAccessRepositoryImpl) Create(access *models.APIAccess) error {
	return r.db.Create(access).Error
}

func (r *APIAccessRepositoryImpl) ActiveGrantsByTokenHash(tokenHash string) ([]models.APIAccess, error) {
	var grants []models.APIAccess
	err := r.db.Where("token_hash = ? AND expires_at > NOW()", tokenHash).
		Find(&grants).Error
	return grants, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	Project      models.ProjectRepository
	FeedbackForm models.FeedbackFormRepository
	Response     models.ResponseRepository
	APIAccess    models.APIAccessRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		Project:      NewProjectRepository(db),
		FeedbackForm: NewFeedbackFormRepository(db),
		Response:     NewResponseRepository(db),
		APIAccess:    NewAPIAccessRepository(db),
	}
}
