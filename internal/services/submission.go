// internal/services/submission.go
package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/sirupsen/logrus"
)

// appendRetries bounds the automatic retries of a chain append after a
// serialization failure before IntegrityConflict surfaces to the caller.
const appendRetries = 1

// SubmissionService owns the response write path: creating a response with
// its embedded first prompt response, and appending later prompt responses.
type SubmissionService struct {
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger
}

func NewSubmissionService(repoManager *repository.RepositoryManager, logger *logrus.Logger) *SubmissionService {
	return &SubmissionService{
		repoManager: repoManager,
		logger:      logger,
	}
}

// CreateResponse validates and persists a new response together with the
// answer to the form's first enabled prompt, atomically.
func (s *SubmissionService) CreateResponse(req *models.CreateResponseRequest) (*models.CreateResponseResult, error) {
	form, err := s.repoManager.FeedbackForm.GetByID(req.FeedbackForm)
	if err != nil {
		return nil, err
	}
	if !form.Enabled {
		return nil, models.NewNotFoundError(fmt.Sprintf("feedback form id=%s is disabled", form.ID))
	}

	first := firstEnabledPrompt(form)
	if first == nil {
		return nil, models.NewNotFoundError(fmt.Sprintf("feedback form id=%s has no enabled prompts", form.ID))
	}
	if req.FirstPromptResponse.Prompt != first.ID {
		return nil, models.NewValidationError("prompt",
			fmt.Sprintf("prompt must be the first enabled prompt in feedback form id=%s", form.ID))
	}

	shell, err := first.ValidateAnswer(req.FirstPromptResponse.Value)
	if err != nil {
		return nil, err
	}
	shell.Sequence = 1

	response := &models.Response{
		FeedbackFormID: form.ID,
		URL:            req.URL,
		Metadata:       req.Metadata,
	}

	if err := s.repoManager.Response.CreateWithFirstPrompt(response, shell); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"response":      response.ID,
		"feedback_form": form.ID,
		"prompt":        first.ID,
	}).Info("Response created")

	return &models.CreateResponseResult{
		ID:               response.ID,
		PromptResponseID: shell.ID,
	}, nil
}

// AppendPromptResponse appends one answer to an existing response. The
// validation and the insert run as one serializable unit against the
// response; a serialization failure is retried once before surfacing as
// IntegrityConflict.
func (s *SubmissionService) AppendPromptResponse(req *models.CreatePromptResponseRequest) (*models.CreatePromptResponseResult, error) {
	var lastErr error

	for attempt := 0; attempt <= appendRetries; attempt++ {
		created, err := s.repoManager.Response.Append(req.Response, func(response *models.Response, existing []models.PromptResponse) (*models.PromptResponse, error) {
			return s.validateAppend(response, existing, req)
		})
		if err == nil {
			s.logger.WithFields(logrus.Fields{
				"response":        req.Response,
				"prompt":          req.Prompt,
				"prompt_response": created.ID,
				"sequence":        created.Sequence,
			}).Info("Prompt response appended")

			return &models.CreatePromptResponseResult{ID: created.ID}, nil
		}

		if !isSerializationFailure(err) {
			return nil, err
		}

		lastErr = err
		s.logger.WithError(err).WithFields(logrus.Fields{
			"response": req.Response,
			"attempt":  attempt + 1,
		}).Warn("Chain append serialization failure")
	}

	return nil, models.NewIntegrityConflictError(
		fmt.Sprintf("concurrent append to response id=%s, please retry: %v", req.Response, lastErr))
}

func (s *SubmissionService) validateAppend(
	response *models.Response,
	existing []models.PromptResponse,
	req *models.CreatePromptResponseRequest,
) (*models.PromptResponse, error) {
	form := &response.FeedbackForm
	if !form.Enabled {
		return nil, models.NewNotFoundError(fmt.Sprintf("feedback form id=%s is disabled", form.ID))
	}

	var prompt *models.Prompt
	for i := range form.Prompts {
		if form.Prompts[i].ID == req.Prompt {
			prompt = &form.Prompts[i]
			break
		}
	}
	if prompt == nil {
		return nil, models.NewPromptMismatchError(
			fmt.Sprintf("prompt id=%s does not exist in feedback form id=%s", req.Prompt, form.ID))
	}
	if !prompt.Enabled {
		return nil, models.NewPromptMismatchError(
			fmt.Sprintf("prompt id=%s is not enabled in feedback form id=%s", prompt.ID, form.ID))
	}

	sequence := 0
	for i := range existing {
		if existing[i].PromptID == prompt.ID {
			return nil, models.NewDuplicateAnswerError(
				fmt.Sprintf("prompt response already exists for prompt id=%s and response id=%s", prompt.ID, response.ID))
		}
		if existing[i].Sequence > sequence {
			sequence = existing[i].Sequence
		}
	}

	shell, err := prompt.ValidateAnswer(req.Value)
	if err != nil {
		return nil, err
	}

	shell.ResponseID = response.ID
	shell.Sequence = sequence + 1
	return shell, nil
}

func firstEnabledPrompt(form *models.FeedbackForm) *models.Prompt {
	var first *models.Prompt
	for i := range form.Prompts {
		if !form.Prompts[i].Enabled {
			continue
		}
		if first == nil || form.Prompts[i].OrderIndex < first.OrderIndex {
			first = &form.Prompts[i]
		}
	}
	return first
}

// isSerializationFailure reports whether the append should be retried:
// postgres serialization failures, deadlocks, and a lost race on the
// per-response sequence index all mean two appends collided.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	case "23505":
		return pgErr.ConstraintName == "idx_response_sequence"
	}
	return false
}
