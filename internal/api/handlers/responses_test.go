package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pagesignal/backend/internal/middleware"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/pagesignal/backend/internal/services"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccessRepo struct {
	models.APIAccessRepository
	grantsByHash map[string][]models.APIAccess
}

func (f *fakeAccessRepo) ActiveGrantsByTokenHash(tokenHash string) ([]models.APIAccess, error) {
	return f.grantsByHash[tokenHash], nil
}

type fakeFormRepo struct {
	models.FeedbackFormRepository
	forms map[string]*models.FeedbackForm
}

func (f *fakeFormRepo) GetByID(formID string) (*models.FeedbackForm, error) {
	form, ok := f.forms[formID]
	if !ok {
		return nil, models.NewNotFoundError("feedback form not found")
	}
	return form, nil
}

type fakeResponseRepo struct {
	models.ResponseRepository
	responses map[string]*models.Response
}

func (f *fakeResponseRepo) GetByID(id string) (*models.Response, error) {
	response, ok := f.responses[id]
	if !ok {
		return nil, models.NewNotFoundError("response not found")
	}
	return response, nil
}

func (f *fakeResponseRepo) ListByProjects(projectIDs []string, feedbackFormID string) ([]models.Response, error) {
	var out []models.Response
	for _, response := range f.responses {
		for _, projectID := range projectIDs {
			if response.FeedbackForm.ProjectID == projectID {
				out = append(out, *response)
			}
		}
	}
	return out, nil
}

func (f *fakeResponseRepo) CreateWithFirstPrompt(response *models.Response, first *models.PromptResponse) error {
	response.ID = uuid.NewString()
	first.ID = uuid.NewString()
	first.ResponseID = response.ID
	return nil
}

type apiFixture struct {
	router *gin.Engine

	projectID    string
	formID       string
	promptID     string
	responseID   string
	submitToken  string
	exploreToken string
}

// newAPIFixture wires the real middleware, ACL and submission services
// over in-memory repositories: one project with one binary-prompt form
// and one stored response, plus a token per role.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{
		projectID:    uuid.NewString(),
		formID:       uuid.NewString(),
		promptID:     uuid.NewString(),
		responseID:   uuid.NewString(),
		submitToken:  "ps_submit",
		exploreToken: "ps_explore",
	}

	form := &models.FeedbackForm{ProjectID: f.projectID, Name: "Docs", Enabled: true}
	form.ID = f.formID
	prompt := models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeBinary,
		Text:           "Was this helpful?",
		Enabled:        true,
		PositiveLabel:  "Yes",
		NegativeLabel:  "No",
	}
	prompt.ID = f.promptID
	form.Prompts = []models.Prompt{prompt}

	stored := &models.Response{
		FeedbackFormID: form.ID,
		URL:            "https://demo.example.com/docs/",
		FeedbackForm:   *form,
	}
	stored.ID = f.responseID

	grantFor := func(role models.APIRole) []models.APIAccess {
		return []models.APIAccess{{
			ProjectID:    f.projectID,
			TokenHash:    "stored",
			Role:         role,
			LifespanDays: 30,
			ExpiresAt:    time.Now().AddDate(0, 0, 30),
		}}
	}

	manager := &repository.RepositoryManager{
		FeedbackForm: &fakeFormRepo{forms: map[string]*models.FeedbackForm{form.ID: form}},
		Response:     &fakeResponseRepo{responses: map[string]*models.Response{stored.ID: stored}},
		APIAccess: &fakeAccessRepo{grantsByHash: map[string][]models.APIAccess{
			utils.HashToken(f.submitToken):  grantFor(models.APIRoleSubmit),
			utils.HashToken(f.exploreToken): grantFor(models.APIRoleExplore),
		}},
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	acl := services.NewACLService(manager, logger)
	submission := services.NewSubmissionService(manager, logger)
	handler := NewResponseHandler(submission, acl, manager, logger)

	router := gin.New()
	authed := router.Group("", middleware.Authenticate(acl, logger))
	authed.POST("/responses", handler.HandleCreateResponse)
	authed.GET("/responses", handler.HandleListResponses)
	authed.GET("/responses/:response", handler.HandleGetResponse)

	f.router = router
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func TestAPI_MissingTokenIsUnauthorized(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.do(t, "GET", "/responses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = f.do(t, "GET", "/responses", "ps_never_issued", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAPI_CreateResponse(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.do(t, "POST", "/responses", f.submitToken, models.CreateResponseRequest{
		FeedbackForm: f.formID,
		URL:          "https://demo.example.com/docs/install/",
		FirstPromptResponse: models.FirstPromptResponseRequest{
			Prompt: f.promptID,
			Value:  true,
		},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
}

func TestAPI_ExploreTokenCannotSubmit(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.do(t, "POST", "/responses", f.exploreToken, models.CreateResponseRequest{
		FeedbackForm: f.formID,
		URL:          "https://demo.example.com/docs/",
		FirstPromptResponse: models.FirstPromptResponseRequest{
			Prompt: f.promptID,
			Value:  true,
		},
	})
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestAPI_ListResponses(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.do(t, "GET", "/responses", f.exploreToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Success bool                     `json:"success"`
		Data    []models.ResponseSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, f.responseID, envelope.Data[0].ID)

	// A submit-only credential sees no explorable projects.
	recorder = f.do(t, "GET", "/responses", f.submitToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	envelope.Data = nil
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data)
}

func TestAPI_ForeignProjectFilterIsForbidden(t *testing.T) {
	f := newAPIFixture(t)

	recorder := f.do(t, "GET", "/responses?project="+uuid.NewString(), f.exploreToken, nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestAPI_UngrantedResponseReadsAsNotFound(t *testing.T) {
	f := newAPIFixture(t)

	// The response exists but the credential has no explore grant on its
	// project, so the read must not confirm its existence.
	recorder := f.do(t, "GET", "/responses/"+f.responseID, f.submitToken, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = f.do(t, "GET", "/responses/"+uuid.NewString(), f.exploreToken, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
