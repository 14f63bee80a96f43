//go:build integration

package services

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL required for integration tests")
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Project{},
		&models.FeedbackForm{},
		&models.PathPattern{},
		&models.Prompt{},
		&models.PromptOption{},
		&models.Response{},
		&models.PromptResponse{},
		&models.APIAccess{},
	))

	return db
}

// seedForm creates a project and a form with three enabled prompts, one
// per variant, and returns the form reloaded with its associations.
func seedForm(t *testing.T, repoManager *repository.RepositoryManager) *models.FeedbackForm {
	t.Helper()

	project := &models.Project{Name: "Integration", RetentionDays: 30}
	require.NoError(t, repoManager.Project.Create(project))

	form := &models.FeedbackForm{ProjectID: project.ID, Name: "Contact", Enabled: true}
	require.NoError(t, repoManager.FeedbackForm.Create(form))

	binary := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeBinary,
		Text:           "Was this helpful?",
		OrderIndex:     0,
		Enabled:        true,
		PositiveLabel:  "Yes",
		NegativeLabel:  "No",
	}
	require.NoError(t, repoManager.FeedbackForm.CreatePrompt(binary))

	text := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeText,
		Text:           "Tell us more",
		OrderIndex:     1,
		Enabled:        true,
	}
	require.NoError(t, repoManager.FeedbackForm.CreatePrompt(text))

	ranged := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeRanged,
		Text:           "How easy was it?",
		OrderIndex:     2,
		Enabled:        true,
	}
	require.NoError(t, repoManager.FeedbackForm.CreatePrompt(ranged))
	for i, label := range []string{"Hard", "Easy"} {
		option := &models.PromptOption{
			PromptID: ranged.ID,
			Label:    label,
			Value:    fmt.Sprintf("%d", i+1),
		}
		require.NoError(t, repoManager.FeedbackForm.CreatePromptOption(option))
	}

	loaded, err := repoManager.FeedbackForm.GetByID(form.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Prompts, 3)
	return loaded
}

func TestIntegration_EnabledPromptCapacity(t *testing.T) {
	db := integrationDB(t)
	repoManager := repository.NewRepositoryManager(db)

	form := seedForm(t, repoManager)

	// The form already holds the maximum; a fourth enabled prompt must
	// fail before persistence.
	fourth := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeText,
		Text:           "One question too many",
		OrderIndex:     3,
		Enabled:        true,
	}
	err := repoManager.FeedbackForm.CreatePrompt(fourth)
	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrKindValidation, domainErr.Kind)

	var count int64
	require.NoError(t, db.Model(&models.Prompt{}).
		Where("feedback_form_id = ? AND enabled", form.ID).
		Count(&count).Error)
	assert.EqualValues(t, models.MaxEnabledPrompts, count)

	// A disabled prompt does not count against the cap.
	fourth.ID = ""
	fourth.Enabled = false
	require.NoError(t, repoManager.FeedbackForm.CreatePrompt(fourth))
}

func TestIntegration_ConcurrentChainAppends(t *testing.T) {
	db := integrationDB(t)
	repoManager := repository.NewRepositoryManager(db)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	submission := NewSubmissionService(repoManager, log)

	form := seedForm(t, repoManager)
	first := form.Prompts[0]
	text := form.Prompts[1]
	ranged := form.Prompts[2]
	require.NotEmpty(t, ranged.Options)

	created, err := submission.CreateResponse(&models.CreateResponseRequest{
		FeedbackForm: form.ID,
		URL:          "https://demo.example.com/contact/",
		FirstPromptResponse: models.FirstPromptResponseRequest{
			Prompt: first.ID,
			Value:  true,
		},
	})
	require.NoError(t, err)

	// Race many appends for the two remaining prompts. The row lock
	// must serialize them: exactly one append per prompt lands, the
	// rest fail cleanly, and no sequence is lost or duplicated.
	appends := []models.CreatePromptResponseRequest{
		{Response: created.ID, Prompt: text.ID, Value: "first writer"},
		{Response: created.ID, Prompt: text.ID, Value: "second writer"},
		{Response: created.ID, Prompt: text.ID, Value: "third writer"},
		{Response: created.ID, Prompt: ranged.ID, Value: ranged.Options[0].ID},
		{Response: created.ID, Prompt: ranged.ID, Value: ranged.Options[1].ID},
		{Response: created.ID, Prompt: ranged.ID, Value: ranged.Options[0].ID},
	}

	var wg sync.WaitGroup
	results := make([]error, len(appends))
	for i := range appends {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := submission.AppendPromptResponse(&appends[i])
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var domainErr *models.DomainError
		require.True(t, errors.As(err, &domainErr), "unexpected error: %v", err)
		assert.Contains(t,
			[]models.ErrorKind{models.ErrKindDuplicateAnswer, models.ErrKindIntegrityConflict},
			domainErr.Kind)
	}
	assert.Equal(t, 2, succeeded)

	response, err := repoManager.Response.GetByID(created.ID)
	require.NoError(t, err)
	require.Len(t, response.PromptResponses, 3)

	seen := map[int]string{}
	for _, pr := range response.PromptResponses {
		_, dup := seen[pr.Sequence]
		require.False(t, dup, "duplicate sequence %d", pr.Sequence)
		seen[pr.Sequence] = pr.PromptID
	}
	for want := 1; want <= 3; want++ {
		assert.Contains(t, seen, want)
	}
	assert.Equal(t, first.ID, seen[1])
}
