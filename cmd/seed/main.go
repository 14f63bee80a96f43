// backend/cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pagesignal/backend/internal/config"
	"github.com/pagesignal/backend/internal/database"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Seeds a demo project with one form per pattern style and API
// credentials for both roles, printing the generated tokens once.

var (
	projectName = flag.String("project", "Demo Project", "Name of the seeded project")
	domain      = flag.String("domain", "demo.example.com", "Site domain of the seeded project")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting demo data seeder...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Auto-migration failed")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)

	seeder := &DemoSeeder{repoManager: repoManager, logger: logger}
	if err := seeder.Seed(); err != nil {
		logger.WithError(err).Fatal("Seeding failed")
	}

	// Form configuration changed; drop any cached resolutions.
	cache := database.NewCache(dbManager.Redis, logger)
	if err := cache.ClearAllCache(context.Background()); err != nil {
		logger.WithError(err).Warn("Failed to clear cache after seeding")
	}

	logger.Info("Seeding completed successfully!")
}

type DemoSeeder struct {
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger
}

func (s *DemoSeeder) Seed() error {
	project := &models.Project{
		Name:          *projectName,
		Domain:        *domain,
		RetentionDays: 60,
	}
	if err := s.repoManager.Project.Create(project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"project": project.ID,
		"name":    project.Name,
	}).Info("Project created")

	if err := s.seedContactForm(project.ID); err != nil {
		return err
	}
	if err := s.seedDocsForm(project.ID); err != nil {
		return err
	}
	return s.seedCredentials(project.ID)
}

// seedContactForm covers the exact-pattern style: one page, all three
// prompt variants.
func (s *DemoSeeder) seedContactForm(projectID string) error {
	form := &models.FeedbackForm{
		ProjectID: projectID,
		Name:      "Contact page feedback",
		Enabled:   true,
	}
	if err := s.repoManager.FeedbackForm.Create(form); err != nil {
		return fmt.Errorf("failed to create contact form: %w", err)
	}

	pattern := &models.PathPattern{
		FeedbackFormID: form.ID,
		ProjectID:      projectID,
		Pattern:        "/contact/",
		IsWildcard:     false,
	}
	if err := s.repoManager.FeedbackForm.CreatePathPattern(pattern); err != nil {
		return fmt.Errorf("failed to create contact pattern: %w", err)
	}

	ranged := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeRanged,
		Text:           "How easy was it to reach us?",
		OrderIndex:     0,
		Enabled:        true,
	}
	if err := s.repoManager.FeedbackForm.CreatePrompt(ranged); err != nil {
		return fmt.Errorf("failed to create ranged prompt: %w", err)
	}
	scale := []struct{ label, value string }{
		{"Very hard", "1"},
		{"Hard", "2"},
		{"Neutral", "3"},
		{"Easy", "4"},
		{"Very easy", "5"},
	}
	for _, step := range scale {
		option := &models.PromptOption{
			PromptID: ranged.ID,
			Label:    step.label,
			Value:    step.value,
		}
		if err := s.repoManager.FeedbackForm.CreatePromptOption(option); err != nil {
			return fmt.Errorf("failed to create prompt option: %w", err)
		}
	}

	binary := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeBinary,
		Text:           "Did you find the contact details you were looking for?",
		OrderIndex:     1,
		Enabled:        true,
		PositiveLabel:  "Yes",
		NegativeLabel:  "No",
	}
	if err := s.repoManager.FeedbackForm.CreatePrompt(binary); err != nil {
		return fmt.Errorf("failed to create binary prompt: %w", err)
	}

	text := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeText,
		Text:           "Anything else you want to tell us?",
		OrderIndex:     2,
		Optional:       true,
		Enabled:        true,
		MaxLength:      500,
	}
	if err := s.repoManager.FeedbackForm.CreatePrompt(text); err != nil {
		return fmt.Errorf("failed to create text prompt: %w", err)
	}

	s.logger.WithField("form", form.ID).Info("Contact form seeded")
	return nil
}

// seedDocsForm covers the wildcard-pattern style: one form for a whole
// documentation subtree.
func (s *DemoSeeder) seedDocsForm(projectID string) error {
	form := &models.FeedbackForm{
		ProjectID: projectID,
		Name:      "Documentation feedback",
		Enabled:   true,
	}
	if err := s.repoManager.FeedbackForm.Create(form); err != nil {
		return fmt.Errorf("failed to create docs form: %w", err)
	}

	pattern := &models.PathPattern{
		FeedbackFormID: form.ID,
		ProjectID:      projectID,
		Pattern:        "/docs/",
		IsWildcard:     true,
	}
	if err := s.repoManager.FeedbackForm.CreatePathPattern(pattern); err != nil {
		return fmt.Errorf("failed to create docs pattern: %w", err)
	}

	helpful := &models.Prompt{
		FeedbackFormID: form.ID,
		Type:           models.PromptTypeBinary,
		Text:           "Was this page helpful?",
		OrderIndex:     0,
		Enabled:        true,
		PositiveLabel:  "Helpful",
		NegativeLabel:  "Not helpful",
	}
	if err := s.repoManager.FeedbackForm.CreatePrompt(helpful); err != nil {
		return fmt.Errorf("failed to create docs prompt: %w", err)
	}

	s.logger.WithField("form", form.ID).Info("Docs form seeded")
	return nil
}

func (s *DemoSeeder) seedCredentials(projectID string) error {
	roles := []struct {
		role     models.APIRole
		lifespan int
	}{
		{models.APIRoleSubmit, 90},
		{models.APIRoleExplore, 30},
	}

	for _, entry := range roles {
		token, err := utils.GenerateAPIToken()
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}

		access := &models.APIAccess{
			ProjectID:    projectID,
			TokenHash:    utils.HashToken(token),
			Role:         entry.role,
			LifespanDays: entry.lifespan,
		}
		if err := s.repoManager.APIAccess.Create(access); err != nil {
			return fmt.Errorf("failed to create %s grant: %w", entry.role, err)
		}

		// The plaintext token is only available here; print it once.
		fmt.Printf("%s token (expires %s): %s\n",
			entry.role, access.ExpiresAt.Format("2006-01-02"), token)
	}

	return nil
}
