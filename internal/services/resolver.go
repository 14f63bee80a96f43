// internal/services/resolver.go
package services

import (
	"context"
	"time"

	"github.com/pagesignal/backend/internal/database"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/sirupsen/logrus"
)

const resolvedFormCacheTTL = 5 * time.Minute

// FormResolver selects the single feedback form configured for a page of a
// project's site, if any. Resolution is read-only and sits on a user-facing
// request path, so the winning form detail is cached.
type FormResolver struct {
	repoManager *repository.RepositoryManager
	cache       *database.Cache
	logger      *logrus.Logger
}

func NewFormResolver(
	repoManager *repository.RepositoryManager,
	cache *database.Cache,
	logger *logrus.Logger,
) *FormResolver {
	return &FormResolver{
		repoManager: repoManager,
		cache:       cache,
		logger:      logger,
	}
}

// Resolve returns the detail of the enabled form whose pattern best matches
// path, or nil when no pattern matches. Prompts and ranged options are
// loaded along with the form, never per prompt.
func (s *FormResolver) Resolve(ctx context.Context, projectID, path string) (*models.FeedbackFormDetail, error) {
	if s.cache != nil {
		var cached models.FeedbackFormDetail
		if found, err := s.cache.GetCachedResolvedForm(ctx, projectID, path, &cached); err == nil && found {
			s.logger.WithFields(logrus.Fields{
				"project": projectID,
				"path":    path,
			}).Debug("Resolved form served from cache")
			return &cached, nil
		}
	}

	patterns, err := s.repoManager.FeedbackForm.ActivePatternsByProject(projectID)
	if err != nil {
		return nil, err
	}

	winner := MatchPattern(patterns, path)
	if winner == nil {
		s.logger.WithFields(logrus.Fields{
			"project": projectID,
			"path":    path,
		}).Debug("No feedback form resolved for path")
		return nil, nil
	}

	form, err := s.repoManager.FeedbackForm.GetDetail(projectID, winner.FeedbackFormID)
	if err != nil {
		return nil, err
	}

	detail := form.Represent()

	if s.cache != nil {
		if err := s.cache.CacheResolvedForm(ctx, projectID, path, detail, resolvedFormCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache resolved form")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"project": projectID,
		"path":    path,
		"form":    detail.ID,
		"pattern": winner.Pattern,
	}).Debug("Resolved feedback form")

	return &detail, nil
}
