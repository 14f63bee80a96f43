// internal/services/acl.go
package services

import (
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ACLService resolves bearer tokens to access policies. A credential with
// no active grants is treated the same as an unknown one.
type ACLService struct {
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger
}

func NewACLService(repoManager *repository.RepositoryManager, logger *logrus.Logger) *ACLService {
	return &ACLService{
		repoManager: repoManager,
		logger:      logger,
	}
}

// Authenticate maps a bearer token to the grants it holds.
func (s *ACLService) Authenticate(token string) (*models.AccessPolicy, error) {
	if token == "" {
		return nil, models.NewUnauthenticatedError("missing bearer token")
	}

	grants, err := s.repoManager.APIAccess.ActiveGrantsByTokenHash(utils.HashToken(token))
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return nil, models.NewUnauthenticatedError("unknown or expired credential")
	}

	return &models.AccessPolicy{Grants: grants}, nil
}

// RequireProjectRole checks a grant for the project, yielding Forbidden
// when the credential is valid but lacks the scope.
func (s *ACLService) RequireProjectRole(policy *models.AccessPolicy, projectID string, roles ...models.APIRole) error {
	if policy == nil {
		return models.NewUnauthenticatedError("missing credential")
	}
	if !policy.HasProjectRole(projectID, roles...) {
		s.logger.WithFields(logrus.Fields{
			"project": projectID,
		}).Debug("Credential lacks required role for project")
		return models.NewForbiddenError("credential does not grant the required scope on this project")
	}
	return nil
}
