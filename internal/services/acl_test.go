package services

import (
	"testing"
	"time"

	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/repository"
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

func newACLFixture(grantsByToken map[string][]models.APIAccess) *ACLService {
	byHash := make(map[string][]models.APIAccess, len(grantsByToken))
	for token, grants := range grantsByToken {
		byHash[utils.HashToken(token)] = grants
	}
	manager := &repository.RepositoryManager{
		APIAccess: &fakeAccessRepo{grantsByHash: byHash},
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewACLService(manager, logger)
}

func submitGrant(projectID string) models.APIAccess {
	return models.APIAccess{
		ProjectID:    projectID,
		TokenHash:    "stored-hash",
		Role:         models.APIRoleSubmit,
		LifespanDays: 30,
		ExpiresAt:    time.Now().AddDate(0, 0, 30),
	}
}

func TestAuthenticate(t *testing.T) {
	acl := newACLFixture(map[string][]models.APIAccess{
		"ps_valid": {submitGrant("project-1")},
	})

	policy, err := acl.Authenticate("ps_valid")
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.True(t, policy.HasProjectRole("project-1", models.APIRoleSubmit))
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	acl := newACLFixture(nil)

	_, err := acl.Authenticate("ps_unknown")
	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrKindUnauthenticated, domainErr.Kind)

	_, err = acl.Authenticate("")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrKindUnauthenticated, domainErr.Kind)
}

func TestRequireProjectRole(t *testing.T) {
	acl := newACLFixture(map[string][]models.APIAccess{
		"ps_valid": {submitGrant("project-1")},
	})

	policy, err := acl.Authenticate("ps_valid")
	require.NoError(t, err)

	require.NoError(t, acl.RequireProjectRole(policy, "project-1", models.APIRoleSubmit))

	// Valid credential, missing scope: Forbidden rather than Unauthenticated.
	err = acl.RequireProjectRole(policy, "project-1", models.APIRoleExplore)
	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrKindForbidden, domainErr.Kind)

	err = acl.RequireProjectRole(policy, "project-2", models.APIRoleSubmit)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrKindForbidden, domainErr.Kind)

	err = acl.RequireProjectRole(nil, "project-1", models.APIRoleSubmit)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrKindUnauthenticated, domainErr.Kind)
}
