// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pagesignal/backend/internal/models"
	"github.com/pagesignal/backend/internal/services"
	"github.com/pagesignal/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// PolicyKey is the gin context key the resolved access policy is stored
// under. The policy is attached per request; no ambient credential state
// survives the request.
const PolicyKey = "access_policy"

// Authenticate resolves the bearer token to an access policy and aborts
// with 401 when the credential is missing, unknown, or expired.
func Authenticate(acl *services.ACLService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.DomainErrorResponse(c, models.NewUnauthenticatedError("missing bearer token"))
			c.Abort()
			return
		}

		policy, err := acl.Authenticate(token)
		if err != nil {
			logger.WithError(err).Debug("Authentication failed")
			utils.DomainErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(PolicyKey, policy)
		c.Next()
	}
}

// PolicyFromContext returns the policy attached by Authenticate.
func PolicyFromContext(c *gin.Context) *models.AccessPolicy {
	value, exists := c.Get(PolicyKey)
	if !exists {
		return nil
	}
	policy, ok := value.(*models.AccessPolicy)
	if !ok {
		return nil
	}
	return policy
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
