package models

import (
	"time"

	"gorm.io/gorm"
)

// APIRole is the capability a credential holds on one project.
type APIRole string

const (
	APIRoleSubmit  APIRole = "submit-responses"
	APIRoleExplore APIRole = "explore-responses"
)

// Grant lifespans, in days.
var APIAccessLifespanChoices = []int{30, 60, 90, 180}

// APIAccess grants one role on one project to the holder of a bearer
// token. Only the SHA-256 hash of the token is stored.
type APIAccess struct {
	BaseModel
	ProjectID    string    `json:"project_id" gorm:"type:uuid;not null;index"`
	TokenHash    string    `json:"-" gorm:"not null;index"`
	Role         APIRole   `json:"role" gorm:"not null"`
	LifespanDays int       `json:"lifespan_days" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`

	// Associations
	Project Project `json:"-" gorm:"foreignKey:ProjectID"`
}

func (a *APIAccess) Validate() error {
	if a.ProjectID == "" {
		return NewValidationError("project_id", "project is required")
	}
	if a.TokenHash == "" {
		return NewValidationError("token", "token is required")
	}
	if a.Role != APIRoleSubmit && a.Role != APIRoleExplore {
		return NewValidationError("role", "role must be submit-responses or explore-responses")
	}
	for _, choice := range APIAccessLifespanChoices {
		if a.LifespanDays == choice {
			return nil
		}
	}
	return NewValidationError("lifespan_days", "lifespan must be one of the allowed choices")
}

func (a *APIAccess) BeforeCreate(tx *gorm.DB) error {
	a.EnsureID()
	if a.ExpiresAt.IsZero() && a.LifespanDays > 0 {
		a.ExpiresAt = time.Now().AddDate(0, 0, a.LifespanDays)
	}
	return a.Validate()
}

func (a *APIAccess) IsActive() bool {
	return a.ExpiresAt.After(time.Now())
}

// AccessPolicy is the set of grants resolved from one credential. It is
// passed explicitly through the request path rather than held in any
// ambient state.
type AccessPolicy struct {
	Grants []APIAccess
}

// HasProjectRole reports whether the policy holds any of the roles on the
// given project.
func (p *AccessPolicy) HasProjectRole(projectID string, roles ...APIRole) bool {
	for _, grant := range p.Grants {
		if grant.ProjectID != projectID {
			continue
		}
		for _, role := range roles {
			if grant.Role == role {
				return true
			}
		}
	}
	return false
}

// ProjectIDsWithRole returns the projects on which the policy holds any of
// the roles. Used by list endpoints to restrict reads without leaking
// foreign data.
func (p *AccessPolicy) ProjectIDsWithRole(roles ...APIRole) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, grant := range p.Grants {
		for _, role := range roles {
			if grant.Role == role && !seen[grant.ProjectID] {
				seen[grant.ProjectID] = true
				ids = append(ids, grant.ProjectID)
			}
		}
	}
	return ids
}
