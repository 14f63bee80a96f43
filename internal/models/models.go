package models

// GORM models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap stores opaque response metadata as jsonb. The contents are never
// validated against a schema.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal JSONMap: %w", err)
	}
	return string(data), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
}

// Base model with common fields. IDs are opaque UUIDs so they cannot be
// enumerated across projects.
type BaseModel struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
}

// Retention period choices for a project, in days.
var RetentionPeriodChoices = []int{30, 60, 180}

// Project is the tenant boundary. Feedback forms, patterns and API grants
// all hang off a project.
type Project struct {
	BaseModel
	Name          string `json:"name" gorm:"not null"`
	Domain        string `json:"domain"`
	RetentionDays int    `json:"retention_days" gorm:"default:30"`

	// Associations
	FeedbackForms []FeedbackForm `json:"feedback_forms,omitempty" gorm:"foreignKey:ProjectID"`
}

// FeedbackForm groups up to MaxEnabledPrompts prompts shown on matching
// pages of a project's site.
type FeedbackForm struct {
	BaseModel
	ProjectID string `json:"project_id" gorm:"type:uuid;not null;index"`
	Name      string `json:"name" gorm:"not null"`
	Enabled   bool   `json:"enabled" gorm:"default:true"`

	// Associations
	Prompts      []Prompt      `json:"prompts,omitempty" gorm:"foreignKey:FeedbackFormID"`
	PathPatterns []PathPattern `json:"path_patterns,omitempty" gorm:"foreignKey:FeedbackFormID"`
}

// PathPattern maps a URL path to a feedback form. The wildcard flag is
// decomposed out of the pattern string at write time so resolution can do
// plain equality and prefix checks.
type PathPattern struct {
	BaseModel
	FeedbackFormID string `json:"feedback_form_id" gorm:"type:uuid;not null;index"`
	ProjectID      string `json:"project_id" gorm:"type:uuid;not null;index"`
	Pattern        string `json:"pattern" gorm:"not null"`
	IsWildcard     bool   `json:"is_wildcard" gorm:"default:false"`
}

// Response is one feedback session against one form. Immutable once
// created; prompt responses are appended one at a time.
type Response struct {
	BaseModel
	FeedbackFormID string  `json:"feedback_form_id" gorm:"type:uuid;not null;index"`
	URL            string  `json:"url" gorm:"not null"`
	Metadata       JSONMap `json:"metadata" gorm:"type:jsonb;default:'{}'"`

	// Associations
	FeedbackForm    FeedbackForm     `json:"-" gorm:"foreignKey:FeedbackFormID"`
	PromptResponses []PromptResponse `json:"prompt_responses,omitempty" gorm:"foreignKey:ResponseID"`
}

// PromptResponse answers exactly one prompt within one response. Sequence
// numbers are assigned transactionally while the parent response row is
// locked, which keeps concurrent appends ordered without a linked list.
// Exactly one of the value columns is set, matching the prompt's type.
type PromptResponse struct {
	BaseModel
	ResponseID string `json:"response_id" gorm:"type:uuid;not null;uniqueIndex:idx_response_prompt;uniqueIndex:idx_response_sequence"`
	PromptID   string `json:"prompt_id" gorm:"type:uuid;not null;uniqueIndex:idx_response_prompt"`
	Sequence   int    `json:"sequence" gorm:"not null;uniqueIndex:idx_response_sequence"`

	TextValue   *string `json:"-"`
	BinaryValue *bool   `json:"-"`
	OptionID    *string `json:"-" gorm:"type:uuid"`

	// Associations
	Prompt Prompt        `json:"-" gorm:"foreignKey:PromptID"`
	Option *PromptOption `json:"-" gorm:"foreignKey:OptionID"`
}

// TableName methods for custom table names
func (Project) TableName() string        { return "projects" }
func (FeedbackForm) TableName() string   { return "feedback_forms" }
func (PathPattern) TableName() string    { return "path_patterns" }
func (Prompt) TableName() string         { return "prompts" }
func (PromptOption) TableName() string   { return "prompt_options" }
func (Response) TableName() string       { return "responses" }
func (PromptResponse) TableName() string { return "prompt_responses" }
func (APIAccess) TableName() string      { return "api_accesses" }

// Model validation methods
func (p *Project) Validate() error {
	if p.Name == "" {
		return NewValidationError("name", "name is required")
	}
	for _, choice := range RetentionPeriodChoices {
		if p.RetentionDays == choice {
			return nil
		}
	}
	return NewValidationError("retention_days", fmt.Sprintf("retention period must be one of %v days", RetentionPeriodChoices))
}

func (f *FeedbackForm) Validate() error {
	if f.Name == "" {
		return NewValidationError("name", "name is required")
	}
	if f.ProjectID == "" {
		return NewValidationError("project_id", "project is required")
	}
	return nil
}

func (p *PathPattern) Validate() error {
	if p.Pattern == "" {
		return NewValidationError("pattern", "pattern is required")
	}
	if p.Pattern[0] != '/' {
		return NewValidationError("pattern", "pattern must start with /")
	}
	if p.FeedbackFormID == "" {
		return NewValidationError("feedback_form_id", "feedback form is required")
	}
	return nil
}

func (r *Response) Validate() error {
	if r.FeedbackFormID == "" {
		return NewValidationError("feedback_form", "feedback form is required")
	}
	if r.URL == "" {
		return NewValidationError("url", "url is required")
	}
	return nil
}

func (pr *PromptResponse) Validate() error {
	if pr.ResponseID == "" {
		return NewValidationError("response", "response is required")
	}
	if pr.PromptID == "" {
		return NewValidationError("prompt", "prompt is required")
	}
	if pr.Sequence < 1 {
		return NewValidationError("sequence", "sequence must be positive")
	}
	return nil
}

// GORM hooks
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	p.EnsureID()
	return p.Validate()
}

func (f *FeedbackForm) BeforeCreate(tx *gorm.DB) error {
	f.EnsureID()
	return f.Validate()
}

func (p *PathPattern) BeforeCreate(tx *gorm.DB) error {
	p.EnsureID()
	return p.Validate()
}

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	r.EnsureID()
	if r.Metadata == nil {
		r.Metadata = JSONMap{}
	}
	return r.Validate()
}

func (pr *PromptResponse) BeforeCreate(tx *gorm.DB) error {
	pr.EnsureID()
	return pr.Validate()
}
