package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// PromptType discriminates the closed set of prompt variants. Variants
// share the prompts table; per-variant columns are only read for the
// matching type.
type PromptType string

const (
	PromptTypeText   PromptType = "text"
	PromptTypeBinary PromptType = "binary"
	PromptTypeRanged PromptType = "ranged"
)

const (
	// MaxEnabledPrompts is a business invariant enforced at write time,
	// not a query constraint.
	MaxEnabledPrompts = 3

	// DefaultTextMaxLength bounds free-text answers when a text prompt
	// does not set its own limit.
	DefaultTextMaxLength = 1000

	maxPromptTextLength = 128
)

// Prompt is a single question attached to a feedback form.
type Prompt struct {
	BaseModel
	FeedbackFormID string     `json:"feedback_form_id" gorm:"type:uuid;not null;index"`
	Type           PromptType `json:"prompt_type" gorm:"not null"`
	Text           string     `json:"text" gorm:"not null"`
	OrderIndex     int        `json:"order" gorm:"not null;default:0"`
	Optional       bool       `json:"optional" gorm:"default:false"`
	Enabled        bool       `json:"enabled" gorm:"default:true"`

	// Text prompts only
	MaxLength int `json:"max_length,omitempty" gorm:"default:0"`

	// Binary prompts only
	PositiveLabel string `json:"positive_label,omitempty"`
	NegativeLabel string `json:"negative_label,omitempty"`

	// Ranged prompts only
	Options []PromptOption `json:"options,omitempty" gorm:"foreignKey:PromptID"`
}

// PromptOption is one selectable answer of a ranged prompt.
type PromptOption struct {
	BaseModel
	PromptID string `json:"prompt_id" gorm:"type:uuid;not null;index"`
	Label    string `json:"label" gorm:"not null"`
	Value    string `json:"value" gorm:"not null"`
}

func (p *Prompt) Validate() error {
	if p.FeedbackFormID == "" {
		return NewValidationError("feedback_form_id", "feedback form is required")
	}
	if strings.TrimSpace(p.Text) == "" {
		return NewValidationError("text", "text is required")
	}
	if utf8.RuneCountInString(p.Text) > maxPromptTextLength {
		return NewValidationError("text", fmt.Sprintf("text must not exceed %d characters", maxPromptTextLength))
	}
	switch p.Type {
	case PromptTypeText, PromptTypeRanged:
	case PromptTypeBinary:
		if p.PositiveLabel == "" || p.NegativeLabel == "" {
			return NewValidationError("labels", "binary prompts require positive and negative labels")
		}
	default:
		return NewValidationError("prompt_type", fmt.Sprintf("unknown prompt type %q", p.Type))
	}
	return nil
}

func (o *PromptOption) Validate() error {
	if o.PromptID == "" {
		return NewValidationError("prompt_id", "prompt is required")
	}
	if o.Label == "" {
		return NewValidationError("label", "label is required")
	}
	return nil
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	p.EnsureID()
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.Enabled {
		return nil
	}

	var enabled int64
	if err := tx.Model(&Prompt{}).
		Where("feedback_form_id = ? AND enabled", p.FeedbackFormID).
		Count(&enabled).Error; err != nil {
		return err
	}
	return checkEnabledCapacity(enabled)
}

// checkEnabledCapacity rejects enabling one more prompt when the form is
// already at MaxEnabledPrompts. The count is taken inside the insert
// transaction so the gate holds before persistence.
func checkEnabledCapacity(enabled int64) error {
	if enabled >= MaxEnabledPrompts {
		return NewValidationError("prompts", fmt.Sprintf("a feedback form cannot have more than %d enabled prompts", MaxEnabledPrompts))
	}
	return nil
}

func (o *PromptOption) BeforeCreate(tx *gorm.DB) error {
	o.EnsureID()
	return o.Validate()
}

// TextLimit returns the effective max length for a text prompt.
func (p *Prompt) TextLimit() int {
	if p.MaxLength > 0 {
		return p.MaxLength
	}
	return DefaultTextMaxLength
}

// OptionByID looks up an option owned by this prompt. Options must already
// be loaded; the catalog is pure over loaded entities.
func (p *Prompt) OptionByID(id string) *PromptOption {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

// ValidateAnswer checks a submitted value against the prompt variant's
// rules and returns a PromptResponse shell holding the typed value. The
// shell has no response or sequence yet; the append path fills those in.
func (p *Prompt) ValidateAnswer(value interface{}) (*PromptResponse, error) {
	switch p.Type {
	case PromptTypeText:
		text, ok := value.(string)
		if !ok {
			return nil, NewValidationError("value", "value must be a string for a text prompt")
		}
		if strings.TrimSpace(text) == "" {
			return nil, NewValidationError("value", "value must not be empty")
		}
		// Limits are in characters, not bytes, so multibyte answers
		// are not short-changed.
		if utf8.RuneCountInString(text) > p.TextLimit() {
			return nil, NewValidationError("value", fmt.Sprintf("value must not be longer than %d characters", p.TextLimit()))
		}
		return &PromptResponse{PromptID: p.ID, TextValue: &text}, nil

	case PromptTypeBinary:
		answer, ok := value.(bool)
		if !ok {
			return nil, NewValidationError("value", "value must be true or false for a binary prompt")
		}
		return &PromptResponse{PromptID: p.ID, BinaryValue: &answer}, nil

	case PromptTypeRanged:
		optionID, ok := value.(string)
		if !ok {
			return nil, NewValidationError("value", "value must be an option id for a ranged prompt")
		}
		if p.OptionByID(optionID) == nil {
			return nil, NewUnknownOptionError(fmt.Sprintf("value must be an option from prompt id=%s", p.ID))
		}
		return &PromptResponse{PromptID: p.ID, OptionID: &optionID}, nil
	}

	return nil, NewValidationError("prompt_type", fmt.Sprintf("unknown prompt type %q", p.Type))
}

// Label resolves a binary answer to its display label.
func (p *Prompt) Label(positive bool) string {
	if positive {
		return p.PositiveLabel
	}
	return p.NegativeLabel
}

// Answer renders the stored value in the shape dictated by the prompt
// variant. The prompt (with options for ranged prompts) must be prefetched.
func (pr *PromptResponse) Answer(prompt *Prompt) interface{} {
	switch prompt.Type {
	case PromptTypeText:
		if pr.TextValue != nil {
			return *pr.TextValue
		}
	case PromptTypeBinary:
		if pr.BinaryValue != nil {
			return map[string]interface{}{
				"value": *pr.BinaryValue,
				"label": prompt.Label(*pr.BinaryValue),
			}
		}
	case PromptTypeRanged:
		if pr.OptionID == nil {
			return nil
		}
		option := pr.Option
		if option == nil {
			option = prompt.OptionByID(*pr.OptionID)
		}
		if option != nil {
			return map[string]interface{}{
				"id":    option.ID,
				"label": option.Label,
				"value": option.Value,
			}
		}
	}
	return nil
}
