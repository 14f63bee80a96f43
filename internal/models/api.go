package models

import "time"

// API request/response shapes

type FirstPromptResponseRequest struct {
	Prompt string      `json:"prompt" binding:"required"`
	Value  interface{} `json:"value" binding:"required"`
}

type CreateResponseRequest struct {
	FeedbackForm        string                     `json:"feedback_form" binding:"required"`
	URL                 string                     `json:"url" binding:"required"`
	Metadata            JSONMap                    `json:"metadata"`
	FirstPromptResponse FirstPromptResponseRequest `json:"first_prompt_response" binding:"required"`
}

type CreatePromptResponseRequest struct {
	Response string      `json:"response" binding:"required"`
	Prompt   string      `json:"prompt" binding:"required"`
	Value    interface{} `json:"value" binding:"required"`
}

type CreateResponseResult struct {
	ID               string `json:"id"`
	PromptResponseID string `json:"prompt_response_id"`
}

type CreatePromptResponseResult struct {
	ID string `json:"id"`
}

type PromptOptionDetail struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type PromptDetail struct {
	ID            string               `json:"id"`
	FeedbackForm  string               `json:"feedback_form"`
	PromptType    PromptType           `json:"prompt_type"`
	Text          string               `json:"text"`
	Order         int                  `json:"order"`
	Optional      bool                 `json:"optional"`
	MaxLength     int                  `json:"max_length,omitempty"`
	PositiveLabel string               `json:"positive_label,omitempty"`
	NegativeLabel string               `json:"negative_label,omitempty"`
	Options       []PromptOptionDetail `json:"options,omitempty"`
}

type FeedbackFormSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type FeedbackFormDetail struct {
	ID        string         `json:"id"`
	Project   string         `json:"project"`
	Name      string         `json:"name"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"created_at"`
	Prompts   []PromptDetail `json:"prompts"`
}

type PromptResponseDetail struct {
	ID        string      `json:"id"`
	Response  string      `json:"response"`
	Prompt    string      `json:"prompt"`
	Sequence  int         `json:"sequence"`
	CreatedAt time.Time   `json:"created_at"`
	Value     interface{} `json:"value"`
}

type ResponseSummary struct {
	ID           string    `json:"id"`
	FeedbackForm string    `json:"feedback_form"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

type ResponseDetail struct {
	ID              string                 `json:"id"`
	FeedbackForm    string                 `json:"feedback_form"`
	URL             string                 `json:"url"`
	Metadata        JSONMap                `json:"metadata"`
	CreatedAt       time.Time              `json:"created_at"`
	PromptResponses []PromptResponseDetail `json:"prompt_responses"`
}

// Represent builds the API-facing shape of a prompt, including ranged
// options so clients never need a second round trip.
func (p *Prompt) Represent() PromptDetail {
	detail := PromptDetail{
		ID:           p.ID,
		FeedbackForm: p.FeedbackFormID,
		PromptType:   p.Type,
		Text:         p.Text,
		Order:        p.OrderIndex,
		Optional:     p.Optional,
	}
	switch p.Type {
	case PromptTypeText:
		detail.MaxLength = p.TextLimit()
	case PromptTypeBinary:
		detail.PositiveLabel = p.PositiveLabel
		detail.NegativeLabel = p.NegativeLabel
	case PromptTypeRanged:
		for _, option := range p.Options {
			detail.Options = append(detail.Options, PromptOptionDetail{
				ID:    option.ID,
				Label: option.Label,
				Value: option.Value,
			})
		}
	}
	return detail
}

// Represent builds the form detail with its enabled prompts in declared
// order. Prompts and their options must be prefetched.
func (f *FeedbackForm) Represent() FeedbackFormDetail {
	detail := FeedbackFormDetail{
		ID:        f.ID,
		Project:   f.ProjectID,
		Name:      f.Name,
		Enabled:   f.Enabled,
		CreatedAt: f.CreatedAt,
		Prompts:   []PromptDetail{},
	}
	for i := range f.Prompts {
		if !f.Prompts[i].Enabled {
			continue
		}
		detail.Prompts = append(detail.Prompts, f.Prompts[i].Represent())
	}
	return detail
}

func (f *FeedbackForm) Summary() FeedbackFormSummary {
	return FeedbackFormSummary{ID: f.ID, Name: f.Name, Enabled: f.Enabled}
}

// Represent renders one answer. The prompt (with options) must be
// prefetched on the prompt response.
func (pr *PromptResponse) Represent() PromptResponseDetail {
	return PromptResponseDetail{
		ID:        pr.ID,
		Response:  pr.ResponseID,
		Prompt:    pr.PromptID,
		Sequence:  pr.Sequence,
		CreatedAt: pr.CreatedAt,
		Value:     pr.Answer(&pr.Prompt),
	}
}

func (r *Response) Summary() ResponseSummary {
	return ResponseSummary{
		ID:           r.ID,
		FeedbackForm: r.FeedbackFormID,
		URL:          r.URL,
		CreatedAt:    r.CreatedAt,
	}
}

func (r *Response) Represent() ResponseDetail {
	detail := ResponseDetail{
		ID:              r.ID,
		FeedbackForm:    r.FeedbackFormID,
		URL:             r.URL,
		Metadata:        r.Metadata,
		CreatedAt:       r.CreatedAt,
		PromptResponses: []PromptResponseDetail{},
	}
	for i := range r.PromptResponses {
		detail.PromptResponses = append(detail.PromptResponses, r.PromptResponses[i].Represent())
	}
	return detail
}
