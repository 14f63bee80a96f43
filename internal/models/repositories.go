package models

// Database interfaces for repository pattern

type ProjectRepository interface {
	Create(project *Project) error
	GetByID(id string) (*Project, error)
}

type FeedbackFormRepository interface {
	Create(form *FeedbackForm) error
	CreatePrompt(prompt *Prompt) error
	CreatePromptOption(option *PromptOption) error
	CreatePathPattern(pattern *PathPattern) error

	// GetDetail loads a form with its ordered prompts and, for ranged
	// prompts, their options, in a bounded number of queries.
	GetDetail(projectID, formID string) (*FeedbackForm, error)
	// GetByID is GetDetail without the project filter, for the submit
	// path where the project is derived from the form itself.
	GetByID(formID string) (*FeedbackForm, error)
	ListByProject(projectID string) ([]FeedbackForm, error)

	// ActivePatternsByProject returns all patterns belonging to enabled
	// forms of the project, for the matcher to scan.
	ActivePatternsByProject(projectID string) ([]PathPattern, error)
}

type ResponseRepository interface {
	// CreateWithFirstPrompt inserts the response and its first prompt
	// response in one transaction.
	CreateWithFirstPrompt(response *Response, first *PromptResponse) error

	// Append inserts a prompt response at the next sequence number. The
	// parent response row is locked for the duration so concurrent
	// appends serialize; validate runs inside the transaction against
	// the locked response and its existing chain.
	Append(responseID string, build func(response *Response, existing []PromptResponse) (*PromptResponse, error)) (*PromptResponse, error)

	GetByID(id string) (*Response, error)
	ListByProjects(projectIDs []string, feedbackFormID string) ([]Response, error)

	GetPromptResponse(id string) (*PromptResponse, error)
	ListPromptResponses(projectIDs []string, filter PromptResponseFilter) ([]PromptResponse, error)
}

// PromptResponseFilter narrows explore queries. Empty fields are ignored.
type PromptResponseFilter struct {
	ProjectID      string
	FeedbackFormID string
	PromptID       string
	ResponseID     string
}

type APIAccessRepository interface {
	Create(access *APIAccess) error
	// ActiveGrantsByTokenHash returns unexpired grants for a credential.
	ActiveGrantsByTokenHash(tokenHash string) ([]APIAccess, error)
}
