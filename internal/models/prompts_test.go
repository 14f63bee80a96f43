package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textPrompt(maxLength int) *Prompt {
	p := &Prompt{Type: PromptTypeText, Text: "Any comments?", MaxLength: maxLength}
	p.ID = "prompt-text"
	return p
}

func binaryPrompt() *Prompt {
	p := &Prompt{
		Type:          PromptTypeBinary,
		Text:          "Was this helpful?",
		PositiveLabel: "Helpful",
		NegativeLabel: "Not helpful",
	}
	p.ID = "prompt-binary"
	return p
}

func rangedPrompt() *Prompt {
	p := &Prompt{Type: PromptTypeRanged, Text: "How easy was it?"}
	p.ID = "prompt-ranged"
	low := PromptOption{PromptID: p.ID, Label: "Hard", Value: "1"}
	low.ID = "option-low"
	high := PromptOption{PromptID: p.ID, Label: "Easy", Value: "5"}
	high.ID = "option-high"
	p.Options = []PromptOption{low, high}
	return p
}

func TestValidateAnswer_Text(t *testing.T) {
	prompt := textPrompt(0)

	shell, err := prompt.ValidateAnswer("works great")
	require.NoError(t, err)
	require.NotNil(t, shell.TextValue)
	assert.Equal(t, "works great", *shell.TextValue)
	assert.Equal(t, prompt.ID, shell.PromptID)
}

func TestValidateAnswer_TextRejectsEmpty(t *testing.T) {
	prompt := textPrompt(0)

	_, err := prompt.ValidateAnswer("   ")
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrKindValidation, domainErr.Kind)
}

func TestValidateAnswer_TextEnforcesLimit(t *testing.T) {
	// Default limit applies when the prompt sets none.
	prompt := textPrompt(0)
	_, err := prompt.ValidateAnswer(strings.Repeat("x", DefaultTextMaxLength+1))
	require.Error(t, err)

	_, err = prompt.ValidateAnswer(strings.Repeat("x", DefaultTextMaxLength))
	require.NoError(t, err)

	// A prompt-level limit overrides the default.
	prompt = textPrompt(10)
	_, err = prompt.ValidateAnswer(strings.Repeat("x", 11))
	require.Error(t, err)
}

func TestValidateAnswer_TextLimitCountsCharacters(t *testing.T) {
	prompt := textPrompt(5)

	// Five three-byte runes are within a five-character limit.
	_, err := prompt.ValidateAnswer(strings.Repeat("日", 5))
	require.NoError(t, err)

	_, err = prompt.ValidateAnswer(strings.Repeat("日", 6))
	require.Error(t, err)
}

func TestValidateAnswer_TextRejectsNonString(t *testing.T) {
	_, err := textPrompt(0).ValidateAnswer(true)
	require.Error(t, err)
}

func TestValidateAnswer_Binary(t *testing.T) {
	prompt := binaryPrompt()

	shell, err := prompt.ValidateAnswer(false)
	require.NoError(t, err)
	require.NotNil(t, shell.BinaryValue)
	assert.False(t, *shell.BinaryValue)

	_, err = prompt.ValidateAnswer("yes")
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrKindValidation, domainErr.Kind)
}

func TestValidateAnswer_Ranged(t *testing.T) {
	prompt := rangedPrompt()

	shell, err := prompt.ValidateAnswer("option-high")
	require.NoError(t, err)
	require.NotNil(t, shell.OptionID)
	assert.Equal(t, "option-high", *shell.OptionID)
}

func TestValidateAnswer_RangedUnknownOption(t *testing.T) {
	prompt := rangedPrompt()

	_, err := prompt.ValidateAnswer("option-from-other-prompt")
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrKindUnknownOption, domainErr.Kind)
}

func TestAnswer_RenderingPerVariant(t *testing.T) {
	text := "free text"
	pr := &PromptResponse{TextValue: &text}
	assert.Equal(t, "free text", pr.Answer(textPrompt(0)))

	positive := true
	pr = &PromptResponse{BinaryValue: &positive}
	rendered, ok := pr.Answer(binaryPrompt()).(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, rendered["value"])
	assert.Equal(t, "Helpful", rendered["label"])

	optionID := "option-low"
	pr = &PromptResponse{OptionID: &optionID}
	rendered, ok = pr.Answer(rangedPrompt()).(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "option-low", rendered["id"])
	assert.Equal(t, "Hard", rendered["label"])
	assert.Equal(t, "1", rendered["value"])
}

func TestCheckEnabledCapacity(t *testing.T) {
	require.NoError(t, checkEnabledCapacity(0))
	require.NoError(t, checkEnabledCapacity(MaxEnabledPrompts-1))

	// The form already holds the maximum; a further enabled prompt is
	// rejected before persistence.
	err := checkEnabledCapacity(MaxEnabledPrompts)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrKindValidation, domainErr.Kind)

	require.Error(t, checkEnabledCapacity(MaxEnabledPrompts+1))
}

func TestPromptValidate(t *testing.T) {
	p := binaryPrompt()
	p.FeedbackFormID = "form-1"
	require.NoError(t, p.Validate())

	p.NegativeLabel = ""
	require.Error(t, p.Validate())

	long := textPrompt(0)
	long.FeedbackFormID = "form-1"
	long.Text = strings.Repeat("q", maxPromptTextLength+1)
	require.Error(t, long.Validate())
}

func TestFeedbackFormDetail_SkipsDisabledPrompts(t *testing.T) {
	form := &FeedbackForm{Name: "Docs", Enabled: true}
	form.ID = "form-1"

	visible := *binaryPrompt()
	visible.FeedbackFormID = form.ID
	visible.Enabled = true
	hidden := *textPrompt(0)
	hidden.FeedbackFormID = form.ID
	hidden.Enabled = false
	form.Prompts = []Prompt{visible, hidden}

	detail := form.Represent()
	require.Len(t, detail.Prompts, 1)
	assert.Equal(t, visible.ID, detail.Prompts[0].ID)
}
