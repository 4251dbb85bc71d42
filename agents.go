package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const (
	metadataContextChars = 500
	coverContextChars    = 300
)

// promptFunc matches anthropic.PromptWithSettings so tests can intercept
// the outbound request.
type promptFunc func(systemPrompt, userPrompt, jsonSchema, apiKey string, settings types.RequestSettings, files ...types.File) (*types.AnthropicResponse, error)

// AgentManager handles the LLM calls that write the dialogue script, the
// episode description, and the cover image prompt. Each call carries its
// own model, token, and temperature settings.
type AgentManager struct {
	apiKey   string
	settings *Settings
	prompt   promptFunc
}

// NewAgentManager creates the synthesis agent surface.
func NewAgentManager(apiKey string, settings *Settings) (*AgentManager, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for synthesis agents")
	}
	return &AgentManager{
		apiKey:   apiKey,
		settings: settings,
		prompt:   anthropic.PromptWithSettings,
	}, nil
}

// complete runs one prompt with the given agent settings and returns the
// response text.
func (am *AgentManager) complete(systemPrompt, userPrompt string, cfg AgentSettings) (string, error) {
	settings := types.RequestSettings{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	response, err := am.prompt(strings.TrimSpace(systemPrompt), userPrompt, "", am.apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

// WriteScript turns an article into a two-speaker dialogue script. The raw
// model output is filtered and validated against the speaker-tag grammar
// before it is returned.
func (am *AgentManager) WriteScript(title, content string) (string, error) {
	prompt := fmt.Sprintf("Blog Post:\n\nTitle: %q\n\nContent: %q", title, content)

	raw, err := am.complete(scriptSystemPrompt, prompt, am.settings.Agents.Script)
	if err != nil {
		return "", fmt.Errorf("script agent: %w", err)
	}

	script, err := ValidateDialogueScript(raw)
	if err != nil {
		return "", err
	}
	return script, nil
}

// WriteDescription generates the episode description from the title and
// script.
func (am *AgentManager) WriteDescription(title, script string) (string, error) {
	prompt := fmt.Sprintf("Title: %q\n\nEpisode script summary: %q", title, clip(script, metadataContextChars))

	raw, err := am.complete(metadataSystemPrompt, prompt, am.settings.Agents.Metadata)
	if err != nil {
		return "", fmt.Errorf("metadata agent: %w", err)
	}

	description := strings.TrimSpace(raw)
	if description == "" {
		return "", fmt.Errorf("no description in metadata response")
	}
	return description, nil
}

// WriteCoverPrompt generates the image synthesis prompt for the episode
// cover.
func (am *AgentManager) WriteCoverPrompt(title, script string) (string, error) {
	prompt := fmt.Sprintf("Title: %q\n\nContent Summary: %q", title, clip(script, coverContextChars))

	raw, err := am.complete(coverSystemPrompt, prompt, am.settings.Agents.Cover)
	if err != nil {
		return "", fmt.Errorf("cover agent: %w", err)
	}

	coverPrompt := strings.TrimSpace(raw)
	if coverPrompt == "" {
		return "", fmt.Errorf("no prompt in cover agent response")
	}
	return coverPrompt, nil
}

// clip limits context sent to the cheaper agents, backing up to a rune
// boundary so the prompt never carries a split UTF-8 sequence.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
