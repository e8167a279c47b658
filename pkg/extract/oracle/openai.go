package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// promptTemplate is the system prompt sent with every extraction request.
// The %s placeholder receives the comma-separated allowed field list.
const promptTemplate = "Extract corporate travel & expense policy rules as JSON. " +
	"Return a single JSON object with two keys: 'rules' and 'policy_statements'.\n" +
	"'rules' should be an array of objects with: name, description, condition, " +
	"sql_condition, threshold, unit, category, scope, applies_when, " +
	"violation_message, enforceable (true/false), confidence ('high'|'medium'|'low'), " +
	"source_sentence_index (int).\n" +
	"'policy_statements' should be an array of cleaned natural-language sentences " +
	"extracted from the policy; each item can be either a string or an object with " +
	"'sentence' and 'source_index'.\n" +
	"Use only the following transaction fields in conditions: %s. " +
	"Do NOT invent new field names.\n" +
	"If the source policy mentions entities or fields that are not present in the " +
	"transaction schema (e.g., specific merchants, cities, or non-existent columns), " +
	"do NOT create an enforceable rule for them: instead include that text in " +
	"'policy_statements' and for any rule you mark enforceable=false add a short " +
	"note in description explaining why.\n" +
	"For condition use the operators ==, !=, >, >=, <, <=, and/or. " +
	"Also provide sql_condition using =, <>, AND, OR for SQL.\n" +
	"Return ONLY the JSON object and nothing else."

// ClientConfig configures the OpenAI-backed oracle.
type ClientConfig struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string

	// Model is the chat model used for extraction.
	// Default: "gpt-5-mini"
	Model string

	// MaxCompletionTokens bounds the extraction response size.
	// Default: 4096
	MaxCompletionTokens int
}

// DefaultClientConfig returns the default oracle client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Model:               "gpt-5-mini",
		MaxCompletionTokens: 4096,
	}
}

// Client is the OpenAI-backed Oracle implementation.
type Client struct {
	api    *openai.Client
	config *ClientConfig
	logger *slog.Logger
}

// NewClient creates an oracle client. The API key is required; model and
// token limit fall back to defaults when unset.
func NewClient(config *ClientConfig, logger *slog.Logger) (*Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("oracle API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultClientConfig().Model
	}
	if config.MaxCompletionTokens <= 0 {
		config.MaxCompletionTokens = DefaultClientConfig().MaxCompletionTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:    openai.NewClient(config.APIKey),
		config: config,
		logger: logger.With("component", "extract.oracle"),
	}, nil
}

// Model returns the configured model identifier, used as the rule set
// version for oracle-sourced extractions.
func (c *Client) Model() string {
	return c.config.Model
}

// ExtractRules implements Oracle. The round trip is synchronous; callers
// bound it with ctx. A transport or API failure is returned as an error;
// a malformed response body degrades to a zero-rule payload.
func (c *Client) ExtractRules(ctx context.Context, policyText string, allowedFields []string) (*Payload, error) {
	prompt := fmt.Sprintf(promptTemplate, strings.Join(allowedFields, ", "))

	c.logger.Debug("calling extraction oracle",
		"model", c.config.Model,
		"prompt_len", len(prompt),
		"text_len", len(policyText),
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: policyText},
		},
		MaxCompletionTokens: c.config.MaxCompletionTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn("oracle returned no choices")
		return &Payload{Model: c.config.Model, Provenance: ProvenanceNone}, nil
	}

	content := resp.Choices[0].Message.Content
	payload := Decode(content)
	payload.Model = c.config.Model

	if payload.Provenance == ProvenanceNone {
		c.logger.Warn("oracle response was not decodable, treating as zero rules",
			"response_len", len(content),
		)
	} else {
		c.logger.Info("oracle extraction decoded",
			"model", c.config.Model,
			"rule_count", len(payload.Rules),
			"statement_count", len(payload.PolicyStatements),
			"provenance", payload.Provenance,
		)
	}

	return payload, nil
}
