// Package llm talks to an OpenAI-compatible responses endpoint. The service
// consumes only output text plus token usage; it never trusts the model to
// return well-formed structures beyond best-effort line extraction.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Usage mirrors the token accounting returned by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Result is the only shape the rest of the service consumes.
type Result struct {
	OutputText string `json:"output_text"`
	Model      string `json:"model"`
	Usage      Usage  `json:"usage"`
}

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// Client calls a chat-completions endpoint over HTTP.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient builds a Generator against baseURL (e.g. https://api.openai.com/v1).
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c, model: model}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt and returns the model's text plus usage.
func (c *Client) Generate(ctx context.Context, prompt string) (*Result, error) {
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:    c.model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("llm request failed: %s", msg)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	model := out.Model
	if model == "" {
		model = c.model
	}
	return &Result{
		OutputText: out.Choices[0].Message.Content,
		Model:      model,
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		},
	}, nil
}

var proposalLineRx = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+?)\s*$`)

// ExtractProposalTitles pulls candidate recipe titles out of free-form model
// output, one per bullet or numbered line. Best effort only: prose lines are
// ignored rather than rejected.
func ExtractProposalTitles(text string) []string {
	var titles []string
	for _, line := range strings.Split(text, "\n") {
		m := proposalLineRx.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.Trim(m[1], "\"*")
		if title == "" || len(title) > 120 {
			continue
		}
		titles = append(titles, title)
	}
	return titles
}
