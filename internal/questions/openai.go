package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

const openAISystemPrompt = `You write multiple-choice trivia. Reply with JSON only, shaped as
{"questions":[{"question":"...","choices":["...","...","...","..."],"correctAnswer":"..."}]}.
Every question has exactly four choices and correctAnswer repeats one choice verbatim.`

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) ([]engine.Descriptor, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, errors.New("OpenAI API key is not configured")
	}
	count := req.Count
	if count <= 0 {
		count = 5
	}
	reqBody := openAIChatRequest{
		Model: o.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Write %d %s-difficulty trivia questions about %q.", count, req.Difficulty, req.Topic)},
		},
		Temperature: 0.7,
		MaxTokens:   300 * count,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAI request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAI request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(o.APIKey))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach OpenAI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAI response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("OpenAI returned no choices")
	}
	return parseQuestionList(parsed.Choices[0].Message.Content)
}

// parseQuestionList accepts {"questions":[...]} or a bare array, optionally in a code fence.
func parseQuestionList(content string) ([]engine.Descriptor, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var items []json.RawMessage
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return nil, fmt.Errorf("failed to parse question list: %w", err)
		}
	} else {
		var wrapped struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse question list: %w", err)
		}
		items = wrapped.Questions
	}
	if len(items) == 0 {
		return nil, errors.New("OpenAI did not return questions in the expected format")
	}
	return NormalizeAll(items)
}
