package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

type AIService struct {
	client *openai.Client
}

// SuggestedKeyResult is a draft key result proposed by the AI backend.
type SuggestedKeyResult struct {
	Title       string               `json:"title"`
	Type        models.KeyResultType `json:"type"`
	TargetValue float64              `json:"targetValue"`
	Unit        string               `json:"unit"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// NewAIServiceWithConfig creates an AIService from a full client config
func NewAIServiceWithConfig(config openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(config),
	}
}

// SuggestKeyResults asks GPT for measurable key results for the objective
func (s *AIService) SuggestKeyResults(ctx context.Context, objective *models.Objective) ([]SuggestedKeyResult, error) {
	if s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	prompt := fmt.Sprintf(`You are an OKR coach. Propose up to %d measurable key results for the objective below.

Objective: %s
Description: %s
Period: %s to %s

Return a JSON array in this format:
[
  {
    "title": "short, measurable statement",
    "type": "percentage | number | boolean",
    "targetValue": 100,
    "unit": "unit of the target, empty for percentage and boolean"
  }
]

Rules:
- boolean key results use targetValue 1
- return an empty array [] if the objective is too vague
- return JSON only, without any explanation`,
		constants.MaxSuggestedKeyResults,
		objective.Title,
		objective.Description,
		models.FromMillis(objective.StartDate).Format("2006-01-02"),
		models.FromMillis(objective.EndDate).Format("2006-01-02"),
	)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var suggestions []SuggestedKeyResult
	if err := json.Unmarshal([]byte(content), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return suggestions, nil
}

// stripCodeFence removes a surrounding markdown code block
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
