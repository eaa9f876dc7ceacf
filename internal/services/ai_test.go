package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
)

func newFakeOpenAI(t *testing.T, status int, content string) *AIService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Messages, 1) {
			assert.Equal(t, openai.GPT4o, req.Model)
			assert.Contains(t, req.Messages[0].Content, "Grow revenue")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: openai.GPT4o,
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	return NewAIServiceWithConfig(config)
}

func sampleObjective() *models.Objective {
	start, end := dates()
	return &models.Objective{
		Title:     "Grow revenue",
		Type:      models.ObjectiveTypeTeam,
		StartDate: models.ToMillis(start),
		EndDate:   models.ToMillis(end),
	}
}

func TestAIService_SuggestKeyResults(t *testing.T) {
	content := "```json\n[{\"title\":\"Close 10 deals\",\"type\":\"number\",\"targetValue\":10,\"unit\":\"deals\"}]\n```"
	ai := newFakeOpenAI(t, http.StatusOK, content)

	got, err := ai.SuggestKeyResults(context.Background(), sampleObjective())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, SuggestedKeyResult{Title: "Close 10 deals", Type: models.KeyResultTypeNumber, TargetValue: 10, Unit: "deals"}, got[0])
}

func TestAIService_UnparseableResponse(t *testing.T) {
	ai := newFakeOpenAI(t, http.StatusOK, "I cannot help with that")

	_, err := ai.SuggestKeyResults(context.Background(), sampleObjective())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse AI response")
}

func TestAIService_APIError(t *testing.T) {
	ai := newFakeOpenAI(t, http.StatusTooManyRequests, "")

	_, err := ai.SuggestKeyResults(context.Background(), sampleObjective())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API error")
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"[]":                "[]",
		"  []  ":            "[]",
		"```json\n[1]\n```": "[1]",
		"```\n[2]\n```":     "[2]",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripCodeFence(in), in)
	}
}
