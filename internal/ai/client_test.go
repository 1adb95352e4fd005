// AngelaMos | 2026
// client_test.go

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/medprep/internal/config"
	"github.com/carterperez-dev/medprep/internal/core"
)

type capturedRequest struct {
	Model          string  `json:"model"`
	Temperature    float32 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newProvider(
	t *testing.T,
	status int,
	content string,
	totalTokens int,
	captured *capturedRequest,
) *OpenAIClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			}},
			"usage": map[string]any{
				"prompt_tokens":     totalTokens / 2,
				"completion_tokens": totalTokens - totalTokens/2,
				"total_tokens":      totalTokens,
			},
		})
	}))
	t.Cleanup(srv.Close)

	return NewOpenAIClient(config.AIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
	})
}

func TestCompleteFreeText(t *testing.T) {
	var captured capturedRequest
	client := newProvider(t, http.StatusOK, "  Beta blockers reduce heart rate.  ", 321, &captured)

	completion, err := client.Complete(context.Background(), Request{
		System: "You are a tutor.",
		History: []Message{
			{Role: RoleUser, Text: "What do beta blockers do?"},
			{Role: RoleAssistant, Text: "They block beta receptors."},
		},
		Prompt:      "And clinically?",
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.Equal(t, "Beta blockers reduce heart rate.", completion.Text)
	assert.Equal(t, 321, completion.Units)
	assert.Equal(t, "stop", completion.FinishReason)

	assert.Nil(t, captured.ResponseFormat)
	assert.InDelta(t, 0.2, captured.Temperature, 0.001)
	assert.Equal(t, DefaultMaxTokens, captured.MaxTokens)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "And clinically?", captured.Messages[3].Content)
}

func TestCompleteStructured(t *testing.T) {
	var captured capturedRequest
	client := newProvider(t, http.StatusOK, "```json\n{\"answer\": 42}\n```", 50, &captured)

	completion, err := client.Complete(context.Background(), Request{
		Prompt:     "Return JSON",
		Structured: true,
	})
	require.NoError(t, err)

	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.JSONEq(t, `{"answer": 42}`, completion.Text)
}

func TestCompleteStructuredMalformed(t *testing.T) {
	client := newProvider(t, http.StatusOK, "Sorry, here is your quiz: {broken", 80, nil)

	completion, err := client.Complete(context.Background(), Request{
		Prompt:     "Return JSON",
		Structured: true,
	})
	require.Error(t, err)
	assert.Nil(t, completion)
	assert.ErrorIs(t, err, core.ErrMalformedGeneration)
	assert.NotErrorIs(t, err, core.ErrGenerationFailed)

	var malformed *MalformedError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Raw, "{broken")
}

func TestCompleteTemperature(t *testing.T) {
	tests := []struct {
		name      string
		requested float32
		check     func(t *testing.T, got float32)
	}{
		{
			name:      "zero uses client default",
			requested: 0,
			check:     func(t *testing.T, got float32) { assert.InDelta(t, DefaultTemperature, got, 0.001) },
		},
		{
			name:      "deterministic is sent as a nonzero epsilon",
			requested: Deterministic,
			check: func(t *testing.T, got float32) {
				assert.Greater(t, got, float32(0))
				assert.Less(t, got, float32(1e-6))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured capturedRequest
			client := newProvider(t, http.StatusOK, "ok", 5, &captured)

			_, err := client.Complete(context.Background(), Request{Prompt: "hi", Temperature: tt.requested})
			require.NoError(t, err)
			tt.check(t, captured.Temperature)
		})
	}
}

func TestCompleteProviderFailure(t *testing.T) {
	client := newProvider(t, http.StatusInternalServerError, "", 0, nil)

	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.NotErrorIs(t, err, core.ErrMalformedGeneration)
}

func TestCompleteMissingUsage(t *testing.T) {
	client := newProvider(t, http.StatusOK, "ok", 0, nil)

	completion, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Zero(t, completion.Units)
}

func TestDisabledClient(t *testing.T) {
	client := NewClient(config.AIConfig{})

	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, core.ErrAIUnavailable)
}

func TestRequestInputText(t *testing.T) {
	req := Request{
		System:  "sys",
		History: []Message{{Role: RoleUser, Text: "one"}, {Role: RoleAssistant, Text: "two"}},
		Prompt:  "three",
	}
	assert.Equal(t, "sysonetwothree", req.InputText())
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewOpenAIClient(config.AIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	assert.NoError(t, client.Ping(context.Background()))

	disabled, ok := NewClient(config.AIConfig{}).(interface{ Ping(context.Context) error })
	require.True(t, ok)
	assert.ErrorIs(t, disabled.Ping(context.Background()), core.ErrAIUnavailable)
}
