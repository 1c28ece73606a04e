package llm_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/llm"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
	"bahaibot/internal/testsupport"
)

func noSleep() retry.Policy {
	p := retry.Default()
	p.MaxAttempts = 3
	p.Sleeper = func(context.Context, time.Duration) error { return nil }
	return p
}

func TestCompleteSendsPrompts(t *testing.T) {
	fake := testsupport.NewFakeLLM(t, func(req testsupport.LLMRequest) testsupport.LLMReply {
		return testsupport.LLMReply{Content: "fixed: " + req.User}
	})
	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: fake.URL(), Model: "gpt-4-turbo"}, llm.WithRetry(noSleep()))

	out, err := client.Complete(context.Background(), "Fix OCR errors.", "Baha'u'llah")
	require.NoError(t, err)
	assert.Equal(t, "fixed: Baha'u'llah", out)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Fix OCR errors.", reqs[0].System)
	assert.Equal(t, "gpt-4-turbo", reqs[0].Model)
	assert.Empty(t, reqs[0].ResponseFormat)
}

func TestCompleteJSONRequestsObjectFormat(t *testing.T) {
	fake := testsupport.NewFakeLLM(t, func(testsupport.LLMRequest) testsupport.LLMReply {
		return testsupport.LLMReply{Content: `{"ok":true}`}
	})
	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: fake.URL(), Model: "m"}, llm.WithRetry(noSleep()))

	require.NoError(t, client.HealthCheck(context.Background()))
	assert.Equal(t, "json_object", fake.Requests()[0].ResponseFormat)
}

func TestRateLimitIsRetried(t *testing.T) {
	calls := 0
	fake := testsupport.NewFakeLLM(t, func(testsupport.LLMRequest) testsupport.LLMReply {
		calls++
		if calls < 3 {
			return testsupport.LLMReply{Status: http.StatusTooManyRequests, Content: "slow down"}
		}
		return testsupport.LLMReply{Content: "done"}
	})
	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: fake.URL(), Model: "m"}, llm.WithRetry(noSleep()))

	out, err := client.Complete(context.Background(), "sys", "text")
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 3, calls)
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	calls := 0
	fake := testsupport.NewFakeLLM(t, func(testsupport.LLMRequest) testsupport.LLMReply {
		calls++
		return testsupport.LLMReply{Status: http.StatusUnauthorized, Content: "bad key"}
	})
	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: fake.URL(), Model: "m"}, llm.WithRetry(noSleep()))

	_, err := client.Complete(context.Background(), "sys", "text")
	require.Error(t, err)
	var statusErr *retry.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestEmptyContentExhaustsRetries(t *testing.T) {
	fake := testsupport.NewFakeLLM(t, func(testsupport.LLMRequest) testsupport.LLMReply {
		return testsupport.LLMReply{Content: "  "}
	})
	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: fake.URL(), Model: "m"}, llm.WithRetry(noSleep()))

	_, err := client.Complete(context.Background(), "sys", "text")
	assert.ErrorIs(t, err, services.ErrTransient)
	assert.Len(t, fake.Requests(), 3)
}

func TestCompleteRequiresKeyAndInput(t *testing.T) {
	client := llm.NewClient(llm.Config{BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err := client.Complete(context.Background(), "sys", "text")
	assert.ErrorIs(t, err, services.ErrConfiguration)

	client = llm.NewClient(llm.Config{APIKey: "k", BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err = client.Complete(context.Background(), "sys", "   ")
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDecodeJSON(t *testing.T) {
	var out map[string]any
	require.NoError(t, llm.DecodeJSON("```json\n{\"birth_date\": \"1921\"}\n```", &out))
	assert.Equal(t, "1921", out["birth_date"])

	out = nil
	require.NoError(t, llm.DecodeJSON("Here you go: {\"a\": 1} hope it helps", &out))
	assert.Equal(t, float64(1), out["a"])

	assert.Error(t, llm.DecodeJSON("no json here", &out))
	assert.Error(t, llm.DecodeJSON("", &out))
}
