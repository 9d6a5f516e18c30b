package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroq_Ask(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Vendeu bem!  "}}]}`))
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "gsk_test", "mixtral-8x7b-32768", nil)
	answer, err := c.Ask(context.Background(), "system prompt", "quanto vendi?")
	require.NoError(t, err)

	assert.Equal(t, "Vendeu bem!", answer)
	assert.Equal(t, "Bearer gsk_test", auth)
	assert.Equal(t, "mixtral-8x7b-32768", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "quanto vendi?", got.Messages[1].Content)
}

func TestGroq_NoKey(t *testing.T) {
	_, err := NewGroqClient("http://unused", "", "m", nil).Ask(context.Background(), "s", "q")
	assert.ErrorIs(t, err, ErrLLMDisabled)
}

func TestGroq_FailuresOpenTheBreaker(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "k", "m", NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2}))
	for i := 0; i < 2; i++ {
		_, err := c.Ask(context.Background(), "s", "q")
		var up *UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, http.StatusTooManyRequests, up.Status)
	}

	_, err := c.Ask(context.Background(), "s", "q")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, hits)
	assert.Equal(t, CBOpen, c.Breaker().State())
}

func TestGroq_EmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewGroqClient(srv.URL, "k", "m", nil).Ask(context.Background(), "s", "q")
	assert.Error(t, err)
}
