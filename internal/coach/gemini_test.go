package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiEnvelope(text string) string {
	env := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	b, _ := json.Marshal(env)
	return string(b)
}

func newStubClient(srv *httptest.Server) *GeminiClient {
	return &GeminiClient{
		apiKey:  "test-key",
		baseURL: srv.URL + "/?key=",
		client:  srv.Client(),
	}
}

func TestGeminiClientCompletePayloadShape(t *testing.T) {
	var got geminiPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(geminiEnvelope(`{"humanMessage": "hi"}`)))
	}))
	defer srv.Close()

	turns := []Turn{
		{Role: RoleUser, Text: "earlier question"},
		{Role: RoleAssistant, Text: "earlier answer"},
	}

	raw, err := newStubClient(srv).Complete(context.Background(), "be Mira", turns, "new question")
	require.NoError(t, err)
	assert.Equal(t, `{"humanMessage": "hi"}`, raw)

	// Instruction rides as the system turn.
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be Mira", got.SystemInstruction.Parts[0].Text)

	// History in order, assistant mapped to the model role, user message last.
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "earlier answer", got.Contents[1].Parts[0].Text)
	assert.Equal(t, "user", got.Contents[2].Role)
	assert.Equal(t, "new question", got.Contents[2].Parts[0].Text)

	// Structured output is always requested.
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	require.NotNil(t, got.GenerationConfig.ResponseSchema)
	assert.Equal(t, "OBJECT", got.GenerationConfig.ResponseSchema.Type)
}

func TestGeminiClientNon200IsUpstreamError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newStubClient(srv).Complete(context.Background(), "sys", nil, "hi")

	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one attempt, no retries")
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	_, err := newStubClient(srv).Complete(context.Background(), "sys", nil, "hi")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestGeminiClientMissingKey(t *testing.T) {
	c := &GeminiClient{client: &http.Client{Timeout: time.Second}}

	_, err := c.Complete(context.Background(), "sys", nil, "hi")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestGeminiClientCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiEnvelope("ok")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newStubClient(srv).Complete(ctx, "sys", nil, "hi")
	require.ErrorIs(t, err, ErrUpstream)
}
