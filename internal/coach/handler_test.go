package coach

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(store *fakeStore, llm *fakeLLM) *echo.Echo {
	e := echo.New()
	h := NewHandler(NewService(store, llm, time.UTC))
	e.POST("/ask-mira", h.AskMira)
	return e
}

func doAsk(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ask-mira", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAskMiraMissingFields(t *testing.T) {
	store := &fakeStore{profile: terryProfile()}
	llm := &fakeLLM{reply: compliantReply}
	e := newTestEcho(store, llm)

	for _, body := range []string{
		`{}`,
		`{"userId": "terry-1"}`,
		`{"userMessage": "hello"}`,
	} {
		rec := doAsk(e, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		assert.JSONEq(t, `{"error": "Missing userId or userMessage"}`, rec.Body.String())
	}

	assert.Zero(t, store.profileCalls)
	assert.Zero(t, llm.calls)
}

func TestAskMiraSuccess(t *testing.T) {
	store := &fakeStore{profile: terryProfile()}
	llm := &fakeLLM{reply: compliantReply}
	e := newTestEcho(store, llm)

	rec := doAsk(e, `{"userId": "terry-1", "userMessage": "I want something fun to do"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AskMiraResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, compliantReply, resp.Reply)
}

func TestAskMiraStoreFailure(t *testing.T) {
	store := &fakeStore{profileErr: errors.New("db down")}
	llm := &fakeLLM{reply: compliantReply}
	e := newTestEcho(store, llm)

	rec := doAsk(e, `{"userId": "terry-1", "userMessage": "hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Failed to load user profile"}`, rec.Body.String())
	assert.Zero(t, llm.calls)
}

func TestAskMiraUpstreamFailure(t *testing.T) {
	store := &fakeStore{profile: terryProfile()}
	llm := &fakeLLM{err: errors.New("quota exceeded")}
	e := newTestEcho(store, llm)

	rec := doAsk(e, `{"userId": "terry-1", "userMessage": "hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "AI service temporarily unavailable. Please try again later."}`, rec.Body.String())
}

func TestAskMiraSchemaViolation(t *testing.T) {
	store := &fakeStore{profile: terryProfile()}
	llm := &fakeLLM{reply: `{"followUpPrompts": ["no message"]}`}
	e := newTestEcho(store, llm)

	rec := doAsk(e, `{"userId": "terry-1", "userMessage": "hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "AI service temporarily unavailable. Please try again later."}`, rec.Body.String())
}

func TestAskMiraMapsRecentMessages(t *testing.T) {
	store := &fakeStore{profile: terryProfile()}
	llm := &fakeLLM{reply: compliantReply}
	e := newTestEcho(store, llm)

	body := `{
		"userId": "terry-1",
		"userMessage": "and now?",
		"recentMessages": [
			{"sender": "user", "text": "one"},
			{"sender": "mira", "text": "two"},
			{"sender": "user", "text": "three"},
			{"sender": "assistant", "text": "four"},
			{"sender": "user", "text": "five"}
		]
	}`

	rec := doAsk(e, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Only the last 3 survive, with non-"user" senders mapped to assistant.
	require.Len(t, llm.gotTurns, 3)
	assert.Equal(t, Turn{Role: RoleUser, Text: "three"}, llm.gotTurns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Text: "four"}, llm.gotTurns[1])
	assert.Equal(t, Turn{Role: RoleUser, Text: "five"}, llm.gotTurns[2])
}
