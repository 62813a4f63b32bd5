package coach

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

// AskMiraRequest defines the payload expected from the client.
type AskMiraRequest struct {
	UserID         string          `json:"userId"`
	UserMessage    string          `json:"userMessage"`
	RecentMessages []RecentMessage `json:"recentMessages,omitempty"`
}

// RecentMessage is one prior turn as the client stores it. Anything that
// is not sender "user" is treated as an assistant turn.
type RecentMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// AskMiraResponse is the success payload sent back to the client.
type AskMiraResponse struct {
	Reply string `json:"reply"`
}

/* =================================================================================
									HANDLER
=================================================================================*/

// Handler exposes the coaching pipeline over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// AskMira is the endpoint entry point. Missing userId or userMessage is a
// client error and makes no downstream calls; every other failure maps to
// a 500 with a stable error string.
func (h *Handler) AskMira(c echo.Context) error {
	var req AskMiraRequest
	if err := c.Bind(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind ask-mira request body")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	if req.UserID == "" || req.UserMessage == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing userId or userMessage"})
	}

	reply, err := h.svc.Ask(c.Request().Context(), AskRequest{
		UserID:      req.UserID,
		UserMessage: req.UserMessage,
		History:     toTurns(req.RecentMessages),
	})
	if err != nil {
		return h.errorResponse(c, req.UserID, err)
	}

	return c.JSON(http.StatusOK, AskMiraResponse{Reply: reply})
}

// toTurns maps client messages to role-tagged turns. Truncation to the
// history window happens in the composer, not here.
func toTurns(messages []RecentMessage) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		role := RoleAssistant
		if m.Sender == "user" {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: m.Text})
	}
	return turns
}

// errorResponse maps the pipeline error taxonomy to the HTTP contract.
// The client always sees either a reply or a JSON error object, never a
// partially valid structured payload.
func (h *Handler) errorResponse(c echo.Context, userID string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing userId or userMessage"})

	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrStoreUnavailable):
		log.Error().Err(err).Str("user_id", userID).Msg("Context aggregation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load user profile"})

	default:
		// Upstream and schema failures look the same to the caller; the
		// distinguishing detail lives in the log line only.
		log.Error().Err(err).Str("user_id", userID).Msg("Completion failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "AI service temporarily unavailable. Please try again later.",
		})
	}
}
