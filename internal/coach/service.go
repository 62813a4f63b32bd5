/*
Package coach implements the Mira conversational coaching pipeline:
per-request context aggregation, deterministic prompt composition, a single
structured completion call, and strict validation of the model's reply.
*/
package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Error taxonomy. Every failure the pipeline can produce wraps exactly one
// of these; the HTTP handler is the only place they are mapped to status
// codes, and nothing below it retries or recovers.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUpstream         = errors.New("completion service failed")
	ErrSchemaViolation  = errors.New("model reply violated the response contract")
)

// AskRequest is the validated input to one coaching exchange.
type AskRequest struct {
	UserID      string
	UserMessage string
	History     []Turn
}

// Service orchestrates one coaching request end to end. It holds no
// mutable state shared across requests; concurrent calls never interact.
type Service struct {
	aggregator *Aggregator
	llm        CompletionClient
}

// NewService wires the pipeline. The store and completion client are
// injected so tests can substitute deterministic fakes; loc is the
// reference zone for the plan-day boundary (nil means UTC).
func NewService(store Store, llm CompletionClient, loc *time.Location) *Service {
	return &Service{
		aggregator: NewAggregator(store, loc),
		llm:        llm,
	}
}

// Ask runs the pipeline: ValidateInput -> Aggregate -> Compose -> Invoke ->
// Validate. The first failing stage terminates the request; on success the
// raw validated reply text is returned for the client to render.
func (s *Service) Ask(ctx context.Context, req AskRequest) (string, error) {
	if req.UserID == "" || req.UserMessage == "" {
		return "", fmt.Errorf("%w: userId and userMessage are required", ErrInvalidInput)
	}

	bundle, err := s.aggregator.Aggregate(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	prompt := ComposePrompt(bundle, req.History)

	raw, err := s.llm.Complete(ctx, prompt.Instruction, prompt.Turns, req.UserMessage)
	if err != nil {
		return "", err
	}

	reply, err := ValidateReply(raw)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("user_id", req.UserID).
		Int("micro_actions", len(reply.MicroActions)).
		Int("follow_ups", len(reply.FollowUpPrompts)).
		Msg("Coach reply validated")

	return raw, nil
}
