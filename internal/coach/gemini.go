package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// --- Gemini API Configuration ---
const (
	geminiAPIURL       = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-preview-09-2025:generateContent?key="
	completionTimeout  = 30 * time.Second
	structuredMimeType = "application/json"
)

// CompletionClient is the single-call contract against the generative
// service. Tests substitute a deterministic fake.
type CompletionClient interface {
	Complete(ctx context.Context, instruction string, turns []Turn, userMessage string) (string, error)
}

// --- Structs for Gemini API Request/Response ---
// (These are internal to the coach package)

type geminiPayload struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string        `json:"responseMimeType"`
	ResponseSchema   *GeminiSchema `json:"response_schema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the Gemini REST API with the coach response schema
// attached. One request per Complete call: no retry, no streaming. A
// bounded timeout covers the whole exchange; on expiry the caller sees
// ErrUpstream like any other upstream failure.
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGeminiClient() *GeminiClient {
	return &GeminiClient{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: geminiAPIURL,
		client:  &http.Client{Timeout: completionTimeout},
	}
}

// Complete sends the instruction as the system turn, the bounded history as
// intermediate turns, and the new user message last, then returns the raw
// text of the first candidate.
func (g *GeminiClient) Complete(ctx context.Context, instruction string, turns []Turn, userMessage string) (string, error) {
	if g.apiKey == "" {
		log.Error().Msg("GEMINI_API_KEY environment variable is not set")
		return "", fmt.Errorf("%w: server is not configured for completions", ErrUpstream)
	}

	contents := make([]geminiContent, 0, len(turns)+1)
	for _, t := range turns {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: t.Text}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: userMessage}},
	})

	payload := geminiPayload{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: instruction}},
		},
		Contents: contents,
		GenerationConfig: &generationConfig{
			ResponseMimeType: structuredMimeType,
			ResponseSchema:   CoachResponseSchema,
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling payload: %v", ErrUpstream, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", g.baseURL+g.apiKey, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Warn().Int("status", resp.StatusCode).Bytes("body", body).Msg("Gemini API returned non-200 status")
		return "", fmt.Errorf("%w: API returned non-200 status: %s", ErrUpstream, resp.Status)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content found in Gemini response", ErrUpstream)
	}

	// The raw JSON string from the "text" field
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}
