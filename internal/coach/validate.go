package coach

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// ValidateReply parses the raw model text against the CoachResponse
// contract. The policy is strict-schema-with-one-narrow-default: an absent
// microActions array defaults to empty (the "no suggestions" path),
// everything else either conforms or fails with ErrSchemaViolation. No
// best-effort coercion, so upstream contract drift surfaces in tests
// instead of being silently repaired.
func ValidateReply(raw string) (CoachResponse, error) {
	var resp CoachResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return CoachResponse{}, fmt.Errorf("%w: reply is not the expected JSON object: %v", ErrSchemaViolation, err)
	}

	if strings.TrimSpace(resp.HumanMessage) == "" {
		return CoachResponse{}, fmt.Errorf("%w: humanMessage is missing or empty", ErrSchemaViolation)
	}

	if len(resp.MicroActions) > maxMicroActions {
		return CoachResponse{}, fmt.Errorf("%w: %d micro actions, contract allows at most %d", ErrSchemaViolation, len(resp.MicroActions), maxMicroActions)
	}

	for i, action := range resp.MicroActions {
		if !ValidCategories[action.Category] {
			return CoachResponse{}, fmt.Errorf("%w: microActions[%d] category %q is not recognized", ErrSchemaViolation, i, action.Category)
		}
		if action.LearnMoreLink != "" && !isValidLink(action.LearnMoreLink) {
			return CoachResponse{}, fmt.Errorf("%w: microActions[%d] learnMoreLink %q is not a valid URL", ErrSchemaViolation, i, action.LearnMoreLink)
		}
	}

	if len(resp.FollowUpPrompts) > maxFollowUpPrompts {
		return CoachResponse{}, fmt.Errorf("%w: %d follow-up prompts, contract allows at most %d", ErrSchemaViolation, len(resp.FollowUpPrompts), maxFollowUpPrompts)
	}

	// Prompt wording quality is the generator's problem; overlong entries
	// are only logged so the contract drift is visible in diagnostics.
	for i, prompt := range resp.FollowUpPrompts {
		if len(strings.Fields(prompt)) > maxFollowUpWords {
			log.Warn().Int("index", i).Str("prompt", prompt).Msg("follow-up prompt exceeds the soft word limit")
		}
	}

	// The narrow defaults: absent arrays become empty, valid sequences.
	if resp.MicroActions == nil {
		resp.MicroActions = []MicroAction{}
	}
	if resp.FollowUpPrompts == nil {
		resp.FollowUpPrompts = []string{}
	}

	return resp, nil
}

// isValidLink accepts absolute http(s) URLs only. Reachability is not
// checked, just shape.
func isValidLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
