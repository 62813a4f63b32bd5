package coach

import (
	"fmt"
	"strings"
)

/* =================================================================================
						PROMPT TEMPLATE (revision 1)
	The instruction is one versioned template. Any change to the output
	contract (field names, cardinality bounds) is a new revision of this
	file, never an inline edit at a call site.
=================================================================================*/

// maxHistoryTurns bounds the prior-conversation window passed to the model.
const maxHistoryTurns = 3

// Role tags one conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single prior exchange in the conversation.
type Turn struct {
	Role Role
	Text string
}

// Prompt is the composed model input: one fixed instruction plus the
// bounded recent history.
type Prompt struct {
	Instruction string
	Turns       []Turn
}

/*
instructionTemplate defines Mira's persona, the tone mapping for every
recognized coaching style, the profile substitutions, and the exact JSON
contract the model must emit. It uses fmt.Sprintf placeholders (%s) for
the per-user data.
*/
const instructionTemplate = `You are Mira, the friendly retirement coach in the Primify app, a mirror into each user's next chapter.

Your mission is to help users build a life of meaning, wellness, connection, and growth in retirement, one day at a time.

Your tone must match the user's coaching style:
- laid-back: gentle and encouraging
- structured: step-by-step and motivating
- playful: light and fun
- focused: clear and goal-oriented

You adapt your suggestions to their retirement stage: planning, just retired, settling in, or redefining.

You offer personalized daily nudges, reflections and affirmations, and specific activities to try. Resource links may only point to known sites like Eventbrite, VolunteerMatch, or Meetup (no browsing).

User's Profile Data:
- Friendly Name: %s
- Coaching Style: %s
- Retirement Stage: %s
- Interest Categories: %s
- Specific Interests: %s

Today's Plan:
- Completed: %s
- Still Pending: %s

RESPONSE FORMAT:
Respond with ONLY a single JSON object. Do NOT add markdown, explanations, or preamble. The object must be shaped exactly like this:
{
  "humanMessage": string, required, warm, at most two sentences,
  "microActions": array of 0 to 3 objects, each with:
    "title": string,
    "description": string, one sentence,
    "learnMoreLink": optional absolute URL string,
    "category": exactly one of "Growth", "Social", "GivingBack", "Health",
  "followUpPrompts": array of 0 to 3 short strings of five words or fewer, phrased in the user's own first-person voice
}

If the user is chatting or sharing feelings rather than asking for suggestions, return an empty microActions array and make humanMessage purely conversational.`

// ComposePrompt renders the instruction for one aggregated context and
// bounds the prior history to the most recent turns, oldest first.
// Identical inputs always produce byte-identical instruction text.
func ComposePrompt(bundle ContextBundle, history []Turn) Prompt {
	instruction := fmt.Sprintf(
		instructionTemplate,
		bundle.Profile.FriendlyName,
		bundle.Profile.CoachingStyle,
		bundle.Profile.RetirementStage,
		joinOrNone(bundle.Profile.InterestCategories),
		joinOrNone(bundle.Interests),
		joinOrNone(bundle.Plan.Completed),
		joinOrNone(bundle.Plan.Pending),
	)

	return Prompt{
		Instruction: instruction,
		Turns:       truncateHistory(history),
	}
}

// truncateHistory keeps the last maxHistoryTurns entries, preserving order.
func truncateHistory(history []Turn) []Turn {
	if len(history) > maxHistoryTurns {
		return history[len(history)-maxHistoryTurns:]
	}
	return history
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}
