package coach

/* =================================================================================
						STRUCTURED RESPONSE CONTRACT
	CoachResponse is the JSON shape the model must emit for suggestion-seeking
	turns. The GeminiSchema below is passed to the generation config so the
	model is constrained to it; the validator still re-checks everything,
	because the generator does not always comply exactly.
=================================================================================*/

// Micro action categories. Any other value fails validation outright.
const (
	CategoryGrowth     = "Growth"
	CategorySocial     = "Social"
	CategoryGivingBack = "GivingBack"
	CategoryHealth     = "Health"
)

// ValidCategories is the closed set of micro action categories.
var ValidCategories = map[string]bool{
	CategoryGrowth:     true,
	CategorySocial:     true,
	CategoryGivingBack: true,
	CategoryHealth:     true,
}

// maxMicroActions and maxFollowUpPrompts are the cardinality bounds of the
// contract. Successive prompt revisions disagreed on the follow-up bound;
// 3 is the documented contract from revision 1 onward.
const (
	maxMicroActions    = 3
	maxFollowUpPrompts = 3
	maxFollowUpWords   = 5
)

// MicroAction is a single small suggested activity.
type MicroAction struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	LearnMoreLink string `json:"learnMoreLink,omitempty"`
	Category      string `json:"category"`
}

// CoachResponse is the validated structured reply.
type CoachResponse struct {
	HumanMessage    string        `json:"humanMessage"`
	MicroActions    []MicroAction `json:"microActions"`
	FollowUpPrompts []string      `json:"followUpPrompts"`
}

// GeminiSchema defines the structure for "Controlled Generation"
// (Structured Output). It maps to Google's response_schema config field.
type GeminiSchema struct {
	Type        string                   `json:"type"`
	Description string                   `json:"description,omitempty"`
	Properties  map[string]*GeminiSchema `json:"properties,omitempty"`
	Items       *GeminiSchema            `json:"items,omitempty"`
	Required    []string                 `json:"required,omitempty"`
	Enum        []string                 `json:"enum,omitempty"`
}

// CoachResponseSchema describes the exact JSON structure the model MUST
// output. It is attached to every generation request.
var CoachResponseSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"humanMessage": {
			Type:        "STRING",
			Description: "Warm reply in Mira's voice, at most two sentences.",
		},
		"microActions": {
			Type:        "ARRAY",
			Description: "0 to 3 small concrete activities. MUST be [] when the user is not seeking suggestions.",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"title": {
						Type:        "STRING",
						Description: "Short activity title.",
					},
					"description": {
						Type:        "STRING",
						Description: "One-sentence description of the activity.",
					},
					"learnMoreLink": {
						Type:        "STRING",
						Description: "Optional absolute URL to sign up or learn more.",
					},
					"category": {
						Type: "STRING",
						Enum: []string{CategoryGrowth, CategorySocial, CategoryGivingBack, CategoryHealth},
					},
				},
				Required: []string{"title", "description", "category"},
			},
		},
		"followUpPrompts": {
			Type:        "ARRAY",
			Description: "0 to 3 short first-person prompts the user might tap next, five words or fewer each.",
			Items: &GeminiSchema{
				Type: "STRING",
			},
		},
	},
	Required: []string{"humanMessage"},
}
