package classify

import (
	"context"
	"strings"
)

// Label is the classification assigned to an inbound reply.
type Label string

const (
	LabelUnsubscribe   Label = "unsubscribe"
	LabelWrongPerson   Label = "wrong_person"
	LabelPositive      Label = "positive"
	LabelNotInterested Label = "not_interested"
	LabelObjection     Label = "objection"
	LabelNeutral       Label = "neutral"
)

// Result carries a classification label and its confidence.
type Result struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier turns raw reply text into a classification. Implementations must
// be safe for concurrent use. The context and error exist for remote
// implementations; callers degrade to Neutral on error so compliance-relevant
// downstream actions still run when a label is determinable.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Neutral is the fallback result used when no rule matches or the classifier
// itself fails.
func Neutral() Result {
	return Result{Label: LabelNeutral, Confidence: confidenceNeutral}
}

// Fixed confidence per category for the rule-based engine.
const (
	confidenceUnsubscribe   = 0.95
	confidenceWrongPerson   = 0.90
	confidencePositive      = 0.85
	confidenceNotInterested = 0.85
	confidenceObjection     = 0.70
	confidenceNeutral       = 0.50
)

// category is one ordered rule: first category with a keyword hit wins.
type category struct {
	label      Label
	confidence float64
	keywords   []string
}

// KeywordClassifier is the deterministic rule-based classifier. Keyword sets
// cover English and German, matched case-insensitively by substring.
type KeywordClassifier struct {
	categories []category
}

// NewKeywordClassifier builds the default rule set. Order is the compliance
// priority: unsubscribe > wrong_person > positive > not_interested >
// objection > neutral.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{categories: []category{
		{LabelUnsubscribe, confidenceUnsubscribe, []string{
			"unsubscribe", "opt out", "opt-out", "remove me", "take me off",
			"stop emailing", "stop contacting", "do not contact",
			"abmelden", "austragen", "keine e-mails mehr", "keine emails mehr",
			"nicht mehr kontaktieren", "keine weiteren nachrichten",
		}},
		{LabelWrongPerson, confidenceWrongPerson, []string{
			"wrong person", "not the right person", "no longer with",
			"no longer work", "left the company", "not responsible",
			"falscher ansprechpartner", "nicht zuständig", "nicht mehr im unternehmen",
			"bin nicht der richtige",
		}},
		{LabelPositive, confidencePositive, []string{
			"interested", "sounds good", "sounds great", "let's talk",
			"lets talk", "schedule a call", "book a call", "tell me more",
			"send more info", "happy to chat",
			"interesse", "klingt gut", "klingt interessant", "gerne mehr",
			"termin vereinbaren", "rufen sie mich an",
		}},
		{LabelNotInterested, confidenceNotInterested, []string{
			"not interested", "no interest", "no thanks", "no thank you",
			"not a fit", "not for us", "we're all set", "we are all set",
			"kein interesse", "kein bedarf", "nicht interessiert",
			"passt nicht zu uns",
		}},
		{LabelObjection, confidenceObjection, []string{
			"too expensive", "budget", "not right now", "not at this time",
			"maybe later", "next quarter", "next year", "check back",
			"zu teuer", "kein budget", "gerade nicht", "im moment nicht",
			"später nochmal", "nächstes jahr",
		}},
	}}
}

// Classify evaluates categories in priority order and returns the first
// match. Text with no keyword hit falls back to neutral at low confidence.
// The rule-based engine never errors.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (Result, error) {
	lowered := strings.ToLower(text)
	for _, cat := range c.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(lowered, kw) {
				return Result{Label: cat.label, Confidence: cat.confidence}, nil
			}
		}
	}
	return Neutral(), nil
}
