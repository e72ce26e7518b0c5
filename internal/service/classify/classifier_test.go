package classify

import (
	"context"
	"testing"
)

func classifyText(t *testing.T, c *KeywordClassifier, text string) Result {
	t.Helper()
	res, err := c.Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("Classify(%q): %v", text, err)
	}
	return res
}

func TestClassify_Unsubscribe(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []string{
		"Please unsubscribe me from this list",
		"REMOVE ME from your database",
		"Bitte nicht mehr kontaktieren, austragen",
	}
	for _, text := range cases {
		res := classifyText(t, c, text)
		if res.Label != LabelUnsubscribe {
			t.Errorf("Classify(%q) = %q, want unsubscribe", text, res.Label)
		}
		if res.Confidence != 0.95 {
			t.Errorf("Classify(%q) confidence = %v, want 0.95", text, res.Confidence)
		}
	}
}

func TestClassify_UnsubscribeWinsOverPositive(t *testing.T) {
	c := NewKeywordClassifier()

	// Opt-out must never be masked by a co-occurring sales signal.
	res := classifyText(t, c, "This sounds interesting, but please unsubscribe me anyway.")
	if res.Label != LabelUnsubscribe {
		t.Errorf("got %q, want unsubscribe to win over positive", res.Label)
	}
}

func TestClassify_WrongPersonWinsOverPositive(t *testing.T) {
	c := NewKeywordClassifier()

	res := classifyText(t, c, "Sounds good, but I'm the wrong person for this — try procurement.")
	if res.Label != LabelWrongPerson {
		t.Errorf("got %q, want wrong_person", res.Label)
	}
}

func TestClassify_Categories(t *testing.T) {
	c := NewKeywordClassifier()

	cases := map[string]Label{
		"Yes, I'm interested — let's talk next week": LabelPositive,
		"Klingt gut, gerne mehr Informationen":       LabelPositive,
		"Not interested, thanks":                     LabelNotInterested,
		"Kein Bedarf aktuell":                        LabelNotInterested,
		"This is too expensive for our budget":       LabelObjection,
		"Im Moment nicht, vielleicht später nochmal": LabelObjection,
	}
	for text, want := range cases {
		if got := classifyText(t, c, text).Label; got != want {
			t.Errorf("Classify(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestClassify_NeutralDefault(t *testing.T) {
	c := NewKeywordClassifier()

	res := classifyText(t, c, "Thanks for reaching out. I will forward this internally.")
	if res.Label != LabelNeutral {
		t.Errorf("got %q, want neutral", res.Label)
	}
	if res.Confidence != 0.5 {
		t.Errorf("neutral confidence = %v, want 0.5", res.Confidence)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := NewKeywordClassifier()

	if got := classifyText(t, c, "NOT INTERESTED.").Label; got != LabelNotInterested {
		t.Errorf("got %q, want not_interested", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewKeywordClassifier()

	text := "kein interesse, zu teuer, bitte austragen"
	first := classifyText(t, c, text)
	for i := 0; i < 10; i++ {
		if got := classifyText(t, c, text); got != first {
			t.Fatalf("classification not deterministic: %v vs %v", got, first)
		}
	}
	if first.Label != LabelUnsubscribe {
		t.Errorf("priority order violated: got %q", first.Label)
	}
}
