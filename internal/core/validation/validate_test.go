package validation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

const validBrief = `{
  "title": "Launch plan",
  "summary": "Launch on March 15 with a 250k budget.",
  "sections": [{"heading": "Timeline", "bullets": ["Launch March 15"]}],
  "next_actions": [{"action": "Schedule design review", "first_step": "Send calendar invite"}]
}`

func TestParseValidBrief(t *testing.T) {
	resp, err := Parse(validBrief)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if resp.Title != "Launch plan" || len(resp.Sections) != 1 || len(resp.NextActions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Sections[0].Bullets[0] != "Launch March 15" {
		t.Fatalf("unexpected bullets: %+v", resp.Sections[0].Bullets)
	}
}

func TestParseStripsCodeFence(t *testing.T) {
	resp, err := Parse("```json\n" + validBrief + "\n```")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if resp.Title != "Launch plan" {
		t.Fatalf("unexpected title %q", resp.Title)
	}
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	_, err := Parse(`{"title":"t","summary":"s","sections":[],"next_actions":[],"confidence":0.9}`)
	if err != nil {
		t.Fatalf("unknown keys should be tolerated, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "not json", raw: "Sure! Here is your brief:", want: domain.ErrMalformedOutput},
		{name: "truncated json", raw: `{"title": "t", "summary"`, want: domain.ErrMalformedOutput},
		{name: "missing summary", raw: `{"title":"t","sections":[],"next_actions":[]}`, want: domain.ErrUnexpectedSchema},
		{name: "bullets not strings", raw: `{"title":"t","summary":"s","sections":[{"heading":"h","bullets":[1,2]}],"next_actions":[]}`, want: domain.ErrUnexpectedSchema},
		{name: "next action missing first_step", raw: `{"title":"t","summary":"s","sections":[],"next_actions":[{"action":"a"}]}`, want: domain.ErrUnexpectedSchema},
		{name: "top level array", raw: `[]`, want: domain.ErrUnexpectedSchema},
		{name: "sections wrong type", raw: `{"title":"t","summary":"s","sections":"none","next_actions":[]}`, want: domain.ErrUnexpectedSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseNormalizesNilSlices(t *testing.T) {
	resp, err := Parse(`{"title":"t","summary":"s","sections":[{"heading":"h","bullets":[]}],"next_actions":[]}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if resp.NextActions == nil || resp.Sections[0].Bullets == nil {
		t.Fatalf("expected empty slices, got %+v", resp)
	}
}

func TestSanitizeDropsBlankNextActions(t *testing.T) {
	resp := domain.TransformResponse{
		Title:   "t",
		Summary: "s",
		NextActions: []domain.NextAction{
			{Action: "first", FirstStep: "do 1"},
			{Action: "", FirstStep: "orphan step"},
			{Action: "second", FirstStep: "   "},
			{Action: "third", FirstStep: "do 3"},
			{Action: "\t", FirstStep: "\n"},
		},
	}

	out, dropped := Sanitize(resp)
	if dropped != 3 {
		t.Fatalf("expected 3 dropped, got %d", dropped)
	}
	want := []domain.NextAction{{Action: "first", FirstStep: "do 1"}, {Action: "third", FirstStep: "do 3"}}
	if !reflect.DeepEqual(out.NextActions, want) {
		t.Fatalf("unexpected survivors: %+v", out.NextActions)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []domain.TransformResponse{
		{},
		{NextActions: []domain.NextAction{{Action: "a", FirstStep: "b"}}},
		{NextActions: []domain.NextAction{{Action: " ", FirstStep: "b"}, {Action: "c", FirstStep: "d"}}},
		{Sections: []domain.Section{{Heading: "h"}}, NextActions: []domain.NextAction{{}}},
	}

	for i, in := range inputs {
		once, _ := Sanitize(in)
		twice, droppedAgain := Sanitize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("case %d: sanitize not idempotent: %+v vs %+v", i, once, twice)
		}
		if droppedAgain != 0 {
			t.Fatalf("case %d: second pass dropped %d entries", i, droppedAgain)
		}
	}
}
