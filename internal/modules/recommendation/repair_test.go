package recommendation

import (
	"errors"
	"testing"
)

func TestExtractCandidates(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"bare array", `[{"college_name":"A"},{"college_name":"B"}]`, 2},
		{"fenced with trailing comma", "```json\n[\n  {\"college_name\": \"A\", \"fit_category\": \"reach\",},\n  {\"college_name\": \"B\"},\n]\n```", 2},
		{"plain fence", "```\n[{\"college_name\":\"A\"}]\n```", 1},
		{"prose around", "Here are your colleges:\n[{\"college_name\":\"A\"}]\nGood luck!", 1},
		{"nested arrays", `[{"college_name":"A","match_reasons":["x","y",]}]`, 1},
		{"empty array", "[]", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractCandidates(tc.raw)
			if err != nil {
				t.Fatalf("ExtractCandidates: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("len: want=%d got=%d", tc.want, len(got))
			}
		})
	}
}

func TestExtractCandidatesFailures(t *testing.T) {
	cases := map[string]string{
		"no brackets":     "I'm sorry, I cannot help with that request.",
		"only open":       "[{\"college_name\": \"A\"}",
		"reversed":        "] nothing here [",
		"broken json":     "[{college_name: A}]",
		"empty":           "",
		"object not list": `{"college_name":"A"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractCandidates(raw)
			if !errors.Is(err, ErrUnparseableResponse) {
				t.Fatalf("want ErrUnparseableResponse, got %v", err)
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	if got := stripCodeFences("```json\n[1]\n```"); got != "[1]" {
		t.Fatalf("want [1] got %q", got)
	}
	if got := stripCodeFences("```[1]```"); got != "[1]" {
		t.Fatalf("single line fence: want [1] got %q", got)
	}
	if got := stripCodeFences("  [1]  "); got != "[1]" {
		t.Fatalf("no fence: want [1] got %q", got)
	}
}
