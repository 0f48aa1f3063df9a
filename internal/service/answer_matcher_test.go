package service

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseAnswersStructured(t *testing.T) {
	text := "Q1: The mitochondria is the powerhouse of the cell\nQ2: NOT FOUND\nQ3: 42"

	answers := ParseAnswers(text, []int{1, 2, 3})

	if got := answers[1]; got != "The mitochondria is the powerhouse of the cell" {
		t.Errorf("Q1 = %q", got)
	}
	if _, ok := answers[2]; ok {
		t.Error("NOT FOUND answer must be absent from the map")
	}
	// 纯数字短答案是合法答案
	if got := answers[3]; got != "42" {
		t.Errorf("Q3 = %q, want 42", got)
	}
	if len(answers) != 2 {
		t.Errorf("expected 2 answers, got %d", len(answers))
	}
}

func TestParseAnswersMultiline(t *testing.T) {
	text := "Q1: first line\nsecond line of the same answer\nQ2: short one"

	answers := ParseAnswers(text, []int{1, 2})
	if !strings.Contains(answers[1], "second line") {
		t.Errorf("Q1 must span until the next marker, got %q", answers[1])
	}
	if answers[2] != "short one" {
		t.Errorf("Q2 = %q", answers[2])
	}
}

func TestParseAnswersLabeledFallback(t *testing.T) {
	text := `Question 1
Answer: Photosynthesis converts light into chemical energy.

Question 2
Solution: x equals seven`

	answers := ParseAnswers(text, []int{1, 2})
	if got := answers[1]; got != "Photosynthesis converts light into chemical energy." {
		t.Errorf("Q1 = %q", got)
	}
	if got := answers[2]; got != "x equals seven" {
		t.Errorf("Q2 = %q", got)
	}
}

func TestParseAnswersNumberedFallback(t *testing.T) {
	text := "1) Newton's first law\n2. Ans: conservation of momentum\n3: NOT FOUND"

	answers := ParseAnswers(text, []int{1, 2, 3})
	if got := answers[1]; got != "Newton's first law" {
		t.Errorf("Q1 = %q", got)
	}
	if got := answers[2]; got != "conservation of momentum" {
		t.Errorf("Q2 must have its Ans label stripped, got %q", got)
	}
	if _, ok := answers[3]; ok {
		t.Error("NOT FOUND must not be treated as an answer")
	}
}

func TestParseAnswersRejectsFragments(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"punctuation only", "Q1: ..."},
		{"dash fragment", "Q1: -."},
		{"empty segment", "Q1: \n"},
		{"short mixed fragment", "Q1: a)."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if answers := ParseAnswers(tc.text, []int{1}); len(answers) != 0 {
				t.Errorf("%q must produce no answers, got %v", tc.text, answers)
			}
		})
	}
}

func TestParseAnswersAcceptsShortAlnum(t *testing.T) {
	for _, input := range []string{"Q1: 42", "Q1: ok", "Q1: A", "Q1: 7"} {
		answers := ParseAnswers(input, []int{1})
		if len(answers) != 1 {
			t.Errorf("%q: purely alphanumeric short answer must be accepted", input)
		}
	}
}

func TestParseAnswersEmptyInput(t *testing.T) {
	if answers := ParseAnswers("", []int{1, 2}); len(answers) != 0 {
		t.Errorf("empty input must produce no answers, got %v", answers)
	}
	if answers := ParseAnswers("   \n\t ", []int{1, 2}); len(answers) != 0 {
		t.Errorf("blank input must produce no answers, got %v", answers)
	}
}

func TestParseAnswersDeterministic(t *testing.T) {
	text := "Q1: alpha\nQ2: beta\n3) gamma delta"
	nos := []int{1, 2, 3}

	first := ParseAnswers(text, nos)
	for i := 0; i < 5; i++ {
		if again := ParseAnswers(text, nos); !reflect.DeepEqual(first, again) {
			t.Fatalf("parse not deterministic: %v vs %v", first, again)
		}
	}
}

func TestCleanAnswerStripsLabels(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Answer: Paris", "Paris"},
		{"ans - the treaty of 1648", "the treaty of 1648"},
		{"Solution: y = mx + b", "y = mx + b"},
		{"  plain text  ", "plain text"},
	}
	for _, tc := range cases {
		got, ok := cleanAnswer(tc.in)
		if !ok {
			t.Errorf("cleanAnswer(%q) rejected", tc.in)
			continue
		}
		if got != tc.want {
			t.Errorf("cleanAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt([]QuestionRef{
		{QuestionNo: 1, Question: "What is the capital of France?"},
		{QuestionNo: 2, Question: "Compute 6*7."},
	})

	for _, want := range []string{"Q1: What is the capital of France?", "Q2: Compute 6*7.", "NOT FOUND"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
