package service

import (
	"testing"

	"edu_collaborate_backend/internal/model"
)

func TestGradeQuizAnswer(t *testing.T) {
	cases := []struct {
		name         string
		questionType string
		answer       string
		userAnswer   string
		want         bool
	}{
		{"exact match", "single_choice", "B", "B", true},
		{"case insensitive", "single_choice", "B", "b", true},
		{"whitespace trimmed", "fill_blank", "photosynthesis", "  Photosynthesis ", true},
		{"wrong answer", "single_choice", "B", "C", false},
		{"empty user answer", "single_choice", "B", "", false},
		{"blank user answer", "fill_blank", "B", "   ", false},
		{"true/false", "true_false", "true", "TRUE", true},
		{"multiple choice same order", "multiple_choice", "A,B,C", "A,B,C", true},
		{"multiple choice reordered", "multiple_choice", "A,B,C", "c, a, B", true},
		{"multiple choice missing option", "multiple_choice", "A,B,C", "A,B", false},
		{"multiple choice extra option", "multiple_choice", "A,B", "A,B,C", false},
		{"multiple choice ragged commas", "multiple_choice", "A, B", "b,,a,", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := model.QuizQuestion{QuestionType: tc.questionType, Answer: tc.answer}
			if got := gradeQuizAnswer(q, tc.userAnswer); got != tc.want {
				t.Errorf("gradeQuizAnswer(%q, %q) = %v, want %v", tc.answer, tc.userAnswer, got, tc.want)
			}
		})
	}
}

func TestNormalizeChoiceSet(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"A,B,C", "a,b,c"},
		{"c, a, B", "a,b,c"},
		{"b,,a,", "a,b"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeChoiceSet(tc.in); got != tc.want {
			t.Errorf("normalizeChoiceSet(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
