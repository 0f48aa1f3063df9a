package service

import (
	"math"
	"testing"

	"edu_collaborate_backend/internal/model"
)

func TestClassifyRate(t *testing.T) {
	cases := []struct {
		rate float64
		want AnswerStatus
	}{
		{10, AnswerCorrect},
		{7, AnswerCorrect},
		{6.9, AnswerPartiallyCorrect},
		{4, AnswerPartiallyCorrect},
		{3.9, AnswerIncorrect},
		{0, AnswerIncorrect},
	}
	for _, tc := range cases {
		if got := ClassifyRate(tc.rate); got != tc.want {
			t.Errorf("ClassifyRate(%v) = %s, want %s", tc.rate, got, tc.want)
		}
	}
}

func TestParseReviewPayload(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		payload, err := parseReviewPayload(`{"rates": {"1": 8.5, "2": 3}, "summary": "不错"}`)
		if err != nil {
			t.Fatal(err)
		}
		if payload.Rates["1"] != 8.5 || payload.Rates["2"] != 3 {
			t.Errorf("rates = %v", payload.Rates)
		}
		if payload.Summary != "不错" {
			t.Errorf("summary = %q", payload.Summary)
		}
	})

	t.Run("json wrapped in code fence", func(t *testing.T) {
		raw := "以下是批改结果：\n```json\n{\"rates\": {\"1\": 5}}\n```\n希望有帮助。"
		payload, err := parseReviewPayload(raw)
		if err != nil {
			t.Fatal(err)
		}
		if payload.Rates["1"] != 5 {
			t.Errorf("rates = %v", payload.Rates)
		}
	})

	t.Run("missing rates", func(t *testing.T) {
		if _, err := parseReviewPayload(`{"summary": "好"}`); err == nil {
			t.Fatal("payload without rates must be rejected")
		}
	})

	t.Run("not json at all", func(t *testing.T) {
		if _, err := parseReviewPayload("这位同学写得很好。"); err == nil {
			t.Fatal("free text must be rejected")
		}
	})
}

func TestApplyRates(t *testing.T) {
	submission := &model.AssignmentSubmission{Status: model.SubmissionSubmitted}
	answers := []model.SubmissionAnswer{
		{QuestionNo: 1},
		{QuestionNo: 2},
		{QuestionNo: 3},
	}

	applyRates(submission, answers, map[int]float64{1: 10, 2: 5, 3: 0})

	if submission.OverallScore == nil {
		t.Fatal("overall score must be set")
	}
	if got := *submission.OverallScore; math.Abs(got-50) > 1e-9 {
		t.Errorf("overall score = %v, want 50", got)
	}
	if submission.Status != model.SubmissionReviewed {
		t.Errorf("status = %s", submission.Status)
	}
	if submission.ReviewedAt == nil {
		t.Error("reviewed timestamp must be set")
	}
}

func TestApplyRatesKeepsExistingRateForUnratedAnswers(t *testing.T) {
	submission := &model.AssignmentSubmission{Status: model.SubmissionSubmitted}
	answers := []model.SubmissionAnswer{
		{QuestionNo: 1, Rate: 8},
		{QuestionNo: 2, Rate: 6},
	}

	// 只重评第 1 题，第 2 题沿用已有评分
	applyRates(submission, answers, map[int]float64{1: 4})

	if got := *submission.OverallScore; math.Abs(got-50) > 1e-9 {
		t.Errorf("overall score = %v, want 50", got)
	}
}

func TestApplyRatesNoAnswers(t *testing.T) {
	submission := &model.AssignmentSubmission{Status: model.SubmissionSubmitted}
	applyRates(submission, nil, map[int]float64{})
	if submission.OverallScore != nil {
		t.Error("no answers must leave the score unset")
	}
	if submission.Status != model.SubmissionSubmitted {
		t.Error("no answers must leave the status unchanged")
	}
}
