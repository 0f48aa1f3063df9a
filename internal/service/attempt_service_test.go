package service

import (
	"testing"

	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/util"
)

func TestOutstandingErrorMessage(t *testing.T) {
	one := &OutstandingError{QuestionNos: []int{3}}
	if got := one.Error(); got != "1 question has not been submitted yet: question 3" {
		t.Errorf("single outstanding: %q", got)
	}

	many := &OutstandingError{QuestionNos: []int{1, 4, 5}}
	if got := many.Error(); got != "3 questions have not been submitted yet" {
		t.Errorf("multiple outstanding: %q", got)
	}
}

func TestReconcileQuestionSet(t *testing.T) {
	state := model.NewAttemptState("code-1", 7, []int{1, 2, 3})
	state.ToggleAttempt(2)
	state.SaveDraft(2, "keep me", "")

	// 教师删了第 3 题、加了第 4 题
	reconcileQuestionSet(state, []int{1, 2, 4})

	if _, ok := state.States[3]; ok {
		t.Error("removed question must be dropped from the session")
	}
	if _, ok := state.Drafts[3]; ok {
		t.Error("removed question's draft must be dropped")
	}
	if state.States[4] != model.QuestionNotAttempted {
		t.Errorf("added question state = %s", state.States[4])
	}
	if state.States[2] != model.QuestionAttempting || state.Drafts[2].Text != "keep me" {
		t.Error("surviving question must keep its state and draft")
	}
}

func TestBuildSubmissionAnswersPlaceholder(t *testing.T) {
	state := model.NewAttemptState("code-1", 7, []int{1, 2, 3})
	state.ToggleAttempt(1)
	state.SaveDraft(1, "  勾股定理  ", "")
	state.ToggleAttempt(2)
	state.SaveDraft(2, "   \n\t", "/uploads/photo-2.jpg")
	state.ToggleAttempt(3)
	state.SaveDraft(3, "", "/uploads/photo-3.jpg")

	byNo := map[int]model.SubmissionAnswer{}
	for _, a := range buildSubmissionAnswers(state) {
		byNo[a.QuestionNo] = a
	}
	if len(byNo) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(byNo))
	}

	if byNo[1].Answer != "  勾股定理  " {
		t.Errorf("real text must be stored as written, got %q", byNo[1].Answer)
	}
	// 空白正文与空正文一视同仁：只有附件时落占位文本，不落空白串
	if byNo[2].Answer != util.NoAnswerPlaceholder {
		t.Errorf("whitespace-only text with attachment: got %q", byNo[2].Answer)
	}
	if byNo[2].AttachmentURL != "/uploads/photo-2.jpg" {
		t.Errorf("attachment lost: %q", byNo[2].AttachmentURL)
	}
	if byNo[3].Answer != util.NoAnswerPlaceholder {
		t.Errorf("empty text with attachment: got %q", byNo[3].Answer)
	}
}
