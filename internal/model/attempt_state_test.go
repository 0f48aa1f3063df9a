package model

import (
	"reflect"
	"testing"
)

func newTestState() *AttemptState {
	return NewAttemptState("code-1", 42, []int{1, 2, 3})
}

func TestNewAttemptState(t *testing.T) {
	state := newTestState()
	if len(state.States) != 3 {
		t.Fatalf("expected 3 question states, got %d", len(state.States))
	}
	for no, st := range state.States {
		if st != QuestionNotAttempted {
			t.Errorf("question %d: expected not_attempted, got %s", no, st)
		}
	}
	if state.Submitted || state.ReadOnly {
		t.Error("new state must not be submitted or read-only")
	}
}

func TestToggleAttempt(t *testing.T) {
	state := newTestState()

	if err := state.ToggleAttempt(1); err != nil {
		t.Fatalf("toggle to attempting: %v", err)
	}
	if state.States[1] != QuestionAttempting {
		t.Fatalf("expected attempting, got %s", state.States[1])
	}

	// 回切时草稿保留
	state.Drafts[1] = DraftAnswer{Text: "draft"}
	if err := state.ToggleAttempt(1); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if state.States[1] != QuestionNotAttempted {
		t.Fatalf("expected not_attempted, got %s", state.States[1])
	}
	if state.Drafts[1].Text != "draft" {
		t.Error("draft must survive toggling off")
	}

	if err := state.ToggleAttempt(99); err != ErrUnknownQuestion {
		t.Errorf("expected ErrUnknownQuestion, got %v", err)
	}
}

func TestSaveDraftRequiresAttempting(t *testing.T) {
	state := newTestState()

	if err := state.SaveDraft(1, "hello", ""); err != ErrQuestionNotAttempted {
		t.Fatalf("expected ErrQuestionNotAttempted, got %v", err)
	}

	state.ToggleAttempt(1)
	if err := state.SaveDraft(1, "hello", ""); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if state.Drafts[1].Text != "hello" {
		t.Errorf("draft text = %q", state.Drafts[1].Text)
	}

	// 空附件参数不得清掉已有附件
	state.SaveDraft(1, "hello", "/uploads/a.png")
	state.SaveDraft(1, "updated", "")
	if state.Drafts[1].AttachmentURL != "/uploads/a.png" {
		t.Errorf("attachment lost: %q", state.Drafts[1].AttachmentURL)
	}
}

func TestSubmitQuestionRejectsEmptyDraft(t *testing.T) {
	state := newTestState()
	state.ToggleAttempt(1)

	if err := state.SubmitQuestion(1); err != ErrEmptyAnswer {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}

	state.SaveDraft(1, "   \t\n  ", "")
	if err := state.SubmitQuestion(1); err != ErrEmptyAnswer {
		t.Fatalf("whitespace-only draft: expected ErrEmptyAnswer, got %v", err)
	}

	// 仅附件、无文本也可提交
	state.SaveDraft(1, "", "/uploads/a.png")
	if err := state.SubmitQuestion(1); err != nil {
		t.Fatalf("attachment-only submit: %v", err)
	}
	if state.States[1] != QuestionSubmitted {
		t.Fatalf("expected submitted, got %s", state.States[1])
	}
}

func TestSubmittedQuestionIsFrozen(t *testing.T) {
	state := newTestState()
	state.ToggleAttempt(1)
	state.SaveDraft(1, "answer", "")
	if err := state.SubmitQuestion(1); err != nil {
		t.Fatal(err)
	}

	if err := state.ToggleAttempt(1); err != ErrQuestionSubmitted {
		t.Errorf("toggle after submit: expected ErrQuestionSubmitted, got %v", err)
	}
	if err := state.SaveDraft(1, "changed", ""); err != ErrQuestionSubmitted {
		t.Errorf("draft after submit: expected ErrQuestionSubmitted, got %v", err)
	}
	if err := state.SubmitQuestion(1); err != ErrQuestionSubmitted {
		t.Errorf("double submit: expected ErrQuestionSubmitted, got %v", err)
	}
}

func TestAllSubmittedRecomputed(t *testing.T) {
	state := newTestState()
	if state.AllSubmitted() {
		t.Fatal("fresh state must not be all-submitted")
	}

	// 任意真子集提交都不够
	for _, subset := range [][]int{{1}, {2}, {3}, {1, 2}, {1, 3}, {2, 3}} {
		s := newTestState()
		for _, no := range subset {
			s.ToggleAttempt(no)
			s.SaveDraft(no, "x", "")
			s.SubmitQuestion(no)
		}
		if s.AllSubmitted() {
			t.Errorf("subset %v must not satisfy the gate", subset)
		}
		if got := s.SubmittedCount(); got != len(subset) {
			t.Errorf("subset %v: SubmittedCount = %d", subset, got)
		}
	}

	for no := 1; no <= 3; no++ {
		state.ToggleAttempt(no)
		state.SaveDraft(no, "x", "")
		state.SubmitQuestion(no)
	}
	if !state.AllSubmitted() {
		t.Fatal("all questions submitted, gate must pass")
	}

	empty := NewAttemptState("code-1", 42, nil)
	if empty.AllSubmitted() {
		t.Error("assignment without questions must not pass the gate")
	}
}

func TestOutstandingSorted(t *testing.T) {
	state := NewAttemptState("code-1", 42, []int{5, 1, 3})
	state.ToggleAttempt(3)
	state.SaveDraft(3, "x", "")
	state.SubmitQuestion(3)

	if got := state.Outstanding(); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("Outstanding() = %v, want [1 5]", got)
	}
}

func TestAutofill(t *testing.T) {
	state := newTestState()
	state.ToggleAttempt(2)
	state.SaveDraft(2, "my own work", "")

	filled, err := state.Autofill(map[int]string{1: "Paris", 3: "42", 99: "orphan"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(filled, []int{1, 3}) {
		t.Fatalf("filled = %v, want [1 3]", filled)
	}
	if state.States[1] != QuestionSubmitted || state.States[3] != QuestionSubmitted {
		t.Error("autofilled questions must be submitted")
	}
	if state.Drafts[1].Text != "Paris" || state.Drafts[3].Text != "42" {
		t.Error("autofill must write the parsed answers into drafts")
	}
	// 未命中的题目保持原状
	if state.States[2] != QuestionAttempting || state.Drafts[2].Text != "my own work" {
		t.Error("unmatched question must keep its state and draft")
	}
	if _, ok := state.States[99]; ok {
		t.Error("unknown question numbers must be ignored")
	}
}

func TestAutofillBlockedAfterSubmit(t *testing.T) {
	state := newTestState()
	state.MarkSubmitted()
	if _, err := state.Autofill(map[int]string{1: "x"}); err != ErrAssignmentSubmitted {
		t.Errorf("expected ErrAssignmentSubmitted, got %v", err)
	}

	state = newTestState()
	state.ReadOnly = true
	if _, err := state.Autofill(map[int]string{1: "x"}); err != ErrAttemptReadOnly {
		t.Errorf("expected ErrAttemptReadOnly, got %v", err)
	}
}

func TestMarkSubmittedIsOneWay(t *testing.T) {
	state := newTestState()
	state.MarkSubmitted()

	if err := state.ToggleAttempt(1); err != ErrAssignmentSubmitted {
		t.Errorf("toggle: expected ErrAssignmentSubmitted, got %v", err)
	}
	if err := state.SaveDraft(1, "x", ""); err != ErrAssignmentSubmitted {
		t.Errorf("draft: expected ErrAssignmentSubmitted, got %v", err)
	}
	if err := state.SubmitQuestion(1); err != ErrAssignmentSubmitted {
		t.Errorf("submit: expected ErrAssignmentSubmitted, got %v", err)
	}
}

func TestResyncFromReview(t *testing.T) {
	state := newTestState()
	state.ToggleAttempt(1)
	state.SaveDraft(1, "unsaved draft", "")
	state.ToggleAttempt(2)
	state.SaveDraft(2, "submitted answer", "")
	state.SubmitQuestion(2)

	discarded := state.ResyncFromReview(map[int]string{
		1: "graded answer 1",
		2: "graded answer 2",
		3: "graded answer 3",
		9: "orphan",
	})

	if !reflect.DeepEqual(discarded, []int{1}) {
		t.Fatalf("discarded = %v, want [1]", discarded)
	}
	if !state.Submitted || !state.ReadOnly {
		t.Fatal("resynced state must be submitted and read-only")
	}
	for no := 1; no <= 3; no++ {
		if state.States[no] != QuestionSubmitted {
			t.Errorf("question %d: expected submitted, got %s", no, state.States[no])
		}
	}
	if state.Drafts[1].Text != "graded answer 1" {
		t.Errorf("draft 1 = %q", state.Drafts[1].Text)
	}
	if _, ok := state.States[9]; ok {
		t.Error("orphan answers must not create new question states")
	}

	// 只读后一切编辑被拒
	if err := state.ToggleAttempt(1); err != ErrAttemptReadOnly {
		t.Errorf("expected ErrAttemptReadOnly, got %v", err)
	}
}
