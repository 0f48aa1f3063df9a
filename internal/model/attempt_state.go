package model

import (
	"errors"
	"sort"
	"strings"
	"time"
)

type QuestionState string

const (
	QuestionNotAttempted QuestionState = "not_attempted"
	QuestionAttempting   QuestionState = "attempting"
	QuestionSubmitted    QuestionState = "submitted"
)

var (
	ErrAssignmentSubmitted  = errors.New("assignment already submitted")
	ErrAttemptReadOnly      = errors.New("attempt is read-only after review")
	ErrQuestionSubmitted    = errors.New("question already submitted")
	ErrUnknownQuestion      = errors.New("question not part of this assignment")
	ErrQuestionNotAttempted = errors.New("question is not being attempted")
	ErrEmptyAnswer          = errors.New("answer text or attachment is required before submitting")
)

// DraftAnswer 学生作答草稿，仅存在于答题会话中，不落库
type DraftAnswer struct {
	Text          string `json:"text,omitempty"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
}

func (d DraftAnswer) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && d.AttachmentURL == ""
}

// AttemptState 一个学生对一份作业的答题会话。状态迁移全部通过本文件的方法完成，
// 以 QuestionNo 为唯一键。Submitted 为单向闸门，置位后任何题目不得再进入编辑状态。
type AttemptState struct {
	AssignmentCode string                `json:"assignmentCode"`
	UserID         uint                  `json:"userId"`
	States         map[int]QuestionState `json:"states"`
	Drafts         map[int]DraftAnswer   `json:"drafts"`
	Submitted      bool                  `json:"submitted"`
	ReadOnly       bool                  `json:"readOnly"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func NewAttemptState(assignmentCode string, userID uint, questionNos []int) *AttemptState {
	states := make(map[int]QuestionState, len(questionNos))
	for _, no := range questionNos {
		states[no] = QuestionNotAttempted
	}
	return &AttemptState{
		AssignmentCode: assignmentCode,
		UserID:         userID,
		States:         states,
		Drafts:         make(map[int]DraftAnswer),
		UpdatedAt:      time.Now(),
	}
}

func (a *AttemptState) guard(questionNo int) error {
	if a.ReadOnly {
		return ErrAttemptReadOnly
	}
	if a.Submitted {
		return ErrAssignmentSubmitted
	}
	if _, ok := a.States[questionNo]; !ok {
		return ErrUnknownQuestion
	}
	return nil
}

// ToggleAttempt 在 not_attempted 与 attempting 之间切换，草稿保留
func (a *AttemptState) ToggleAttempt(questionNo int) error {
	if err := a.guard(questionNo); err != nil {
		return err
	}
	switch a.States[questionNo] {
	case QuestionSubmitted:
		return ErrQuestionSubmitted
	case QuestionAttempting:
		a.States[questionNo] = QuestionNotAttempted
	default:
		a.States[questionNo] = QuestionAttempting
	}
	a.UpdatedAt = time.Now()
	return nil
}

// SaveDraft 仅允许在 attempting 状态下修改草稿
func (a *AttemptState) SaveDraft(questionNo int, text, attachmentURL string) error {
	if err := a.guard(questionNo); err != nil {
		return err
	}
	switch a.States[questionNo] {
	case QuestionSubmitted:
		return ErrQuestionSubmitted
	case QuestionNotAttempted:
		return ErrQuestionNotAttempted
	}
	draft := a.Drafts[questionNo]
	draft.Text = text
	if attachmentURL != "" {
		draft.AttachmentURL = attachmentURL
	}
	a.Drafts[questionNo] = draft
	a.UpdatedAt = time.Now()
	return nil
}

// SubmitQuestion 前置条件：草稿文本去除空白后非空，或已有附件
func (a *AttemptState) SubmitQuestion(questionNo int) error {
	if err := a.guard(questionNo); err != nil {
		return err
	}
	if a.States[questionNo] == QuestionSubmitted {
		return ErrQuestionSubmitted
	}
	if a.Drafts[questionNo].Empty() {
		return ErrEmptyAnswer
	}
	a.States[questionNo] = QuestionSubmitted
	a.UpdatedAt = time.Now()
	return nil
}

// AllSubmitted 作业级提交闸门：每次调用都从状态集合重新推导，不做缓存
func (a *AttemptState) AllSubmitted() bool {
	for _, st := range a.States {
		if st != QuestionSubmitted {
			return false
		}
	}
	return len(a.States) > 0
}

func (a *AttemptState) SubmittedCount() int {
	n := 0
	for _, st := range a.States {
		if st == QuestionSubmitted {
			n++
		}
	}
	return n
}

// Outstanding 返回未提交题号，升序
func (a *AttemptState) Outstanding() []int {
	var nos []int
	for no, st := range a.States {
		if st != QuestionSubmitted {
			nos = append(nos, no)
		}
	}
	sort.Ints(nos)
	return nos
}

// Autofill 将解析得到的答案合并进草稿并直接置为 submitted，未解析到的题目保持原状。
// 返回实际写入的题号。
func (a *AttemptState) Autofill(parsed map[int]string) ([]int, error) {
	if a.ReadOnly {
		return nil, ErrAttemptReadOnly
	}
	if a.Submitted {
		return nil, ErrAssignmentSubmitted
	}
	var filled []int
	for no, text := range parsed {
		if _, ok := a.States[no]; !ok {
			continue
		}
		draft := a.Drafts[no]
		draft.Text = text
		a.Drafts[no] = draft
		a.States[no] = QuestionSubmitted
		filled = append(filled, no)
	}
	sort.Ints(filled)
	a.UpdatedAt = time.Now()
	return filled, nil
}

// MarkSubmitted 作业级单向闸门置位
func (a *AttemptState) MarkSubmitted() {
	a.Submitted = true
	a.UpdatedAt = time.Now()
}

// ResyncFromReview 评审落地后以服务端答案为准重建会话：所有题目冻结为 submitted，
// 草稿替换为已提交答案。返回被覆盖掉的未提交草稿题号（升序），用于提示草稿丢失。
func (a *AttemptState) ResyncFromReview(answers map[int]string) []int {
	var discarded []int
	for no, st := range a.States {
		if st != QuestionSubmitted && strings.TrimSpace(a.Drafts[no].Text) != "" {
			discarded = append(discarded, no)
		}
	}
	sort.Ints(discarded)

	for no := range a.States {
		a.States[no] = QuestionSubmitted
	}
	for no, text := range answers {
		if _, ok := a.States[no]; !ok {
			// 服务端答案中出现未知题号：仅展示用孤儿数据，不纳入状态机
			continue
		}
		a.Drafts[no] = DraftAnswer{Text: text}
	}
	a.Submitted = true
	a.ReadOnly = true
	a.UpdatedAt = time.Now()
	return discarded
}
