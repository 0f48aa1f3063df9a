package model

import (
	"encoding/json"
	"time"
)

// swagger:model Quiz
type Quiz struct {
	BaseModel
	QuizCode    string     `gorm:"size:36;uniqueIndex;not null" json:"quizCode"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	ClassroomID uint       `gorm:"index;type:bigint unsigned" json:"classroomId"`
	CreatorID   uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	TimeLimit   int        `gorm:"default:0" json:"timeLimit"` // 分钟
	IsPublished bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID       uint            `gorm:"type:bigint unsigned;uniqueIndex:idx_quiz_question_no" json:"quizId"`
	QuestionNo   int             `gorm:"not null;uniqueIndex:idx_quiz_question_no" json:"questionNo"`
	QuestionType string          `gorm:"size:50;not null" json:"questionType"` // single_choice, multiple_choice, true_false, fill_blank
	Content      string          `gorm:"type:text;not null" json:"content"`
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	Answer       string          `gorm:"type:text" json:"-"` // 标准答案，不下发给学生
	Points       int             `gorm:"default:10" json:"points"`
	Difficulty   Difficulty      `gorm:"size:10;default:'medium'" json:"difficulty"`
	Order        int             `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// swagger:model QuizSubmission
type QuizSubmission struct {
	BaseModel
	QuizID      uint       `gorm:"type:bigint unsigned;uniqueIndex:idx_quiz_submission_user" json:"quizId"`
	UserID      uint       `gorm:"type:bigint unsigned;uniqueIndex:idx_quiz_submission_user" json:"userId"`
	Score       int        `gorm:"default:0" json:"score"`
	MaxScore    int        `gorm:"default:0" json:"maxScore"`
	Status      string     `gorm:"size:20;default:'in_progress'" json:"status"` // in_progress, completed
	IsTimeout   bool       `gorm:"default:false" json:"isTimeout"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (QuizSubmission) TableName() string {
	return "quiz_submissions"
}

type QuizAnswer struct {
	BaseModel
	SubmissionID uint   `gorm:"index;type:bigint unsigned" json:"submissionId"`
	QuestionNo   int    `gorm:"not null" json:"questionNo"`
	UserAnswer   string `gorm:"type:text" json:"userAnswer"`
	IsCorrect    bool   `gorm:"default:false" json:"isCorrect"`
	Score        int    `gorm:"default:0" json:"score"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
