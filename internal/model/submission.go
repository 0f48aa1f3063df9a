package model

import (
	"encoding/json"
	"time"
)

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionReviewed  SubmissionStatus = "reviewed"
)

// AssignmentSubmission 学生对一份作业的提交记录，复评时整体覆盖评审字段
// swagger:model AssignmentSubmission
type AssignmentSubmission struct {
	BaseModel
	AssignmentID uint             `gorm:"type:bigint unsigned;uniqueIndex:idx_submission_assignment_user" json:"assignmentId"`
	UserID       uint             `gorm:"type:bigint unsigned;uniqueIndex:idx_submission_assignment_user" json:"userId"`
	User         *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status       SubmissionStatus `gorm:"size:20;default:'pending'" json:"status"`
	SubmittedAt  *time.Time       `json:"submittedAt,omitempty"`

	// 评审字段（教师或 AI 评审写入，status 变为 reviewed）
	OverallScore      *float64        `json:"overallScore,omitempty"`
	TeacherComments   string          `gorm:"type:text" json:"teacherComments"`
	Summary           string          `gorm:"type:text" json:"summary"`
	NeedPractice      json.RawMessage `gorm:"type:json" json:"needPractice,omitempty"`      // []string
	TopicUnderCovered json.RawMessage `gorm:"type:json" json:"topicUnderCovered,omitempty"` // []string
	Resources         json.RawMessage `gorm:"type:json" json:"resources,omitempty"`         // []ReviewResource
	ReviewedAt        *time.Time      `json:"reviewedAt,omitempty"`
	ReviewedBy        string          `gorm:"size:50" json:"reviewedBy,omitempty"` // teacher | ai
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}

// SubmissionAnswer 按 QuestionNo 关联题目，rate 由服务端（教师/AI）评定
// swagger:model SubmissionAnswer
type SubmissionAnswer struct {
	BaseModel
	SubmissionID  uint    `gorm:"type:bigint unsigned;uniqueIndex:idx_answer_submission_question" json:"submissionId"`
	QuestionNo    int     `gorm:"not null;uniqueIndex:idx_answer_submission_question" json:"questionNo"`
	Answer        string  `gorm:"type:text" json:"answer"`
	AttachmentURL string  `gorm:"size:512" json:"attachmentUrl,omitempty"`
	Rate          float64 `gorm:"default:0" json:"rate"` // 0-10
}

func (SubmissionAnswer) TableName() string {
	return "submission_answers"
}

type ReviewResource struct {
	Type string `json:"type"`
	Link string `json:"link"`
}
