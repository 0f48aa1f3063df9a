package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// swagger:model Assignment
type Assignment struct {
	BaseModel
	AssignmentCode string     `gorm:"size:36;uniqueIndex;not null" json:"assignmentCode"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Subject        string     `gorm:"size:100" json:"subject"`
	Description    string     `gorm:"type:text" json:"description"`
	ClassroomID    uint       `gorm:"index;type:bigint unsigned" json:"classroomId"`
	CreatorID      uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	IsPublished    bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// AssignmentQuestion 题目以 QuestionNo 作为唯一稳定标识，展示顺序由 Order 单独维护
// swagger:model AssignmentQuestion
type AssignmentQuestion struct {
	BaseModel
	AssignmentID uint       `gorm:"type:bigint unsigned;uniqueIndex:idx_assignment_question_no" json:"assignmentId"`
	QuestionNo   int        `gorm:"not null;uniqueIndex:idx_assignment_question_no" json:"questionNo"`
	Question     string     `gorm:"type:text;not null" json:"question"`
	Difficulty   Difficulty `gorm:"size:10;default:'medium'" json:"difficulty"`
	Points       int        `gorm:"default:10" json:"points"`
	Order        int        `gorm:"default:0" json:"order"`
}

func (AssignmentQuestion) TableName() string {
	return "assignment_questions"
}
