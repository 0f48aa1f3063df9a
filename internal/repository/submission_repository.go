package repository

import (
	"edu_collaborate_backend/internal/model"
	"errors"
	"time"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// FindByAssignmentAndUser 不存在返回 (nil, nil)，数据库故障才返回 error
func (r *SubmissionRepository) FindByAssignmentAndUser(assignmentID, userID uint) (*model.AssignmentSubmission, error) {
	var s model.AssignmentSubmission
	err := r.DB.Where("assignment_id = ? AND user_id = ?", assignmentID, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) FindByID(id uint) (*model.AssignmentSubmission, error) {
	var s model.AssignmentSubmission
	err := r.DB.Preload("User").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) ListAnswers(submissionID uint) ([]model.SubmissionAnswer, error) {
	var answers []model.SubmissionAnswer
	err := r.DB.Where("submission_id = ?", submissionID).
		Order("question_no asc").Find(&answers).Error
	return answers, err
}

// CreateWithAnswers 最终提交：提交记录与逐题答案在同一事务内落库，
// 失败时整体回滚，不留下部分提交状态
func (r *SubmissionRepository) CreateWithAnswers(submission *model.AssignmentSubmission, answers []model.SubmissionAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].SubmissionID = submission.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveReview 评审整体落地：逐题 rate + 汇总字段 + 状态翻转，一个事务
func (r *SubmissionRepository) SaveReview(submission *model.AssignmentSubmission, rates map[int]float64) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for questionNo, rate := range rates {
			if err := tx.Model(&model.SubmissionAnswer{}).
				Where("submission_id = ? AND question_no = ?", submission.ID, questionNo).
				Update("rate", rate).Error; err != nil {
				return err
			}
		}
		now := time.Now()
		submission.Status = model.SubmissionReviewed
		submission.ReviewedAt = &now
		return tx.Save(submission).Error
	})
}

type SubmissionListRow struct {
	model.AssignmentSubmission
	UserName    string `json:"userName"`
	UserEmail   string `json:"userEmail"`
	StudentCode string `json:"studentCode"`
}

func (r *SubmissionRepository) ListByAssignment(assignmentID uint, page, limit int, studentName string, status string) ([]SubmissionListRow, int64, error) {
	query := r.DB.Table("assignment_submissions s").
		Select("s.*, u.name as user_name, u.email as user_email, u.student_code").
		Joins("JOIN users u ON s.user_id = u.id").
		Where("s.assignment_id = ? AND s.deleted_at IS NULL", assignmentID)

	if studentName != "" {
		query = query.Where("u.name LIKE ?", "%"+studentName+"%")
	}
	if status != "" {
		query = query.Where("s.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []SubmissionListRow
	offset := (page - 1) * limit
	err := query.Order("s.created_at desc").Offset(offset).Limit(limit).Scan(&rows).Error
	return rows, total, err
}
