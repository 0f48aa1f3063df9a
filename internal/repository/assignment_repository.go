package repository

import (
	"edu_collaborate_backend/internal/model"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(assignment *model.Assignment) error {
	return r.DB.Create(assignment).Error
}

func (r *AssignmentRepository) Update(assignment *model.Assignment) error {
	return r.DB.Save(assignment).Error
}

func (r *AssignmentRepository) FindByCode(code string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.DB.First(&a, "assignment_code = ?", code).Error
	return &a, err
}

func (r *AssignmentRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&model.AssignmentQuestion{}).Error; err != nil {
			return err
		}
		var submissionIDs []uint
		if err := tx.Model(&model.AssignmentSubmission{}).Where("assignment_id = ?", id).Pluck("id", &submissionIDs).Error; err == nil && len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&model.SubmissionAnswer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("assignment_id = ?", id).Delete(&model.AssignmentSubmission{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Assignment{}, id).Error
	})
}

// ListQuestions 展示顺序：Order 升序，再按 QuestionNo 保证稳定
func (r *AssignmentRepository) ListQuestions(assignmentID uint) ([]model.AssignmentQuestion, error) {
	var qs []model.AssignmentQuestion
	err := r.DB.Where("assignment_id = ?", assignmentID).
		Order("`order` asc, question_no asc").Find(&qs).Error
	return qs, err
}

// NextQuestionNo 题号服务端分配，单调递增，删除题目后也不复用
func (r *AssignmentRepository) NextQuestionNo(tx *gorm.DB, assignmentID uint) (int, error) {
	var maxNo *int
	err := tx.Model(&model.AssignmentQuestion{}).
		Unscoped().
		Where("assignment_id = ?", assignmentID).
		Select("MAX(question_no)").Scan(&maxNo).Error
	if err != nil {
		return 0, err
	}
	if maxNo == nil {
		return 1, nil
	}
	return *maxNo + 1, nil
}

func (r *AssignmentRepository) CreateQuestion(tx *gorm.DB, q *model.AssignmentQuestion) error {
	return tx.Create(q).Error
}

func (r *AssignmentRepository) UpdateQuestion(q *model.AssignmentQuestion) error {
	return r.DB.Save(q).Error
}

func (r *AssignmentRepository) DeleteQuestion(assignmentID uint, questionNo int) error {
	return r.DB.Where("assignment_id = ? AND question_no = ?", assignmentID, questionNo).
		Delete(&model.AssignmentQuestion{}).Error
}

type AssignmentListRow struct {
	model.Assignment
	QuestionCount   int `json:"questionCount"`
	SubmissionCount int `json:"submissionCount"`
}

func (r *AssignmentRepository) ListByCreator(creatorID uint, page, limit int) ([]AssignmentListRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Assignment{}).Where("creator_id = ?", creatorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AssignmentListRow
	offset := (page - 1) * limit
	err := r.DB.Table("assignments a").
		Select("a.*, "+
			"(SELECT COUNT(*) FROM assignment_questions q WHERE q.assignment_id = a.id AND q.deleted_at IS NULL) as question_count, "+
			"(SELECT COUNT(*) FROM assignment_submissions s WHERE s.assignment_id = a.id AND s.deleted_at IS NULL AND s.status <> 'pending') as submission_count").
		Where("a.creator_id = ? AND a.deleted_at IS NULL", creatorID).
		Order("a.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

func (r *AssignmentRepository) ListPublishedByClassrooms(classroomIDs []uint, page, limit int) ([]AssignmentListRow, int64, error) {
	if len(classroomIDs) == 0 {
		return nil, 0, nil
	}

	var total int64
	if err := r.DB.Model(&model.Assignment{}).
		Where("classroom_id IN ? AND is_published = ?", classroomIDs, true).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []AssignmentListRow
	offset := (page - 1) * limit
	err := r.DB.Table("assignments a").
		Select("a.*, "+
			"(SELECT COUNT(*) FROM assignment_questions q WHERE q.assignment_id = a.id AND q.deleted_at IS NULL) as question_count, "+
			"0 as submission_count").
		Where("a.classroom_id IN ? AND a.is_published = ? AND a.deleted_at IS NULL", classroomIDs, true).
		Order("a.due_date asc, a.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}
