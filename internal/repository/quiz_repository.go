package repository

import (
	"edu_collaborate_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByCode(code string) (*model.Quiz, error) {
	var q model.Quiz
	err := r.DB.First(&q, "quiz_code = ?", code).Error
	return &q, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		var submissionIDs []uint
		if err := tx.Model(&model.QuizSubmission{}).Where("quiz_id = ?", id).Pluck("id", &submissionIDs).Error; err == nil && len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&model.QuizAnswer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizSubmission{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) UpdateQuestion(q *model.QuizQuestion) error {
	return r.DB.Save(q).Error
}

func (r *QuizRepository) DeleteQuestion(quizID uint, questionNo int) error {
	return r.DB.Where("quiz_id = ? AND question_no = ?", quizID, questionNo).
		Delete(&model.QuizQuestion{}).Error
}

func (r *QuizRepository) ListQuestions(quizID uint) ([]model.QuizQuestion, error) {
	var qs []model.QuizQuestion
	err := r.DB.Where("quiz_id = ?", quizID).
		Order("`order` asc, question_no asc").Find(&qs).Error
	return qs, err
}

func (r *QuizRepository) NextQuestionNo(quizID uint) (int, error) {
	var maxNo *int
	err := r.DB.Model(&model.QuizQuestion{}).
		Unscoped().
		Where("quiz_id = ?", quizID).
		Select("MAX(question_no)").Scan(&maxNo).Error
	if err != nil {
		return 0, err
	}
	if maxNo == nil {
		return 1, nil
	}
	return *maxNo + 1, nil
}

// FindSubmission 不存在返回 (nil, nil)，调用方据此区分首次开始与数据库故障
func (r *QuizRepository) FindSubmission(quizID, userID uint) (*model.QuizSubmission, error) {
	var s model.QuizSubmission
	err := r.DB.Where("quiz_id = ? AND user_id = ?", quizID, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *QuizRepository) CreateSubmission(s *model.QuizSubmission) error {
	return r.DB.Create(s).Error
}

// UpdateSubmissionWithAnswers 评分结果与逐题答案同事务写入
func (r *QuizRepository) UpdateSubmissionWithAnswers(s *model.QuizSubmission, answers []model.QuizAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(s).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].SubmissionID = s.ID
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuizRepository) ListSubmissionAnswers(submissionID uint) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.DB.Where("submission_id = ?", submissionID).
		Order("question_no asc").Find(&answers).Error
	return answers, err
}

type QuizListRow struct {
	model.Quiz
	QuestionCount  int `json:"questionCount"`
	CompletedCount int `json:"completedCount"`
}

func (r *QuizRepository) ListByCreator(creatorID uint, page, limit int) ([]QuizListRow, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Quiz{}).Where("creator_id = ?", creatorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []QuizListRow
	offset := (page - 1) * limit
	err := r.DB.Table("quizzes t").
		Select("t.*, "+
			"(SELECT COUNT(*) FROM quiz_questions q WHERE q.quiz_id = t.id AND q.deleted_at IS NULL) as question_count, "+
			"(SELECT COUNT(*) FROM quiz_submissions s WHERE s.quiz_id = t.id AND s.deleted_at IS NULL AND s.status = 'completed') as completed_count").
		Where("t.creator_id = ? AND t.deleted_at IS NULL", creatorID).
		Order("t.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}

func (r *QuizRepository) ListPublishedByClassrooms(classroomIDs []uint, page, limit int) ([]QuizListRow, int64, error) {
	if len(classroomIDs) == 0 {
		return nil, 0, nil
	}

	var total int64
	if err := r.DB.Model(&model.Quiz{}).
		Where("classroom_id IN ? AND is_published = ?", classroomIDs, true).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []QuizListRow
	offset := (page - 1) * limit
	err := r.DB.Table("quizzes t").
		Select("t.*, "+
			"(SELECT COUNT(*) FROM quiz_questions q WHERE q.quiz_id = t.id AND q.deleted_at IS NULL) as question_count, "+
			"0 as completed_count").
		Where("t.classroom_id IN ? AND t.is_published = ? AND t.deleted_at IS NULL", classroomIDs, true).
		Order("t.created_at desc").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, total, err
}
