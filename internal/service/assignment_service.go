package service

import (
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentService 作业与题目管理。题号由服务端分配且永不复用，
// 前端不得自造题目标识。
type AssignmentService struct {
	Repo          *repository.AssignmentRepository
	ClassroomRepo *repository.ClassroomRepository
}

func NewAssignmentService(repo *repository.AssignmentRepository, classroomRepo *repository.ClassroomRepository) *AssignmentService {
	return &AssignmentService{Repo: repo, ClassroomRepo: classroomRepo}
}

type CreateAssignmentRequest struct {
	Name        string     `json:"name" binding:"required,max=255"`
	Subject     string     `json:"subject" binding:"max=100"`
	Description string     `json:"description"`
	ClassroomID uint       `json:"classroomId" binding:"required"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateAssignmentRequest struct {
	Name        string     `json:"name" binding:"max=255"`
	Subject     string     `json:"subject" binding:"max=100"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

type QuestionRequest struct {
	Question   string           `json:"question" binding:"required"`
	Difficulty model.Difficulty `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points     int              `json:"points" binding:"omitempty,min=0"`
	Order      int              `json:"order"`
}

// AssignmentDetail 教师端与学生端共用的详情载体
type AssignmentDetail struct {
	Assignment *model.Assignment          `json:"assignment"`
	Questions  []model.AssignmentQuestion `json:"questions"`
}

func (s *AssignmentService) CreateAssignment(teacherID uint, req CreateAssignmentRequest) (*model.Assignment, error) {
	classroom, err := s.ClassroomRepo.FindByID(req.ClassroomID)
	if err != nil {
		return nil, err
	}
	if classroom.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}

	assignment := &model.Assignment{
		AssignmentCode: uuid.New().String(),
		Name:           req.Name,
		Subject:        req.Subject,
		Description:    req.Description,
		ClassroomID:    req.ClassroomID,
		CreatorID:      teacherID,
		DueDate:        req.DueDate,
	}
	if err := s.Repo.Create(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) findOwned(assignmentCode string, teacherID uint) (*model.Assignment, error) {
	assignment, err := s.Repo.FindByCode(assignmentCode)
	if err != nil {
		return nil, util.ErrAssignmentNotFound
	}
	if assignment.CreatorID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return assignment, nil
}

func (s *AssignmentService) UpdateAssignment(assignmentCode string, teacherID uint, req UpdateAssignmentRequest) (*model.Assignment, error) {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		assignment.Name = req.Name
	}
	if req.Subject != "" {
		assignment.Subject = req.Subject
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}

	if err := s.Repo.Update(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *AssignmentService) DeleteAssignment(assignmentCode string, teacherID uint) error {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return err
	}
	return s.Repo.Delete(assignment.ID)
}

// Publish 发布后学生可见。至少要有一道题目
func (s *AssignmentService) Publish(assignmentCode string, teacherID uint) (*model.Assignment, error) {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Repo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrNoQuestions
	}

	now := time.Now()
	assignment.IsPublished = true
	assignment.PublishedAt = &now
	if err := s.Repo.Update(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// AddQuestion 题号在事务内取 MAX+1，删除过的题号不回收
func (s *AssignmentService) AddQuestion(assignmentCode string, teacherID uint, req QuestionRequest) (*model.AssignmentQuestion, error) {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return nil, err
	}

	question := &model.AssignmentQuestion{
		AssignmentID: assignment.ID,
		Question:     req.Question,
		Difficulty:   req.Difficulty,
		Points:       req.Points,
		Order:        req.Order,
	}
	if question.Difficulty == "" {
		question.Difficulty = model.DifficultyMedium
	}
	if question.Points == 0 {
		question.Points = 10
	}

	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		no, err := s.Repo.NextQuestionNo(tx, assignment.ID)
		if err != nil {
			return err
		}
		question.QuestionNo = no
		if question.Order == 0 {
			question.Order = no
		}
		return s.Repo.CreateQuestion(tx, question)
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (s *AssignmentService) UpdateQuestion(assignmentCode string, teacherID uint, questionNo int, req QuestionRequest) (*model.AssignmentQuestion, error) {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return nil, err
	}

	questions, err := s.Repo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].QuestionNo == questionNo {
			q := &questions[i]
			q.Question = req.Question
			if req.Difficulty != "" {
				q.Difficulty = req.Difficulty
			}
			if req.Points > 0 {
				q.Points = req.Points
			}
			if req.Order > 0 {
				q.Order = req.Order
			}
			if err := s.Repo.UpdateQuestion(q); err != nil {
				return nil, err
			}
			return q, nil
		}
	}
	return nil, util.ErrQuestionNotFound
}

func (s *AssignmentService) DeleteQuestion(assignmentCode string, teacherID uint, questionNo int) error {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return err
	}
	return s.Repo.DeleteQuestion(assignment.ID, questionNo)
}

func (s *AssignmentService) GetTeacherDetail(assignmentCode string, teacherID uint) (*AssignmentDetail, error) {
	assignment, err := s.findOwned(assignmentCode, teacherID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Repo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentDetail{Assignment: assignment, Questions: questions}, nil
}

// GetStudentDetail 学生必须是作业所在班级成员，且作业已发布
func (s *AssignmentService) GetStudentDetail(assignmentCode string, userID uint) (*AssignmentDetail, error) {
	assignment, err := s.Repo.FindByCode(assignmentCode)
	if err != nil {
		return nil, util.ErrAssignmentNotFound
	}
	if !assignment.IsPublished {
		return nil, util.ErrNotPublished
	}
	member, err := s.ClassroomRepo.IsMember(assignment.ClassroomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, util.ErrPermissionDenied
	}

	questions, err := s.Repo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentDetail{Assignment: assignment, Questions: questions}, nil
}

func (s *AssignmentService) ListForTeacher(teacherID uint, page, limit int) ([]repository.AssignmentListRow, int64, error) {
	return s.Repo.ListByCreator(teacherID, page, limit)
}

func (s *AssignmentService) ListForStudent(userID uint, page, limit int) ([]repository.AssignmentListRow, int64, error) {
	classroomIDs, err := s.ClassroomRepo.MemberClassroomIDs(userID)
	if err != nil {
		return nil, 0, err
	}
	if len(classroomIDs) == 0 {
		return []repository.AssignmentListRow{}, 0, nil
	}
	return s.Repo.ListPublishedByClassrooms(classroomIDs, page, limit)
}
