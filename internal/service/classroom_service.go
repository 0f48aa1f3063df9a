package service

import (
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
)

type ClassroomService struct {
	Repo *repository.ClassroomRepository
}

func NewClassroomService(repo *repository.ClassroomRepository) *ClassroomService {
	return &ClassroomService{Repo: repo}
}

type CreateClassroomRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Subject string `json:"subject" binding:"omitempty,max=100"`
}

func (s *ClassroomService) CreateClassroom(teacherID uint, req CreateClassroomRequest) (*model.Classroom, error) {
	classroom := &model.Classroom{
		Name:      req.Name,
		Subject:   req.Subject,
		TeacherID: teacherID,
	}
	if err := s.Repo.Create(classroom); err != nil {
		return nil, err
	}
	return classroom, nil
}

func (s *ClassroomService) ListForTeacher(teacherID uint) ([]model.Classroom, error) {
	return s.Repo.ListByTeacher(teacherID)
}
