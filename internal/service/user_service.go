package service

import (
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	UserRepo      *repository.UserRepository
	ClassroomRepo *repository.ClassroomRepository
}

func NewUserService(userRepo *repository.UserRepository, classroomRepo *repository.ClassroomRepository) *UserService {
	return &UserService{UserRepo: userRepo, ClassroomRepo: classroomRepo}
}

type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Language string `json:"language" binding:"omitempty,max=10"`
	Avatar   string `json:"avatar" binding:"omitempty,max=255"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(userID uint, req ChangePasswordRequest) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return util.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return errors.New("old password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.UserRepo.Update(user)
}

func (s *UserService) JoinClassroom(userID, classroomID uint) error {
	if _, err := s.ClassroomRepo.FindByID(classroomID); err != nil {
		return err
	}
	return s.ClassroomRepo.AddMember(classroomID, userID)
}

func (s *UserService) LeaveClassroom(userID, classroomID uint) error {
	return s.ClassroomRepo.RemoveMember(classroomID, userID)
}
