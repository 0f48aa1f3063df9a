package service

import (
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo      *repository.UserRepository
	ClassroomRepo *repository.ClassroomRepository
	Cfg           *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, classroomRepo *repository.ClassroomRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:      userRepo,
		ClassroomRepo: classroomRepo,
		Cfg:           cfg,
	}
}

// Register 注册时生成学号并默认加入公共班级
func (s *AuthService) Register(user *model.User) error {
	_, err := s.UserRepo.FindByEmail(user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	if user.Role == "" {
		user.Role = model.Student
	}
	if user.StudentCode == "" && user.Role == model.Student {
		user.StudentCode = generateStudentCode()
	}

	if err := s.UserRepo.Create(user); err != nil {
		return err
	}

	if user.Role == model.Student {
		// 默认班级 ID 为 1，由数据库初始化时播种
		if err := s.ClassroomRepo.AddMember(1, user.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", nil, errors.New("invalid credentials")
	}
	if user.Disabled {
		return "", nil, errors.New("account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errors.New("invalid credentials")
	}

	s.UserRepo.UpdateLastLogin(user.ID)

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}

// generateStudentCode 学号格式：年份 + 纳秒尾数，展示用标识不承担安全性
func generateStudentCode() string {
	now := time.Now()
	return fmt.Sprintf("%d%09d", now.Year(), now.UnixNano()%1e9)
}
