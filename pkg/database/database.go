package database

import (
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Classroom{},
		&model.ClassroomMember{},
		&model.Assignment{},
		&model.AssignmentQuestion{},
		&model.AssignmentSubmission{},
		&model.SubmissionAnswer{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuizSubmission{},
		&model.QuizAnswer{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认班级（首次启动时创建，便于教师直接布置作业）
	var count int64
	db.Model(&model.Classroom{}).Count(&count)
	if count == 0 {
		defaultClassrooms := []model.Classroom{
			{Name: "Default Class", Subject: "General"},
		}
		for _, c := range defaultClassrooms {
			db.Create(&c)
		}
	}

	return db, nil
}
