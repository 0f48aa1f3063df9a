package repository

import (
	"fmt"
	"testing"
	"time"

	"edu_collaborate_backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.AssignmentSubmission{}, &model.SubmissionAnswer{},
		&model.Quiz{}, &model.QuizSubmission{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// 查无记录返回 (nil, nil)，调用方据此区分"尚未提交"与数据库故障
func TestFindByAssignmentAndUserNotFound(t *testing.T) {
	repo := NewSubmissionRepository(newRepoTestDB(t))

	got, err := repo.FindByAssignmentAndUser(1, 42)
	if err != nil {
		t.Fatalf("missing submission must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil submission, got %+v", got)
	}
}

func TestFindByAssignmentAndUserExisting(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewSubmissionRepository(db)

	now := time.Now()
	seed := &model.AssignmentSubmission{
		AssignmentID: 7,
		UserID:       42,
		Status:       model.SubmissionSubmitted,
		SubmittedAt:  &now,
	}
	if err := db.Create(seed).Error; err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindByAssignmentAndUser(7, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != seed.ID {
		t.Fatalf("got %+v, want id %d", got, seed.ID)
	}

	// 别的学生仍视为未提交
	other, err := repo.FindByAssignmentAndUser(7, 43)
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Fatalf("expected nil for other user, got %+v", other)
	}
}

func TestQuizFindSubmissionNotFound(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewQuizRepository(db)

	got, err := repo.FindSubmission(1, 42)
	if err != nil {
		t.Fatalf("missing quiz submission must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil submission, got %+v", got)
	}

	seed := &model.QuizSubmission{QuizID: 1, UserID: 42, Status: "in_progress", StartedAt: time.Now()}
	if err := db.Create(seed).Error; err != nil {
		t.Fatal(err)
	}
	got, err = repo.FindSubmission(1, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != seed.ID {
		t.Fatalf("got %+v, want id %d", got, seed.ID)
	}
}
