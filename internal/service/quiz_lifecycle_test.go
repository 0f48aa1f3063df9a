package service

import (
	"fmt"
	"testing"
	"time"

	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	quizTestStudent   = uint(42)
	quizTestOutsider  = uint(99)
	quizTestTeacherID = uint(1)
)

func newQuizTestEnv(t *testing.T) (*QuizService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Classroom{}, &model.ClassroomMember{},
		&model.Quiz{}, &model.QuizQuestion{},
		&model.QuizSubmission{}, &model.QuizAnswer{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	svc := NewQuizService(repository.NewQuizRepository(db), repository.NewClassroomRepository(db))
	return svc, db
}

func seedQuiz(t *testing.T, db *gorm.DB, published bool, timeLimit int) *model.Quiz {
	t.Helper()
	classroom := &model.Classroom{Name: "七年级一班", TeacherID: quizTestTeacherID}
	if err := db.Create(classroom).Error; err != nil {
		t.Fatalf("seed classroom: %v", err)
	}
	if err := db.Create(&model.ClassroomMember{ClassroomID: classroom.ID, UserID: quizTestStudent}).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}

	quiz := &model.Quiz{
		QuizCode:    "qz-1",
		Title:       "单元小测",
		ClassroomID: classroom.ID,
		CreatorID:   quizTestTeacherID,
		TimeLimit:   timeLimit,
		IsPublished: published,
	}
	if published {
		now := time.Now()
		quiz.PublishedAt = &now
	}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	questions := []model.QuizQuestion{
		{QuizID: quiz.ID, QuestionNo: 1, QuestionType: "single_choice", Content: "1+1=?", Answer: "B", Points: 10, Difficulty: model.DifficultyMedium, Order: 1},
		{QuizID: quiz.ID, QuestionNo: 2, QuestionType: "multiple_choice", Content: "选出所有质数", Answer: "A,C", Points: 10, Difficulty: model.DifficultyMedium, Order: 2},
	}
	for i := range questions {
		if err := db.Create(&questions[i]).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	return quiz
}

func TestStartQuizFirstAttemptCreatesSubmission(t *testing.T) {
	svc, db := newQuizTestEnv(t)
	seedQuiz(t, db, true, 0)

	detail, submission, err := svc.StartQuiz("qz-1", quizTestStudent)
	if err != nil {
		t.Fatalf("first StartQuiz must create a submission, got error: %v", err)
	}
	if submission == nil || submission.Status != "in_progress" {
		t.Fatalf("submission = %+v", submission)
	}
	if len(detail.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(detail.Questions))
	}

	// 重复开始返回同一条进行中的提交
	_, again, err := svc.StartQuiz("qz-1", quizTestStudent)
	if err != nil {
		t.Fatalf("re-start while in progress: %v", err)
	}
	if again.ID != submission.ID {
		t.Errorf("re-start must reuse the submission, got %d vs %d", again.ID, submission.ID)
	}
}

func TestStartQuizGuards(t *testing.T) {
	t.Run("not published", func(t *testing.T) {
		svc, db := newQuizTestEnv(t)
		seedQuiz(t, db, false, 0)
		if _, _, err := svc.StartQuiz("qz-1", quizTestStudent); err != util.ErrNotPublished {
			t.Errorf("expected ErrNotPublished, got %v", err)
		}
	})
	t.Run("not a member", func(t *testing.T) {
		svc, db := newQuizTestEnv(t)
		seedQuiz(t, db, true, 0)
		if _, _, err := svc.StartQuiz("qz-1", quizTestOutsider); err != util.ErrPermissionDenied {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})
	t.Run("unknown code", func(t *testing.T) {
		svc, db := newQuizTestEnv(t)
		seedQuiz(t, db, true, 0)
		if _, _, err := svc.StartQuiz("no-such-quiz", quizTestStudent); err != util.ErrQuizNotFound {
			t.Errorf("expected ErrQuizNotFound, got %v", err)
		}
	})
}

func TestSubmitQuizBeforeStart(t *testing.T) {
	svc, db := newQuizTestEnv(t)
	seedQuiz(t, db, true, 0)

	_, err := svc.SubmitQuiz("qz-1", quizTestStudent, SubmitQuizRequest{Answers: map[int]string{1: "b"}})
	if err != util.ErrNotSubmittedYet {
		t.Fatalf("submit before start: expected ErrNotSubmittedYet, got %v", err)
	}
}

func TestQuizSubmitLifecycle(t *testing.T) {
	svc, db := newQuizTestEnv(t)
	seedQuiz(t, db, true, 0)

	if _, _, err := svc.StartQuiz("qz-1", quizTestStudent); err != nil {
		t.Fatal(err)
	}

	result, err := svc.SubmitQuiz("qz-1", quizTestStudent, SubmitQuizRequest{
		Answers: map[int]string{1: "b", 2: "c, a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Submission.Status != "completed" {
		t.Errorf("status = %s", result.Submission.Status)
	}
	if result.Submission.Score != 20 || result.Submission.MaxScore != 20 {
		t.Errorf("score = %d/%d", result.Submission.Score, result.Submission.MaxScore)
	}
	for _, a := range result.Answers {
		if !a.IsCorrect {
			t.Errorf("question %d graded wrong: %+v", a.QuestionNo, a)
		}
	}

	// 完成后不可重复提交，也不可重新开始
	if _, err := svc.SubmitQuiz("qz-1", quizTestStudent, SubmitQuizRequest{Answers: map[int]string{}}); err != util.ErrAlreadySubmitted {
		t.Errorf("re-submit: expected ErrAlreadySubmitted, got %v", err)
	}
	if _, _, err := svc.StartQuiz("qz-1", quizTestStudent); err != util.ErrAlreadySubmitted {
		t.Errorf("re-start: expected ErrAlreadySubmitted, got %v", err)
	}

	got, err := svc.GetResult("qz-1", quizTestStudent)
	if err != nil {
		t.Fatal(err)
	}
	if got.Submission.Score != 20 || len(got.Answers) != 2 {
		t.Errorf("result = score %d, %d answers", got.Submission.Score, len(got.Answers))
	}
}

func TestSubmitQuizTimeoutMarking(t *testing.T) {
	svc, db := newQuizTestEnv(t)
	seedQuiz(t, db, true, 30)

	_, submission, err := svc.StartQuiz("qz-1", quizTestStudent)
	if err != nil {
		t.Fatal(err)
	}
	// 把开始时间拨回到超过时限之前
	if err := db.Model(&model.QuizSubmission{}).Where("id = ?", submission.ID).
		Update("started_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatal(err)
	}

	result, err := svc.SubmitQuiz("qz-1", quizTestStudent, SubmitQuizRequest{
		Answers: map[int]string{1: "B", 2: "A,C"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Submission.IsTimeout {
		t.Error("late submission must be marked timeout")
	}
	// 超时照常判分
	if result.Submission.Score != 20 || result.Submission.Status != "completed" {
		t.Errorf("late submission must still be graded: %+v", result.Submission)
	}
}

func TestSubmitQuizRechecksMembership(t *testing.T) {
	svc, db := newQuizTestEnv(t)
	quiz := seedQuiz(t, db, true, 0)

	// 构造一条不经 StartQuiz 产生的提交记录
	if err := db.Create(&model.QuizSubmission{
		QuizID:    quiz.ID,
		UserID:    quizTestOutsider,
		Status:    "in_progress",
		StartedAt: time.Now(),
	}).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SubmitQuiz("qz-1", quizTestOutsider, SubmitQuizRequest{Answers: map[int]string{1: "b"}}); err != util.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}
