package service

import (
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuizService 随堂测验：客观题服务端自动判分，满分按题目分值汇总
type QuizService struct {
	Repo          *repository.QuizRepository
	ClassroomRepo *repository.ClassroomRepository
}

func NewQuizService(repo *repository.QuizRepository, classroomRepo *repository.ClassroomRepository) *QuizService {
	return &QuizService{Repo: repo, ClassroomRepo: classroomRepo}
}

type CreateQuizRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	ClassroomID uint   `json:"classroomId" binding:"required"`
	TimeLimit   int    `json:"timeLimit" binding:"omitempty,min=0"`
}

type QuizQuestionRequest struct {
	QuestionType string           `json:"questionType" binding:"required,oneof=single_choice multiple_choice true_false fill_blank"`
	Content      string           `json:"content" binding:"required"`
	Options      json.RawMessage  `json:"options"`
	Answer       string           `json:"answer" binding:"required"`
	Points       int              `json:"points" binding:"omitempty,min=0"`
	Difficulty   model.Difficulty `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Order        int              `json:"order"`
}

type SubmitQuizRequest struct {
	Answers map[int]string `json:"answers" binding:"required"`
}

type QuizDetail struct {
	Quiz      *model.Quiz          `json:"quiz"`
	Questions []model.QuizQuestion `json:"questions"`
}

// QuizResultDetail 判分结果，逐题给出对错与得分
type QuizResultDetail struct {
	Submission *model.QuizSubmission `json:"submission"`
	Answers    []model.QuizAnswer    `json:"answers"`
}

func (s *QuizService) CreateQuiz(teacherID uint, req CreateQuizRequest) (*model.Quiz, error) {
	classroom, err := s.ClassroomRepo.FindByID(req.ClassroomID)
	if err != nil {
		return nil, err
	}
	if classroom.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}

	quiz := &model.Quiz{
		QuizCode:    uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		ClassroomID: req.ClassroomID,
		CreatorID:   teacherID,
		TimeLimit:   req.TimeLimit,
	}
	if err := s.Repo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) findOwned(quizCode string, teacherID uint) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByCode(quizCode)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	if quiz.CreatorID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return quiz, nil
}

func (s *QuizService) AddQuestion(quizCode string, teacherID uint, req QuizQuestionRequest) (*model.QuizQuestion, error) {
	quiz, err := s.findOwned(quizCode, teacherID)
	if err != nil {
		return nil, err
	}

	no, err := s.Repo.NextQuestionNo(quiz.ID)
	if err != nil {
		return nil, err
	}

	question := &model.QuizQuestion{
		QuizID:       quiz.ID,
		QuestionNo:   no,
		QuestionType: req.QuestionType,
		Content:      req.Content,
		Options:      req.Options,
		Answer:       req.Answer,
		Points:       req.Points,
		Difficulty:   req.Difficulty,
		Order:        req.Order,
	}
	if question.Points == 0 {
		question.Points = 10
	}
	if question.Difficulty == "" {
		question.Difficulty = model.DifficultyMedium
	}
	if question.Order == 0 {
		question.Order = no
	}
	if err := s.Repo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(quizCode string, teacherID uint, questionNo int) error {
	quiz, err := s.findOwned(quizCode, teacherID)
	if err != nil {
		return err
	}
	return s.Repo.DeleteQuestion(quiz.ID, questionNo)
}

func (s *QuizService) Publish(quizCode string, teacherID uint) (*model.Quiz, error) {
	quiz, err := s.findOwned(quizCode, teacherID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Repo.ListQuestions(quiz.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrNoQuestions
	}

	now := time.Now()
	quiz.IsPublished = true
	quiz.PublishedAt = &now
	if err := s.Repo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetTeacherDetail(quizCode string, teacherID uint) (*QuizDetail, error) {
	quiz, err := s.findOwned(quizCode, teacherID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Repo.ListQuestions(quiz.ID)
	if err != nil {
		return nil, err
	}
	return &QuizDetail{Quiz: quiz, Questions: questions}, nil
}

// StartQuiz 学生开始测验。返回的题目不含标准答案（Answer 字段 json:"-"）
func (s *QuizService) StartQuiz(quizCode string, userID uint) (*QuizDetail, *model.QuizSubmission, error) {
	quiz, err := s.Repo.FindByCode(quizCode)
	if err != nil {
		return nil, nil, util.ErrQuizNotFound
	}
	if !quiz.IsPublished {
		return nil, nil, util.ErrNotPublished
	}
	member, err := s.ClassroomRepo.IsMember(quiz.ClassroomID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !member {
		return nil, nil, util.ErrPermissionDenied
	}

	submission, err := s.Repo.FindSubmission(quiz.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if submission == nil {
		submission = &model.QuizSubmission{
			QuizID:    quiz.ID,
			UserID:    userID,
			Status:    "in_progress",
			StartedAt: time.Now(),
		}
		if err := s.Repo.CreateSubmission(submission); err != nil {
			return nil, nil, err
		}
	} else if submission.Status == "completed" {
		return nil, nil, util.ErrAlreadySubmitted
	}

	questions, err := s.Repo.ListQuestions(quiz.ID)
	if err != nil {
		return nil, nil, err
	}
	return &QuizDetail{Quiz: quiz, Questions: questions}, submission, nil
}

// SubmitQuiz 提交并判分。超时提交照常判分但标记 IsTimeout
func (s *QuizService) SubmitQuiz(quizCode string, userID uint, req SubmitQuizRequest) (*QuizResultDetail, error) {
	quiz, err := s.Repo.FindByCode(quizCode)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}

	// 提交记录只能经 StartQuiz 产生，这里仍复核班级成员身份，不让该前提独自承重
	member, err := s.ClassroomRepo.IsMember(quiz.ClassroomID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, util.ErrPermissionDenied
	}

	submission, err := s.Repo.FindSubmission(quiz.ID, userID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, util.ErrNotSubmittedYet
	}
	if submission.Status == "completed" {
		return nil, util.ErrAlreadySubmitted
	}

	questions, err := s.Repo.ListQuestions(quiz.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if quiz.TimeLimit > 0 {
		deadline := submission.StartedAt.Add(time.Duration(quiz.TimeLimit) * time.Minute)
		if now.After(deadline) {
			submission.IsTimeout = true
		}
	}

	var answers []model.QuizAnswer
	score, maxScore := 0, 0
	for _, q := range questions {
		maxScore += q.Points
		userAnswer := req.Answers[q.QuestionNo]
		correct := gradeQuizAnswer(q, userAnswer)
		earned := 0
		if correct {
			earned = q.Points
			score += earned
		}
		answers = append(answers, model.QuizAnswer{
			SubmissionID: submission.ID,
			QuestionNo:   q.QuestionNo,
			UserAnswer:   userAnswer,
			IsCorrect:    correct,
			Score:        earned,
		})
	}

	submission.Score = score
	submission.MaxScore = maxScore
	submission.Status = "completed"
	submission.CompletedAt = &now

	if err := s.Repo.UpdateSubmissionWithAnswers(submission, answers); err != nil {
		return nil, err
	}
	return &QuizResultDetail{Submission: submission, Answers: answers}, nil
}

func (s *QuizService) GetResult(quizCode string, userID uint) (*QuizResultDetail, error) {
	quiz, err := s.Repo.FindByCode(quizCode)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	submission, err := s.Repo.FindSubmission(quiz.ID, userID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, util.ErrSubmissionNotFound
	}
	answers, err := s.Repo.ListSubmissionAnswers(submission.ID)
	if err != nil {
		return nil, err
	}
	return &QuizResultDetail{Submission: submission, Answers: answers}, nil
}

func (s *QuizService) ListForTeacher(teacherID uint, page, limit int) ([]repository.QuizListRow, int64, error) {
	return s.Repo.ListByCreator(teacherID, page, limit)
}

func (s *QuizService) ListForStudent(userID uint, page, limit int) ([]repository.QuizListRow, int64, error) {
	classroomIDs, err := s.ClassroomRepo.MemberClassroomIDs(userID)
	if err != nil {
		return nil, 0, err
	}
	if len(classroomIDs) == 0 {
		return []repository.QuizListRow{}, 0, nil
	}
	return s.Repo.ListPublishedByClassrooms(classroomIDs, page, limit)
}

// gradeQuizAnswer 客观题判分。多选题答案以逗号分隔，顺序无关
func gradeQuizAnswer(q model.QuizQuestion, userAnswer string) bool {
	normalize := func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	}

	if normalize(userAnswer) == "" {
		return false
	}

	if q.QuestionType == "multiple_choice" {
		return normalizeChoiceSet(q.Answer) == normalizeChoiceSet(userAnswer)
	}
	return normalize(userAnswer) == normalize(q.Answer)
}

func normalizeChoiceSet(answer string) string {
	parts := strings.Split(answer, ",")
	var cleaned []string
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	sort.Strings(cleaned)
	return strings.Join(cleaned, ",")
}
