package service

import (
	"context"
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"
	"edu_collaborate_backend/pkg/logger"
	"edu_collaborate_backend/pkg/monitoring"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ReviewerTeacher = "teacher"
	ReviewerAI      = "ai"
)

// AnswerStatus 由 0-10 的 rate 推导，不单独存储
type AnswerStatus string

const (
	AnswerCorrect          AnswerStatus = "correct"
	AnswerPartiallyCorrect AnswerStatus = "partially-correct"
	AnswerIncorrect        AnswerStatus = "incorrect"
)

// ClassifyRate rate >= 7 判对，4-7 判部分正确，其余判错
func ClassifyRate(rate float64) AnswerStatus {
	switch {
	case rate >= 7:
		return AnswerCorrect
	case rate >= 4:
		return AnswerPartiallyCorrect
	default:
		return AnswerIncorrect
	}
}

// ReviewService 作业评审：教师人工评审或 AI 辅助评审，二者写入同一套评审字段
type ReviewService struct {
	AssignmentRepo *repository.AssignmentRepository
	SubmissionRepo *repository.SubmissionRepository
	AI             *AIService
	Hub            *NotifyHub
}

func NewReviewService(
	assignmentRepo *repository.AssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	ai *AIService,
	hub *NotifyHub,
) *ReviewService {
	return &ReviewService{
		AssignmentRepo: assignmentRepo,
		SubmissionRepo: submissionRepo,
		AI:             ai,
		Hub:            hub,
	}
}

type ManualReviewRequest struct {
	Rates             map[int]float64        `json:"rates" binding:"required"`
	TeacherComments   string                 `json:"teacherComments"`
	Summary           string                 `json:"summary"`
	NeedPractice      []string               `json:"needPractice"`
	TopicUnderCovered []string               `json:"topicUnderCovered"`
	Resources         []model.ReviewResource `json:"resources"`
}

// ReviewedAnswer 评审视图中的单题条目，status 为 rate 的派生展示字段
type ReviewedAnswer struct {
	QuestionNo    int          `json:"questionNo"`
	Question      string       `json:"question"`
	Answer        string       `json:"answer"`
	AttachmentURL string       `json:"attachmentUrl,omitempty"`
	Rate          float64      `json:"rate"`
	Status        AnswerStatus `json:"status"`
}

type ReviewDetail struct {
	Submission *model.AssignmentSubmission `json:"submission"`
	Answers    []ReviewedAnswer            `json:"answers"`
}

func (s *ReviewService) loadSubmission(submissionID uint) (*model.AssignmentSubmission, *model.Assignment, []model.SubmissionAnswer, []model.AssignmentQuestion, error) {
	submission, err := s.SubmissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, nil, nil, nil, util.ErrSubmissionNotFound
	}
	assignment := &model.Assignment{}
	if err := s.AssignmentRepo.DB.First(assignment, submission.AssignmentID).Error; err != nil {
		return nil, nil, nil, nil, util.ErrAssignmentNotFound
	}
	answers, err := s.SubmissionRepo.ListAnswers(submission.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	questions, err := s.AssignmentRepo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return submission, assignment, answers, questions, nil
}

// GetReviewDetail 评审详情。学生查看自己的，教师查看本人创建作业下的
func (s *ReviewService) GetReviewDetail(submissionID uint, requesterID uint, role model.UserRole) (*ReviewDetail, error) {
	submission, assignment, answers, questions, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}

	switch role {
	case model.Student:
		if submission.UserID != requesterID {
			return nil, util.ErrPermissionDenied
		}
	case model.Teacher:
		if assignment.CreatorID != requesterID {
			return nil, util.ErrPermissionDenied
		}
	}

	questionText := make(map[int]string, len(questions))
	for _, q := range questions {
		questionText[q.QuestionNo] = q.Question
	}

	detail := &ReviewDetail{Submission: submission}
	for _, a := range answers {
		detail.Answers = append(detail.Answers, ReviewedAnswer{
			QuestionNo:    a.QuestionNo,
			Question:      questionText[a.QuestionNo],
			Answer:        a.Answer,
			AttachmentURL: a.AttachmentURL,
			Rate:          a.Rate,
			Status:        ClassifyRate(a.Rate),
		})
	}
	return detail, nil
}

// ManualReview 教师人工评审，rate 键为题号
func (s *ReviewService) ManualReview(submissionID uint, teacherID uint, req ManualReviewRequest) (*model.AssignmentSubmission, error) {
	submission, assignment, answers, _, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	if assignment.CreatorID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	if submission.Status == model.SubmissionPending {
		return nil, util.ErrNotSubmittedYet
	}

	for no, rate := range req.Rates {
		if rate < 0 || rate > 10 {
			return nil, fmt.Errorf("rate for question %d must be between 0 and 10", no)
		}
	}

	applyRates(submission, answers, req.Rates)
	submission.TeacherComments = req.TeacherComments
	submission.Summary = req.Summary
	submission.ReviewedBy = ReviewerTeacher
	if req.NeedPractice != nil {
		submission.NeedPractice, _ = json.Marshal(req.NeedPractice)
	}
	if req.TopicUnderCovered != nil {
		submission.TopicUnderCovered, _ = json.Marshal(req.TopicUnderCovered)
	}
	if req.Resources != nil {
		submission.Resources, _ = json.Marshal(req.Resources)
	}

	if err := s.SubmissionRepo.SaveReview(submission, req.Rates); err != nil {
		return nil, err
	}

	monitoring.ReviewCounter.WithLabelValues(ReviewerTeacher).Inc()
	s.notifyReviewed(assignment, submission)
	return submission, nil
}

// aiReviewPayload AI 评审要求模型输出的结构，解析失败时原样报错不重试
type aiReviewPayload struct {
	Rates             map[string]float64     `json:"rates"`
	Summary           string                 `json:"summary"`
	NeedPractice      []string               `json:"needPractice"`
	TopicUnderCovered []string               `json:"topicUnderCovered"`
	Resources         []model.ReviewResource `json:"resources"`
}

// AIReview 调用大模型对提交逐题打分并生成学习建议
func (s *ReviewService) AIReview(ctx context.Context, submissionID uint, teacherID uint) (*model.AssignmentSubmission, error) {
	submission, assignment, answers, questions, err := s.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	if assignment.CreatorID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	if submission.Status == model.SubmissionPending {
		return nil, util.ErrNotSubmittedYet
	}

	prompt := buildReviewPrompt(assignment, questions, answers)
	raw, err := s.AI.Chat(ctx, "你是一名严谨的学科教师，负责批改学生作业并给出学习建议。", prompt)
	if err != nil {
		return nil, err
	}

	payload, err := parseReviewPayload(raw)
	if err != nil {
		logger.Log.Error("ai review response unparseable",
			zap.Uint("submissionId", submissionID),
			zap.String("raw", truncateForLog(raw, 500)),
			zap.Error(err))
		return nil, fmt.Errorf("ai review response could not be parsed: %w", err)
	}

	rates := make(map[int]float64, len(payload.Rates))
	for key, rate := range payload.Rates {
		var no int
		if _, err := fmt.Sscanf(key, "%d", &no); err != nil {
			continue
		}
		if rate < 0 {
			rate = 0
		}
		if rate > 10 {
			rate = 10
		}
		rates[no] = rate
	}

	applyRates(submission, answers, rates)
	submission.Summary = payload.Summary
	submission.ReviewedBy = ReviewerAI
	submission.NeedPractice, _ = json.Marshal(payload.NeedPractice)
	submission.TopicUnderCovered, _ = json.Marshal(payload.TopicUnderCovered)
	submission.Resources, _ = json.Marshal(payload.Resources)

	if err := s.SubmissionRepo.SaveReview(submission, rates); err != nil {
		return nil, err
	}

	monitoring.ReviewCounter.WithLabelValues(ReviewerAI).Inc()
	s.notifyReviewed(assignment, submission)
	return submission, nil
}

func (s *ReviewService) ListSubmissions(assignmentCode string, teacherID uint, page, limit int, studentName, status string) ([]repository.SubmissionListRow, int64, error) {
	assignment, err := s.AssignmentRepo.FindByCode(assignmentCode)
	if err != nil {
		return nil, 0, util.ErrAssignmentNotFound
	}
	if assignment.CreatorID != teacherID {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.SubmissionRepo.ListByAssignment(assignment.ID, page, limit, studentName, status)
}

// GetStudentReview 学生端按作业编码拉取自己的评审结果
func (s *ReviewService) GetStudentReview(assignmentCode string, userID uint) (*ReviewDetail, error) {
	assignment, err := s.AssignmentRepo.FindByCode(assignmentCode)
	if err != nil {
		return nil, util.ErrAssignmentNotFound
	}
	submission, err := s.SubmissionRepo.FindByAssignmentAndUser(assignment.ID, userID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, util.ErrSubmissionNotFound
	}
	return s.GetReviewDetail(submission.ID, userID, model.Student)
}

// applyRates 写入逐题 rate 并把均分折算为 0-100 的总分
func applyRates(submission *model.AssignmentSubmission, answers []model.SubmissionAnswer, rates map[int]float64) {
	if len(answers) == 0 {
		return
	}
	total := 0.0
	for _, a := range answers {
		if rate, ok := rates[a.QuestionNo]; ok {
			total += rate
		} else {
			total += a.Rate
		}
	}
	score := total / float64(len(answers)) * 10
	submission.OverallScore = &score
	now := time.Now()
	submission.ReviewedAt = &now
	submission.Status = model.SubmissionReviewed
}

func buildReviewPrompt(assignment *model.Assignment, questions []model.AssignmentQuestion, answers []model.SubmissionAnswer) string {
	answerText := make(map[int]string, len(answers))
	for _, a := range answers {
		answerText[a.QuestionNo] = a.Answer
	}

	var b strings.Builder
	fmt.Fprintf(&b, "请批改下面这份《%s》作业，逐题给出 0-10 分的评分。\n\n", assignment.Name)
	for _, q := range questions {
		answer := answerText[q.QuestionNo]
		if answer == "" {
			answer = util.NoAnswerPlaceholder
		}
		fmt.Fprintf(&b, "题目 %d：%s\n学生作答：%s\n\n", q.QuestionNo, q.Question, answer)
	}
	b.WriteString(`请仅输出一个 JSON 对象，不要输出其它文字，格式如下：
{
  "rates": {"1": 8.5, "2": 3},
  "summary": "整体评价",
  "needPractice": ["需要加强练习的知识点"],
  "topicUnderCovered": ["掌握薄弱的主题"],
  "resources": [{"type": "article", "link": "https://example.com"}]
}
rates 的键必须是题目编号。`)
	return b.String()
}

// parseReviewPayload 容错解析：允许模型把 JSON 包在代码块或说明文字里
func parseReviewPayload(raw string) (*aiReviewPayload, error) {
	text := strings.TrimSpace(raw)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}
	var payload aiReviewPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, err
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("missing rates")
	}
	return &payload, nil
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (s *ReviewService) notifyReviewed(assignment *model.Assignment, submission *model.AssignmentSubmission) {
	if s.Hub == nil {
		return
	}
	s.Hub.PushToUsers([]uint{submission.UserID}, NotifyEvent{
		Type: EventReviewPublished,
		Data: map[string]interface{}{
			"assignmentCode": assignment.AssignmentCode,
			"assignmentName": assignment.Name,
			"submissionId":   submission.ID,
			"reviewedBy":     submission.ReviewedBy,
		},
	})
}
