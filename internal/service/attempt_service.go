package service

import (
	"bytes"
	"context"
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/util"
	"edu_collaborate_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AttemptService 答题会话编排：会话状态存 Redis，提交后的答案才落 MySQL。
// Redis 不可用时不降级，直接报错，避免两个存储之间状态漂移。
type AttemptService struct {
	AssignmentRepo *repository.AssignmentRepository
	SubmissionRepo *repository.SubmissionRepository
	Extraction     *ExtractionService
	Storage        *StorageService
	Redis          *redis.Client
	Cfg            config.ExtractionConfig
}

func NewAttemptService(
	assignmentRepo *repository.AssignmentRepository,
	submissionRepo *repository.SubmissionRepository,
	extraction *ExtractionService,
	storage *StorageService,
	rdb *redis.Client,
	cfg config.ExtractionConfig,
) *AttemptService {
	return &AttemptService{
		AssignmentRepo: assignmentRepo,
		SubmissionRepo: submissionRepo,
		Extraction:     extraction,
		Storage:        storage,
		Redis:          rdb,
		Cfg:            cfg,
	}
}

// OutstandingError 作业级提交被拒：仍有题目未提交
type OutstandingError struct {
	QuestionNos []int
}

func (e *OutstandingError) Error() string {
	if len(e.QuestionNos) == 1 {
		return fmt.Sprintf("1 question has not been submitted yet: question %d", e.QuestionNos[0])
	}
	return fmt.Sprintf("%d questions have not been submitted yet", len(e.QuestionNos))
}

// AutofillResult 上传识别的聚合结果，Warning 非空表示软失败（识别为空但不中断会话）
type AutofillResult struct {
	State      *model.AttemptState `json:"state"`
	Extraction *ExtractionResult   `json:"extraction"`
	Filled     []int               `json:"filledQuestionNos"`
	Message    string              `json:"message"`
	Warning    string              `json:"warning,omitempty"`
}

// AttemptSession GetOrCreateState 的返回，DraftDiscarded 记录评审回填时被覆盖的草稿题号
type AttemptSession struct {
	State          *model.AttemptState `json:"state"`
	DraftDiscarded []int               `json:"draftDiscarded,omitempty"`
}

func (s *AttemptService) stateKey(assignmentCode string, userID uint) string {
	return fmt.Sprintf("attempt:%s:%d", assignmentCode, userID)
}

func (s *AttemptService) sessionTTL() time.Duration {
	days := s.Cfg.SessionTTLDays
	if days <= 0 {
		days = 14
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s *AttemptService) loadState(ctx context.Context, assignmentCode string, userID uint) (*model.AttemptState, error) {
	data, err := s.Redis.Get(ctx, s.stateKey(assignmentCode, userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.AttemptState
	if err := json.Unmarshal(data, &state); err != nil {
		// 损坏的会话当作不存在处理，重建即可
		logger.Log.Warn("discarding corrupt attempt session",
			zap.String("assignmentCode", assignmentCode),
			zap.Uint("userID", userID),
			zap.Error(err))
		return nil, nil
	}
	return &state, nil
}

func (s *AttemptService) saveState(ctx context.Context, state *model.AttemptState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, s.stateKey(state.AssignmentCode, state.UserID), data, s.sessionTTL()).Err()
}

// GetOrCreateState 进入作业时调用。按题目集合建立或修复会话，并与数据库中的
// 提交记录对账：已评审的提交会把会话冻结为只读并以服务端答案回填草稿。
func (s *AttemptService) GetOrCreateState(ctx context.Context, assignmentCode string, userID uint) (*AttemptSession, error) {
	assignment, err := s.AssignmentRepo.FindByCode(assignmentCode)
	if err != nil {
		return nil, util.ErrAssignmentNotFound
	}
	if !assignment.IsPublished {
		return nil, util.ErrNotPublished
	}

	questions, err := s.AssignmentRepo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, err
	}
	questionNos := make([]int, len(questions))
	for i, q := range questions {
		questionNos[i] = q.QuestionNo
	}

	state, err := s.loadState(ctx, assignmentCode, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = model.NewAttemptState(assignmentCode, userID, questionNos)
	} else if !state.Submitted {
		reconcileQuestionSet(state, questionNos)
	}

	session := &AttemptSession{State: state}

	submission, err := s.SubmissionRepo.FindByAssignmentAndUser(assignment.ID, userID)
	if err != nil {
		return nil, err
	}
	if submission != nil {
		answers, err := s.SubmissionRepo.ListAnswers(submission.ID)
		if err != nil {
			return nil, err
		}
		if submission.Status == model.SubmissionReviewed {
			if !state.ReadOnly {
				answerTexts := make(map[int]string, len(answers))
				for _, a := range answers {
					answerTexts[a.QuestionNo] = a.Answer
				}
				session.DraftDiscarded = state.ResyncFromReview(answerTexts)
			}
		} else if !state.Submitted {
			// 会话丢失但数据库里已有提交记录：恢复为已提交的锁定会话
			for _, a := range answers {
				if _, ok := state.States[a.QuestionNo]; !ok {
					continue
				}
				state.States[a.QuestionNo] = model.QuestionSubmitted
				state.Drafts[a.QuestionNo] = model.DraftAnswer{Text: a.Answer, AttachmentURL: a.AttachmentURL}
			}
			state.MarkSubmitted()
		}
	}

	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	return session, nil
}

// reconcileQuestionSet 教师在会话存续期间增删题目时修补状态集合
func reconcileQuestionSet(state *model.AttemptState, questionNos []int) {
	want := make(map[int]bool, len(questionNos))
	for _, no := range questionNos {
		want[no] = true
		if _, ok := state.States[no]; !ok {
			state.States[no] = model.QuestionNotAttempted
		}
	}
	for no := range state.States {
		if !want[no] {
			delete(state.States, no)
			delete(state.Drafts, no)
		}
	}
}

func (s *AttemptService) mutate(ctx context.Context, assignmentCode string, userID uint, fn func(*model.AttemptState) error) (*model.AttemptState, error) {
	state, err := s.loadState(ctx, assignmentCode, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		session, err := s.GetOrCreateState(ctx, assignmentCode, userID)
		if err != nil {
			return nil, err
		}
		state = session.State
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *AttemptService) ToggleAttempt(ctx context.Context, assignmentCode string, userID uint, questionNo int) (*model.AttemptState, error) {
	return s.mutate(ctx, assignmentCode, userID, func(state *model.AttemptState) error {
		return state.ToggleAttempt(questionNo)
	})
}

func (s *AttemptService) SaveDraft(ctx context.Context, assignmentCode string, userID uint, questionNo int, text string) (*model.AttemptState, error) {
	return s.mutate(ctx, assignmentCode, userID, func(state *model.AttemptState) error {
		return state.SaveDraft(questionNo, text, "")
	})
}

// UploadAttachment 上传答案附件并写入草稿，保留已有草稿文本
func (s *AttemptService) UploadAttachment(ctx context.Context, assignmentCode string, userID uint, questionNo int, originalName string, data []byte, contentType string) (*model.AttemptState, string, error) {
	var url string
	state, err := s.mutate(ctx, assignmentCode, userID, func(state *model.AttemptState) error {
		// 先校验状态迁移合法，再上传，避免产生孤儿文件
		draft := state.Drafts[questionNo]
		if err := state.SaveDraft(questionNo, draft.Text, ""); err != nil {
			return err
		}

		uploaded, err := s.Storage.UploadAttachment(ctx, assignmentCode, userID, originalName,
			bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			return err
		}
		url = uploaded
		return state.SaveDraft(questionNo, draft.Text, uploaded)
	})
	if err != nil {
		return nil, "", err
	}
	return state, url, nil
}

func (s *AttemptService) SubmitQuestion(ctx context.Context, assignmentCode string, userID uint, questionNo int) (*model.AttemptState, error) {
	return s.mutate(ctx, assignmentCode, userID, func(state *model.AttemptState) error {
		return state.SubmitQuestion(questionNo)
	})
}

// AutofillFromFile 从上传的手写作业文件中识别并回填答案。
// 识别结果为空是软失败：返回 Warning，会话状态不变。
func (s *AttemptService) AutofillFromFile(ctx context.Context, assignmentCode string, userID uint, data []byte, declaredMime string) (*AutofillResult, error) {
	assignment, err := s.AssignmentRepo.FindByCode(assignmentCode)
	if err != nil {
		return nil, util.ErrAssignmentNotFound
	}

	state, err := s.loadState(ctx, assignmentCode, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		session, err := s.GetOrCreateState(ctx, assignmentCode, userID)
		if err != nil {
			return nil, err
		}
		state = session.State
	}
	if state.ReadOnly {
		return nil, model.ErrAttemptReadOnly
	}
	if state.Submitted {
		return nil, model.ErrAssignmentSubmitted
	}

	questions, err := s.AssignmentRepo.ListQuestions(assignment.ID)
	if err != nil {
		return nil, err
	}
	refs := make([]QuestionRef, len(questions))
	for i, q := range questions {
		refs[i] = QuestionRef{QuestionNo: q.QuestionNo, Question: q.Question}
	}

	extraction, err := s.Extraction.ExtractAnswers(ctx, data, declaredMime, refs)
	if err != nil {
		return nil, err
	}

	result := &AutofillResult{State: state, Extraction: extraction}

	if extraction.Found == 0 {
		result.Warning = "no answers could be recognized in the uploaded file, your answers were left unchanged"
		return result, nil
	}

	filled, err := state.Autofill(extraction.Answers)
	if err != nil {
		return nil, err
	}
	result.Filled = filled

	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}

	if extraction.Missing == 0 {
		result.Message = fmt.Sprintf("all %d answers were filled in from your upload", extraction.Total)
	} else {
		result.Message = fmt.Sprintf("filled in %d of %d answers, questions %v could not be found in the upload",
			extraction.Found, extraction.Total, extraction.MissingNos)
	}
	return result, nil
}

// buildSubmissionAnswers 把会话草稿整理成落库答案。只有附件、正文为空白的题目
// 用占位文本代替，评审侧据此识别"仅附件"的答案
func buildSubmissionAnswers(state *model.AttemptState) []model.SubmissionAnswer {
	answers := make([]model.SubmissionAnswer, 0, len(state.States))
	for no := range state.States {
		draft := state.Drafts[no]
		text := draft.Text
		if strings.TrimSpace(text) == "" {
			text = util.NoAnswerPlaceholder
		}
		answers = append(answers, model.SubmissionAnswer{
			QuestionNo:    no,
			Answer:        text,
			AttachmentURL: draft.AttachmentURL,
		})
	}
	return answers
}

// SubmitAssignment 作业级提交。闸门：全部题目已提交。答案写库与状态置位之间，
// 写库失败时会话保持可编辑。
func (s *AttemptService) SubmitAssignment(ctx context.Context, assignmentCode string, userID uint) (*model.AttemptState, error) {
	assignment, err := s.AssignmentRepo.FindByCode(assignmentCode)
	if err != nil {
		return nil, util.ErrAssignmentNotFound
	}

	existing, err := s.SubmissionRepo.FindByAssignmentAndUser(assignment.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrAlreadySubmitted
	}

	state, err := s.loadState(ctx, assignmentCode, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, util.ErrNotSubmittedYet
	}
	if state.ReadOnly {
		return nil, model.ErrAttemptReadOnly
	}
	if state.Submitted {
		return nil, model.ErrAssignmentSubmitted
	}
	if !state.AllSubmitted() {
		return nil, &OutstandingError{QuestionNos: state.Outstanding()}
	}

	now := time.Now()
	submission := &model.AssignmentSubmission{
		AssignmentID: assignment.ID,
		UserID:       userID,
		Status:       model.SubmissionSubmitted,
		SubmittedAt:  &now,
	}

	answers := buildSubmissionAnswers(state)

	if err := s.SubmissionRepo.CreateWithAnswers(submission, answers); err != nil {
		return nil, err
	}

	state.MarkSubmitted()
	if err := s.saveState(ctx, state); err != nil {
		// 数据库已落库，会话写回失败只记日志，下次 GetOrCreateState 会对账修复
		logger.Log.Warn("failed to persist attempt session after submit",
			zap.String("assignmentCode", assignmentCode),
			zap.Uint("userID", userID),
			zap.Error(err))
	}

	logger.Log.Info("assignment submitted",
		zap.String("assignmentCode", assignmentCode),
		zap.Uint("userID", userID),
		zap.Int("answers", len(answers)))

	return state, nil
}
