package controller

import (
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// respondServiceError 业务错误到 HTTP 状态码的统一映射，未识别的错误按 500 处理
func respondServiceError(ctx *gin.Context, err error) {
	var outstanding *service.OutstandingError
	if errors.As(err, &outstanding) {
		util.Conflict(ctx, outstanding.Error())
		return
	}

	switch {
	case errors.Is(err, util.ErrAssignmentNotFound),
		errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrSubmissionNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)

	case errors.Is(err, util.ErrPermissionDenied),
		errors.Is(err, util.ErrNotPublished):
		util.Forbidden(ctx)

	case errors.Is(err, util.ErrAlreadySubmitted),
		errors.Is(err, model.ErrAssignmentSubmitted),
		errors.Is(err, model.ErrAttemptReadOnly),
		errors.Is(err, model.ErrQuestionSubmitted):
		util.Conflict(ctx, err.Error())

	case errors.Is(err, util.ErrEmailRegistered),
		errors.Is(err, util.ErrNoQuestions),
		errors.Is(err, util.ErrNotSubmittedYet),
		errors.Is(err, util.ErrUnsupportedFileType),
		errors.Is(err, util.ErrFileTooLarge),
		errors.Is(err, util.ErrEmptyExtraction),
		errors.Is(err, model.ErrUnknownQuestion),
		errors.Is(err, model.ErrQuestionNotAttempted),
		errors.Is(err, model.ErrEmptyAnswer):
		util.BadRequest(ctx, err.Error())

	default:
		util.LogInternalError(ctx, err)
	}
}
