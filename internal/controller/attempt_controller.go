package controller

import (
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service *service.AttemptService
}

func NewAttemptController(svc *service.AttemptService) *AttemptController {
	return &AttemptController{Service: svc}
}

type SaveDraftRequest struct {
	Text string `json:"text"`
}

// @Summary 获取或创建答题会话
// @Description 已评审的提交会把会话冻结为只读，未提交草稿被服务端答案覆盖时返回 warning
// @Tags 答题会话模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt [get]
func (c *AttemptController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Service.GetOrCreateState(ctx.Request.Context(), ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	if len(session.DraftDiscarded) > 0 {
		util.SuccessWithWarning(ctx, session,
			"this assignment has been reviewed, unsaved drafts for some questions were replaced by your submitted answers")
		return
	}
	util.Success(ctx, session)
}

// @Summary 切换题目作答状态
// @Tags 答题会话模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param questionNo path int true "题号"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt/questions/{questionNo}/toggle [post]
func (c *AttemptController) ToggleAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionNo, err := strconv.Atoi(ctx.Param("questionNo"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	state, err := c.Service.ToggleAttempt(ctx.Request.Context(), ctx.Param("code"), user.UserID, questionNo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// @Summary 保存答案草稿
// @Tags 答题会话模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param questionNo path int true "题号"
// @Param body body SaveDraftRequest true "草稿内容"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt/questions/{questionNo}/draft [put]
func (c *AttemptController) SaveDraft(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionNo, err := strconv.Atoi(ctx.Param("questionNo"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	var req SaveDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := c.Service.SaveDraft(ctx.Request.Context(), ctx.Param("code"), user.UserID, questionNo, req.Text)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// @Summary 上传答案附件
// @Tags 答题会话模块
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param questionNo path int true "题号"
// @Param file formData file true "附件"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt/questions/{questionNo}/attachment [post]
func (c *AttemptController) UploadAttachment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionNo, err := strconv.Atoi(ctx.Param("questionNo"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	data, contentType, err := readUploadedFile(fileHeader)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	state, url, err := c.Service.UploadAttachment(ctx.Request.Context(), ctx.Param("code"), user.UserID,
		questionNo, fileHeader.Filename, data, contentType)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"state": state, "attachmentUrl": url})
}

// @Summary 提交单题答案
// @Tags 答题会话模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param questionNo path int true "题号"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt/questions/{questionNo}/submit [post]
func (c *AttemptController) SubmitQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questionNo, err := strconv.Atoi(ctx.Param("questionNo"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	state, err := c.Service.SubmitQuestion(ctx.Request.Context(), ctx.Param("code"), user.UserID, questionNo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// @Summary 上传手写作业并自动识别答案
// @Description 支持图片与 PDF。识别到的答案直接回填为已提交，识别为空时返回 warning 且不改动会话
// @Tags 答题会话模块
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param file formData file true "作业照片或 PDF"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt/extract [post]
func (c *AttemptController) ExtractAnswers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	data, contentType, err := readUploadedFile(fileHeader)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	result, err := c.Service.AutofillFromFile(ctx.Request.Context(), ctx.Param("code"), user.UserID, data, contentType)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	if result.Warning != "" {
		util.SuccessWithWarning(ctx, result, result.Warning)
		return
	}
	util.Success(ctx, result)
}

// @Summary 提交整份作业
// @Description 所有题目均已提交时才允许，否则返回 409 并指出未完成的题目数量
// @Tags 答题会话模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/attempt/submit [post]
func (c *AttemptController) SubmitAssignment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	state, err := c.Service.SubmitAssignment(ctx.Request.Context(), ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

func readUploadedFile(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, fileHeader.Header.Get("Content-Type"), nil
}
