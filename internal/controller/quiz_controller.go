package controller

import (
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// @Summary 创建测验
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateQuizRequest true "测验信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 添加测验题目
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Param body body service.QuizQuestionRequest true "题目信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/quizzes/{code}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.Service.AddQuestion(ctx.Param("code"), user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary 删除测验题目
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Param questionNo path int true "题号"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{code}/questions/{questionNo} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
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

	if err := c.Service.DeleteQuestion(ctx.Param("code"), user.UserID, questionNo); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 发布测验
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{code}/publish [post]
func (c *QuizController) Publish(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	quiz, err := c.Service.Publish(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 教师端测验详情
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes/{code} [get]
func (c *QuizController) TeacherDetail(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.Service.GetTeacherDetail(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 教师端测验列表
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/teacher/quizzes [get]
func (c *QuizController) TeacherList(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.MustParseInt(ctx.DefaultQuery("page", "1"))
	limit := util.MustParseInt(ctx.DefaultQuery("limit", "20"))

	rows, total, err := c.Service.ListForTeacher(user.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// @Summary 学生端测验列表（仅已发布）
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/student/quizzes [get]
func (c *QuizController) StudentList(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.MustParseInt(ctx.DefaultQuery("page", "1"))
	limit := util.MustParseInt(ctx.DefaultQuery("limit", "20"))

	rows, total, err := c.Service.ListForStudent(user.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// @Summary 开始测验
// @Description 首次调用创建答题记录并开始计时，题目不含标准答案
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Success 200 {object} util.Response
// @Router /api/student/quizzes/{code}/start [post]
func (c *QuizController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, submission, err := c.Service.StartQuiz(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"quiz": detail, "submission": submission})
}

// @Summary 提交测验
// @Description 服务端自动判分，超时提交照常判分但标记超时
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Param body body service.SubmitQuizRequest true "答案，键为题号"
// @Success 200 {object} util.Response
// @Router /api/student/quizzes/{code}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitQuiz(ctx.Param("code"), user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 查看测验成绩
// @Tags 测验模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "测验编码"
// @Success 200 {object} util.Response
// @Router /api/student/quizzes/{code}/result [get]
func (c *QuizController) Result(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.GetResult(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
