package controller

import (
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	Service *service.ReviewService
}

func NewReviewController(svc *service.ReviewService) *ReviewController {
	return &ReviewController{Service: svc}
}

// @Summary 作业提交列表
// @Tags 评审模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param studentName query string false "按学生姓名过滤"
// @Param status query string false "按状态过滤" Enums(submitted, reviewed)
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code}/submissions [get]
func (c *ReviewController) ListSubmissions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.MustParseInt(ctx.DefaultQuery("page", "1"))
	limit := util.MustParseInt(ctx.DefaultQuery("limit", "20"))

	rows, total, err := c.Service.ListSubmissions(ctx.Param("code"), user.UserID, page, limit,
		ctx.Query("studentName"), ctx.Query("status"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: rows, Total: total, Page: page, Limit: limit})
}

// @Summary 提交评审详情
// @Tags 评审模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/submissions/{id} [get]
func (c *ReviewController) GetDetail(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}

	detail, err := c.Service.GetReviewDetail(uint(submissionID), user.UserID, user.Role)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 教师人工评审
// @Tags 评审模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交ID"
// @Param body body service.ManualReviewRequest true "评审内容"
// @Success 200 {object} util.Response
// @Router /api/teacher/submissions/{id}/review [post]
func (c *ReviewController) ManualReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}

	var req service.ManualReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.Service.ManualReview(uint(submissionID), user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// @Summary AI 辅助评审
// @Description 调用大模型逐题打分并生成学习建议，结果写入评审字段
// @Tags 评审模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/submissions/{id}/ai-review [post]
func (c *ReviewController) AIReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	submissionID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid submission id")
		return
	}

	submission, err := c.Service.AIReview(ctx.Request.Context(), uint(submissionID), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, submission)
}

// @Summary 学生查看自己的评审结果
// @Tags 评审模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code}/review [get]
func (c *ReviewController) StudentReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.Service.GetStudentReview(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}
