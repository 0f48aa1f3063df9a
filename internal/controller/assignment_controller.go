package controller

import (
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct {
	Service *service.AssignmentService
}

func NewAssignmentController(svc *service.AssignmentService) *AssignmentController {
	return &AssignmentController{Service: svc}
}

// @Summary 创建作业
// @Tags 作业模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateAssignmentRequest true "作业信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/assignments [post]
func (c *AssignmentController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assignment, err := c.Service.CreateAssignment(user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, assignment)
}

// @Summary 更新作业
// @Tags 作业模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param body body service.UpdateAssignmentRequest true "作业信息"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code} [put]
func (c *AssignmentController) Update(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assignment, err := c.Service.UpdateAssignment(ctx.Param("code"), user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, assignment)
}

// @Summary 删除作业
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code} [delete]
func (c *AssignmentController) Delete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.DeleteAssignment(ctx.Param("code"), user.UserID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 发布作业
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code}/publish [post]
func (c *AssignmentController) Publish(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	assignment, err := c.Service.Publish(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, assignment)
}

// @Summary 添加题目（题号由服务端分配）
// @Tags 作业模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/assignments/{code}/questions [post]
func (c *AssignmentController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuestionRequest
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

// @Summary 更新题目
// @Tags 作业模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param questionNo path int true "题号"
// @Param body body service.QuestionRequest true "题目信息"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code}/questions/{questionNo} [put]
func (c *AssignmentController) UpdateQuestion(ctx *gin.Context) {
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

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.Service.UpdateQuestion(ctx.Param("code"), user.UserID, questionNo, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 删除题目（题号不回收）
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Param questionNo path int true "题号"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code}/questions/{questionNo} [delete]
func (c *AssignmentController) DeleteQuestion(ctx *gin.Context) {
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

// @Summary 教师端作业详情
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments/{code} [get]
func (c *AssignmentController) TeacherDetail(ctx *gin.Context) {
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

// @Summary 教师端作业列表
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/teacher/assignments [get]
func (c *AssignmentController) TeacherList(ctx *gin.Context) {
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

// @Summary 学生端作业列表（仅已发布）
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/student/assignments [get]
func (c *AssignmentController) StudentList(ctx *gin.Context) {
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

// @Summary 学生端作业详情
// @Tags 作业模块
// @Produce json
// @Security BearerAuth
// @Param code path string true "作业编码"
// @Success 200 {object} util.Response
// @Router /api/student/assignments/{code} [get]
func (c *AssignmentController) StudentDetail(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.Service.GetStudentDetail(ctx.Param("code"), user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}
