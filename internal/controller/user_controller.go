package controller

import (
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Service          *service.UserService
	ClassroomService *service.ClassroomService
}

func NewUserController(svc *service.UserService, classroomSvc *service.ClassroomService) *UserController {
	return &UserController{Service: svc, ClassroomService: classroomSvc}
}

type JoinClassroomRequest struct {
	ClassroomID uint `json:"classroomId" binding:"required"`
}

// @Summary 获取个人资料
// @Tags 用户模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/user/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.Service.GetProfile(user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// @Summary 更新个人资料
// @Tags 用户模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response
// @Router /api/user/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.Service.UpdateProfile(user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// @Summary 修改密码
// @Tags 用户模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ChangePasswordRequest true "新旧密码"
// @Success 200 {object} util.Response
// @Router /api/user/password [put]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.ChangePassword(user.UserID, req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}

// @Summary 加入班级
// @Tags 用户模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body JoinClassroomRequest true "班级ID"
// @Success 200 {object} util.Response
// @Router /api/user/classrooms/join [post]
func (c *UserController) JoinClassroom(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req JoinClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.JoinClassroom(user.UserID, req.ClassroomID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 创建班级
// @Tags 用户模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateClassroomRequest true "班级信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/classrooms [post]
func (c *UserController) CreateClassroom(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateClassroomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	classroom, err := c.ClassroomService.CreateClassroom(user.UserID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, classroom)
}

// @Summary 教师班级列表
// @Tags 用户模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/teacher/classrooms [get]
func (c *UserController) ListClassrooms(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	classrooms, err := c.ClassroomService.ListForTeacher(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, classrooms)
}
