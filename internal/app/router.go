package app

import (
	"edu_collaborate_backend/docs"
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/middleware"
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)
		authGroup.GET("/user/profile", c.user.GetProfile)
		authGroup.PUT("/user/profile", c.user.UpdateProfile)
		authGroup.PUT("/user/password", c.user.ChangePassword)
		authGroup.POST("/user/classrooms/join", c.user.JoinClassroom)

		// 评审发布等事件的实时通知
		authGroup.GET("/ws/notifications", c.notification.Connect)

		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	student := rg.Group("/student")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.GET("/assignments", c.assignment.StudentList)
		student.GET("/assignments/:code", c.assignment.StudentDetail)
		student.GET("/assignments/:code/review", c.review.StudentReview)

		// 答题会话：草稿存 Redis，提交后落库
		attempt := student.Group("/assignments/:code/attempt")
		{
			attempt.GET("", c.attempt.GetSession)
			attempt.POST("/questions/:questionNo/toggle", c.attempt.ToggleAttempt)
			attempt.PUT("/questions/:questionNo/draft", c.attempt.SaveDraft)
			attempt.POST("/questions/:questionNo/attachment", c.attempt.UploadAttachment)
			attempt.POST("/questions/:questionNo/submit", c.attempt.SubmitQuestion)
			attempt.POST("/extract", c.attempt.ExtractAnswers)
			attempt.POST("/submit", c.attempt.SubmitAssignment)
		}

		student.GET("/quizzes", c.quiz.StudentList)
		student.POST("/quizzes/:code/start", c.quiz.Start)
		student.POST("/quizzes/:code/submit", c.quiz.Submit)
		student.GET("/quizzes/:code/result", c.quiz.Result)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/classrooms", c.user.CreateClassroom)
		teacher.GET("/classrooms", c.user.ListClassrooms)

		teacher.POST("/assignments", c.assignment.Create)
		teacher.GET("/assignments", c.assignment.TeacherList)
		teacher.GET("/assignments/:code", c.assignment.TeacherDetail)
		teacher.PUT("/assignments/:code", c.assignment.Update)
		teacher.DELETE("/assignments/:code", c.assignment.Delete)
		teacher.POST("/assignments/:code/publish", c.assignment.Publish)
		teacher.POST("/assignments/:code/questions", c.assignment.AddQuestion)
		teacher.PUT("/assignments/:code/questions/:questionNo", c.assignment.UpdateQuestion)
		teacher.DELETE("/assignments/:code/questions/:questionNo", c.assignment.DeleteQuestion)

		teacher.GET("/assignments/:code/submissions", c.review.ListSubmissions)
		teacher.GET("/submissions/:id", c.review.GetDetail)
		teacher.POST("/submissions/:id/review", c.review.ManualReview)
		teacher.POST("/submissions/:id/ai-review", c.review.AIReview)

		teacher.POST("/quizzes", c.quiz.Create)
		teacher.GET("/quizzes", c.quiz.TeacherList)
		teacher.GET("/quizzes/:code", c.quiz.TeacherDetail)
		teacher.POST("/quizzes/:code/publish", c.quiz.Publish)
		teacher.POST("/quizzes/:code/questions", c.quiz.AddQuestion)
		teacher.DELETE("/quizzes/:code/questions/:questionNo", c.quiz.DeleteQuestion)
	}
}
