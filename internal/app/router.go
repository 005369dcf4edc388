package app

import (
	"edforge_backend/docs"
	"edforge_backend/internal/config"
	"edforge_backend/internal/middleware"
	"edforge_backend/internal/model"
	"edforge_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 学习进度
		progress := authGroup.Group("/progress")
		{
			progress.PUT("/blocks/:blockId", c.progress.UpdateProgress)
			progress.GET("/blocks/:blockId", c.progress.GetBlockProgress)
			progress.GET("/sessions/:sessionId", c.progress.GetSessionProgress)
			progress.GET("/subjects/:subjectId", c.progress.GetSubjectProgress)
		}

		authGroup.GET("/certificates/subjects/:subjectId/eligibility", c.progress.GetCertificateEligibility)

		// 测验与考试
		attempts := authGroup.Group("/attempts")
		{
			attempts.GET("/blocks/:blockId/questions", c.attempt.GetQuestions)
			attempts.POST("/blocks/:blockId", c.attempt.StartAttempt)
			attempts.GET("/blocks/:blockId/result", c.attempt.GetResult)
			attempts.PUT("/:attemptId/answers", c.attempt.RecordAnswer)
			attempts.POST("/:attemptId/submit", c.attempt.SubmitAttempt)
		}

		// 作业
		assignments := authGroup.Group("/assignments")
		{
			assignments.POST("/blocks/:blockId", c.submission.SubmitAssignment)
			assignments.GET("/blocks/:blockId", c.submission.GetSubmissionStatus)
		}

		// 教师批改
		staff := authGroup.Group("/staff")
		staff.Use(middleware.RoleMiddleware(model.Staff))
		{
			staff.POST("/assignments/submissions/:id/grade", c.submission.GradeAssignment)
			staff.GET("/assignments/blocks/:blockId/pending", c.submission.ListPending)
		}
	}
}
