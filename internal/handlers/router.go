package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter собирает все маршруты API. Используется и в main, и в тестах,
// чтобы роутинг не расходился.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	schedules := r.Group("/api/schedules")
	{
		schedules.GET("", h.ListSchedulesHandler)
		schedules.GET("/:id", h.GetScheduleHandler)
		schedules.POST("", h.CreateScheduleHandler)
		schedules.PUT("/:id", h.UpdateScheduleHandler)
		schedules.DELETE("/:id", h.DeleteScheduleHandler)
	}

	feedbacks := r.Group("/api/feedbacks")
	{
		feedbacks.GET("", h.ListFeedbacksHandler)
		feedbacks.GET("/:id", h.GetFeedbackHandler)
		feedbacks.GET("/schedule/:scheduleId", h.GetFeedbackByScheduleHandler)
		feedbacks.POST("", h.CreateFeedbackHandler)
		feedbacks.PUT("/:id", h.UpdateFeedbackHandler)
		feedbacks.DELETE("/:id", h.DeleteFeedbackHandler)

		feedbacks.POST("/classify", h.ClassifyFeedbackHandler)
		feedbacks.POST("/chat", h.ChatHandler)
		feedbacks.POST("/chat/analyze", h.AnalyzeHandler)
	}

	return r
}
