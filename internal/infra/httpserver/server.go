package httpserver

import (
	"daily_trivia_bot/internal/app"
	"daily_trivia_bot/internal/infra/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with the inbound webhook and the admin API.
func NewRouter(
	cfg *config.AppConfig,
	answerService app.AnswerService,
	adminService *app.AdminService,
	scheduleService app.ScheduleService,
	dispatchService app.DispatchService,
	logger *logrus.Logger,
) *gin.Engine {
	if cfg.Environment == "production" || cfg.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetTrustedProxies(nil)

	h := &handlers{
		answerService:   answerService,
		adminService:    adminService,
		scheduleService: scheduleService,
		dispatchService: dispatchService,
		logger:          logger,
	}

	router.GET("/health", h.Health)
	router.POST("/webhook/sms", h.InboundSMS)

	admin := router.Group("/admin")
	admin.Use(bearerAuth(cfg.AdminToken))
	{
		admin.POST("/users", h.SignupUser)
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:phone/deactivate", h.DeactivateUser)
		admin.POST("/users/:phone/reactivate", h.ReactivateUser)
		admin.POST("/questions", h.AddQuestion)
		admin.GET("/queue/status", h.QueueStatus)
		admin.POST("/queue/populate", h.PopulateQueue)
		admin.POST("/dispatch/run", h.RunDispatch)
	}

	return router
}

// bearerAuth guards the admin API with a single static operator token.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
