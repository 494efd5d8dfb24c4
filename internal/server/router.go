package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/expohall/expoadmin-backend/internal/handlers"
	"github.com/expohall/expoadmin-backend/internal/middleware"
	"github.com/expohall/expoadmin-backend/internal/observability"
)

type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	HealthcheckHandler  *handlers.HealthcheckHandler
	CatalogHandler      *handlers.CatalogHandler
	IntakeHandler       *handlers.IntakeHandler
	FormTypeHandler     *handlers.FormTypeHandler
	PipelineHandler     *handlers.PipelineHandler
	ContactHandler      *handlers.ContactHandler
	NotificationHandler *handlers.NotificationHandler
	SSEHandler          *handlers.SSEHandler
	AllowOrigins        []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("expoadmin-backend"))
	router.Use(observability.RequestMetrics())

	// Cors
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.GET("/metrics", observability.MetricsHandler())

	public := router.Group("/public")
	{
		public.GET("/catalog", cfg.CatalogHandler.GetCatalog)
		public.POST("/forms/:key/submissions", cfg.IntakeHandler.SubmitForm)
		public.POST("/newsletter", cfg.IntakeHandler.SubmitNewsletter)
		public.POST("/pre-registrations", cfg.IntakeHandler.SubmitPreRegistration)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Form types
	protected.GET("/form-types", cfg.FormTypeHandler.List)
	protected.GET("/form-types/:id", cfg.FormTypeHandler.Get)
	protected.PATCH("/form-types/:id/active", cfg.FormTypeHandler.SetActive)
	// Pipelines
	protected.POST("/pipelines", cfg.PipelineHandler.CreatePipeline)
	protected.GET("/pipelines", cfg.PipelineHandler.ListPipelines)
	protected.GET("/pipelines/:id", cfg.PipelineHandler.GetPipeline)
	protected.GET("/pipelines/:id/stages", cfg.PipelineHandler.ListStages)
	protected.POST("/pipelines/:id/stages", cfg.PipelineHandler.CreateStage)
	protected.POST("/pipelines/:id/normalize", cfg.PipelineHandler.NormalizePipeline)
	// Stages
	protected.PATCH("/stages/:id", cfg.PipelineHandler.UpdateStage)
	protected.DELETE("/stages/:id", cfg.PipelineHandler.DeleteStage)
	// Contacts
	protected.GET("/contacts", cfg.ContactHandler.ListContacts)
	protected.GET("/contacts/:id", cfg.ContactHandler.GetContact)
	protected.GET("/contacts/:id/history", cfg.ContactHandler.ListHistory)
	protected.POST("/contacts/:id/stage", cfg.ContactHandler.AssignStage)
	protected.POST("/contacts/:id/status", cfg.ContactHandler.SetStatus)
	protected.POST("/contacts/:id/priority", cfg.ContactHandler.SetPriority)
	protected.POST("/contacts/:id/notes", cfg.ContactHandler.AddNote)
	// Notifications
	protected.GET("/notifications", cfg.NotificationHandler.List)
	protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
	protected.GET("/notifications/status", cfg.NotificationHandler.Status)
	protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
	protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
	protected.DELETE("/notifications/:id", cfg.NotificationHandler.Remove)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}
