package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "bizadvisor/internal/app"
	"bizadvisor/internal/bootstrap"
	"bizadvisor/internal/cache"
	"bizadvisor/internal/platform/rabbitmq"
	"bizadvisor/internal/repository"
	"bizadvisor/internal/transport/http/handler"
	"bizadvisor/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)

	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	ingestService := appsvc.NewIngestService(
		sessionRepo,
		documentRepo,
		messageRepo,
		app.TempStore,
		app.Sessions,
		app.Embedder,
		app.Config.RAG,
	)
	advisorService := appsvc.NewAdvisorService(
		sessionRepo,
		messageRepo,
		publisher,
		historyCache,
		app.Sessions,
		app.Chat,
		app.Embedder,
		app.Searcher,
		app.Config.RAG.RetrievalK,
	)

	authHandler := handler.NewAuthHandler(authService)
	advisorHandler := handler.NewAdvisorHandler(advisorService)
	documentHandler := handler.NewDocumentHandler(ingestService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	sessions := v1.Group("/sessions")
	sessions.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	sessions.POST("", advisorHandler.CreateSession)
	sessions.GET("", advisorHandler.ListSessions)
	sessions.DELETE("/:id", advisorHandler.DeleteSession)
	sessions.POST("/:id/documents", documentHandler.Upload)
	sessions.GET("/:id/documents", documentHandler.Get)
	sessions.DELETE("/:id/documents", documentHandler.Clear)
	sessions.POST("/:id/chat", advisorHandler.Ask)
	sessions.GET("/:id/history", advisorHandler.GetHistory)

	return router
}
