package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"marineai-backend/internal/ai"
	appsvc "marineai-backend/internal/app"
	"marineai-backend/internal/bootstrap"
	"marineai-backend/internal/cache"
	"marineai-backend/internal/pkg/textextract"
	"marineai-backend/internal/platform/rabbitmq"
	"marineai-backend/internal/rag"
	"marineai-backend/internal/repository"
	"marineai-backend/internal/transport/http/handler"
	"marineai-backend/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	cfg := app.Config

	documentRepo := repository.NewDocumentRepository(app.Postgres)
	chunkRepo := repository.NewChunkRepository(app.Postgres)
	convRepo := repository.NewConversationRepository(app.Postgres)
	messageRepo := repository.NewMessageRepository(app.Postgres)

	aiClient := ai.NewClient(ai.ClientConfig{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		EmbeddingDim:   cfg.LLM.EmbeddingDim,
	})

	ingestService := appsvc.NewIngestService(
		documentRepo,
		chunkRepo,
		textextract.New(),
		rag.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		aiClient,
	)
	docService := appsvc.NewDocumentService(documentRepo, chunkRepo, aiClient)
	retrievalService := appsvc.NewRetrievalService(aiClient, chunkRepo)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewMessagePublisher(app.MQConn, cfg.RabbitMQ.MessagePersistQueue)
	chatService := appsvc.NewChatService(
		convRepo,
		messageRepo,
		publisher,
		historyCache,
		retrievalService,
		aiClient,
		cfg.RAG.TopK,
		cfg.RAG.ChatThreshold,
		cfg.LLM.MaxContextMessage,
	)

	authService := appsvc.NewAuthService(
		cfg.Auth.AdminPasswordHash,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(
		docService,
		ingestService,
		retrievalService,
		cfg.RAG.UploadDir,
		cfg.RAG.MaxUploadSizeByte,
	)
	chatHandler := handler.NewRagChatHandler(chatService, docService)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthJWT(cfg.Auth.JWTSecret))
	adminGroup.POST("/documents", documentHandler.Upload)
	adminGroup.GET("/documents", documentHandler.List)
	adminGroup.GET("/documents/:id", documentHandler.Detail)
	adminGroup.DELETE("/documents/:id", documentHandler.Delete)
	adminGroup.PUT("/chunks/:id", documentHandler.UpdateChunk)
	adminGroup.POST("/search", documentHandler.Search)

	chatGroup := v1.Group("/chat")
	chatGroup.GET("/conversations", chatHandler.ListConversations)
	chatGroup.POST("/conversations", chatHandler.CreateConversation)
	chatGroup.GET("/conversations/:id", chatHandler.GetConversation)
	chatGroup.PUT("/conversations/:id", chatHandler.RenameConversation)
	chatGroup.DELETE("/conversations/:id", chatHandler.DeleteConversation)
	chatGroup.POST("/conversations/:id/saved", chatHandler.ToggleSaved)
	chatGroup.GET("/documents", chatHandler.ListReadyDocuments)
	chatGroup.POST("/messages", chatHandler.Chat)

	return router
}
