package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"marineai-backend/internal/app"
	"marineai-backend/internal/config"
	"marineai-backend/internal/model"
	postgresClient "marineai-backend/internal/platform/postgres"
	rabbitmqClient "marineai-backend/internal/platform/rabbitmq"
	redisClient "marineai-backend/internal/platform/redis"
	"marineai-backend/internal/repository"
	"marineai-backend/internal/worker"
)

type App struct {
	Config        *config.Config
	Postgres      *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	MessageWorker *worker.MessagePersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := prepareSchema(db); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	messageRepo := repository.NewMessageRepository(db)
	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}

	sweepStaleConversations(db, cfg.RAG.RetentionDays)

	return &App{
		Config:        cfg,
		Postgres:      db,
		Redis:         redisCli,
		MQConn:        mqConn,
		MessageWorker: messageWorker,
		StartedAt:     time.Now(),
	}, nil
}

// prepareSchema migrates the tables and makes sure the pgvector extension
// and the ANN index exist before the first similarity query runs.
func prepareSchema(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension failed: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Document{},
		&model.DocumentChunk{},
		&model.RagConversation{},
		&model.RagMessage{},
	); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	err := db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding " +
			"ON document_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)",
	).Error
	if err != nil {
		return fmt.Errorf("create embedding index failed: %w", err)
	}
	return nil
}

// sweepStaleConversations deletes unpinned conversations past the retention
// window. A failed sweep is logged and never blocks startup.
func sweepStaleConversations(db *gorm.DB, retentionDays int) {
	sweeper := app.NewRetentionSweeper(repository.NewConversationRepository(db), retentionDays)
	deleted, err := sweeper.Run()
	if err != nil {
		log.Printf("retention sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("retention sweep deleted %d stale conversations", deleted)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		sqlDB, err := a.Postgres.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
