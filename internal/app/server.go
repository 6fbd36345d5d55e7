// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"pocket-agency-service/internal/config"
	"pocket-agency-service/internal/db"
	"pocket-agency-service/internal/gateway/payfast"
	authHandler "pocket-agency-service/internal/handlers/auth"
	projectHandler "pocket-agency-service/internal/handlers/project"
	subscriptionHandler "pocket-agency-service/internal/handlers/subscription"
	webhookHandler "pocket-agency-service/internal/handlers/webhook"
	"pocket-agency-service/internal/middleware"
	"pocket-agency-service/internal/pkg/jwt"
	"pocket-agency-service/internal/repository/postgres"
	authUsecase "pocket-agency-service/internal/service/auth"
	"pocket-agency-service/internal/service/email"
	inviteUsecase "pocket-agency-service/internal/service/invite"
	projectUsecase "pocket-agency-service/internal/service/project"
	subscriptionUsecase "pocket-agency-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	authService *authUsecase.AuthService
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addresses: []string{s.cfg.RedisAddr},
		Password:  s.cfg.RedisPass,
		DB:        0,
		PoolSize:  10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] ✅ Connected successfully")

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Email -----
	emailSender := email.NewEmailSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	)

	// ----- Payment Gateway -----
	pfCfg := payfast.Config{
		MerchantID:  s.cfg.PayFast.MerchantID,
		MerchantKey: s.cfg.PayFast.MerchantKey,
		Passphrase:  s.cfg.PayFast.Passphrase,
		ProcessURL:  s.cfg.PayFast.ProcessURL,
		APIBaseURL:  s.cfg.PayFast.APIBaseURL,
		ReturnURL:   s.cfg.PayFast.ReturnURL,
		CancelURL:   s.cfg.PayFast.CancelURL,
		NotifyURL:   s.cfg.PayFast.NotifyURL,
	}
	pfClient := payfast.NewClient(pfCfg, logger)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(dbWrapper)
	webhookEventRepo := postgres.NewWebhookEventRepository(dbWrapper)
	inviteRepo := postgres.NewInviteRepository(dbWrapper)
	accountRepo := postgres.NewAccountRepository(dbWrapper)
	projectRepo := postgres.NewProjectRepository(dbWrapper)

	// ----- Services (Usecases) -----
	dedupe := subscriptionUsecase.NewRedisDedupe(redisClient)
	subscriptionService := subscriptionUsecase.NewSubscriptionService(
		subscriptionRepo,
		webhookEventRepo,
		pfClient,
		dedupe,
		emailSender,
		pfCfg,
		logger,
	)
	inviteService := inviteUsecase.NewInviteService(inviteRepo, emailSender, s.cfg.BaseURL, logger)
	authService := authUsecase.NewAuthService(accountRepo, inviteService, jwtManager.Generator, logger)
	s.authService = authService
	projectService := projectUsecase.NewProjectService(projectRepo, subscriptionService, logger)

	// ----- Initialize Super Admin -----
	if err := s.initializeSuperAdmin(); err != nil {
		logger.Error("failed to initialize super admin", zap.Error(err))
		// Don't fail startup, just log the error
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, inviteService, logger)
	subscriptionHandlerInst := subscriptionHandler.NewSubscriptionHandler(subscriptionService)
	webhookHandlerInst := webhookHandler.NewWebhookHandler(subscriptionService, logger)
	projectHandlerInst := projectHandler.NewProjectHandler(projectService)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtManager.Verifier)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:         authHandlerInst,
		SubscriptionHandler: subscriptionHandlerInst,
		WebhookHandler:      webhookHandlerInst,
		ProjectHandler:      projectHandlerInst,
		AuthMiddleware:      authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("🚀 Server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// initializeSuperAdmin creates super admin if it doesn't exist
func (s *Server) initializeSuperAdmin() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := os.Getenv("SUPER_ADMIN_EMAIL")
	password := os.Getenv("SUPER_ADMIN_PASSWORD")
	fullName := os.Getenv("SUPER_ADMIN_NAME")

	// Defaults are for development only
	if email == "" {
		email = "admin@pocketagency.app"
		s.logger.Warn("SUPER_ADMIN_EMAIL not set, using default", zap.String("email", email))
	}
	if password == "" {
		password = "ChangeMe!2024"
		s.logger.Warn("SUPER_ADMIN_PASSWORD not set, using default password")
	}
	if fullName == "" {
		fullName = "Super Administrator"
	}

	return s.authService.EnsureSuperAdminExists(ctx, email, password, fullName)
}
