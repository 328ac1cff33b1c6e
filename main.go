package main

import (
	"context"
	"log"
	"net/http"

	"vela_server/config"
	"vela_server/routes"
	"vela_server/services"
	"vela_server/socket"
	"vela_server/utils"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.JSONLogs, cfg.Debug)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Durable store.
	awsCfg, err := services.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		logger.Fatal("aws config", zap.Error(err))
	}
	dynamoService := &services.DynamoService{Client: services.InitializeDynamoDBClient(awsCfg)}

	// Ephemeral store.
	redisClient, err := services.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	redisService := &services.RedisService{Client: redisClient}

	// Compatibility scorer. Without an API key the queue still works on the
	// deterministic fallback scores.
	var scorer services.CompatibilityScorer
	if cfg.Gemini.APIKey != "" {
		compat, err := services.NewCompatService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout, logger)
		if err != nil {
			logger.Fatal("gemini client", zap.Error(err))
		}
		scorer = compat
	} else {
		logger.Warn("no gemini api key configured, using static compatibility scores")
		scorer = services.StaticScorer{}
	}

	// Realtime notification gateway.
	gateway := socket.NewGateway(logger)
	go func() {
		if err := gateway.Serve(); err != nil {
			logger.Error("socket server stopped", zap.Error(err))
		}
	}()
	defer gateway.Close()

	// Services.
	userProfileService := &services.UserProfileService{Dynamo: dynamoService}
	relationshipService := &services.RelationshipService{Dynamo: dynamoService, Logger: logger}
	photoService := services.NewPhotoService(awsCfg, cfg.S3Bucket)
	quotaService := &services.QuotaService{
		Store:     redisService,
		Allowance: cfg.Matching.DailyLikeAllowance,
		Logger:    logger,
	}
	notificationService := &services.NotificationService{
		Sink:    gateway,
		Retries: cfg.Matching.NotifyRetries,
		Logger:  logger,
	}
	recommendationService := &services.RecommendationService{
		Profiles:          userProfileService,
		Relationships:     relationshipService,
		Scorer:            scorer,
		Cache:             redisService,
		Logger:            logger,
		CandidateLimit:    cfg.Matching.CandidateLimit,
		ScorerConcurrency: cfg.Matching.ScorerConcurrency,
		QueueTTL:          cfg.Matching.QueueTTL,
		StoreTimeout:      cfg.Matching.StoreTimeout,
	}
	interactionService := &services.InteractionService{
		Relationships: relationshipService,
		Quota:         quotaService,
		Notifier:      notificationService,
		Logger:        logger,
		StoreTimeout:  cfg.Matching.StoreTimeout,
	}
	conversationService := &services.ConversationService{
		Profiles:        userProfileService,
		State:           redisService,
		Photos:          photoService,
		Recommendations: recommendationService,
		Interactions:    interactionService,
		Logger:          logger,
		StateTTL:        cfg.Matching.StateTTL,
		StoreTimeout:    cfg.Matching.StoreTimeout,
	}

	// Router.
	r := mux.NewRouter()
	r.Handle("/socket.io/", gateway.Server)

	routes.RegisterRoutes(r)
	routes.RegisterWebhookRoutes(r, conversationService, logger)
	routes.RegisterInteractionRoutes(r, interactionService, logger)
	routes.RegisterRecommendationRoutes(r, recommendationService, logger)
	routes.RegisterMatchRoutes(r, relationshipService, userProfileService, logger)
	routes.RegisterUserProfileRoutes(r, userProfileService, logger)
	routes.RegisterS3Routes(r, photoService, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, corsHandler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
