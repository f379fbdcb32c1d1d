package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"reviewhub/database"
	"reviewhub/internal/auth"
	"reviewhub/internal/cache"
	"reviewhub/internal/config"
	"reviewhub/internal/handler"
	"reviewhub/internal/mailer"
	"reviewhub/internal/middleware"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	var ratings cache.RatingCache
	ratings, err = cache.NewRatingRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RatingCacheTTL)
	if err != nil {
		logger.Warn("redis unavailable, rating cache disabled", "error", err)
		ratings = cache.NoopRatingCache{}
	}

	var mail mailer.Mailer
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.MailFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		logger.Warn("no SMTP endpoint configured, confirmation codes go to the log")
		mail = mailer.NewLogMailer(logger)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	codes := auth.NewCodeIssuer(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
	validator := service.NewUserValidator(cfg.UsernameMaxLen, cfg.EmailMaxLen)

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authSvc := service.NewAuthService(userRepo, codes, tokens, mail, validator, logger)
	userSvc := service.NewUserService(userRepo, validator)
	categorySvc := service.NewCategoryService(categoryRepo)
	genreSvc := service.NewGenreService(genreRepo)
	titleSvc := service.NewTitleService(titleRepo, categoryRepo, genreRepo, reviewRepo, ratings, logger)
	reviewSvc := service.NewReviewService(reviewRepo, titleRepo, ratings, logger)
	commentSvc := service.NewCommentService(commentRepo, reviewRepo, titleRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	authGroup := v1.Group("/auth", authLimiter.Middleware())
	handler.NewAuthHandler(authSvc).RegisterRoutes(authGroup)

	// Reads are public, writes check the principal inside the service, so the
	// mixed groups only attach optional auth.
	optional := middleware.OptionalAuthMiddleware(tokens)

	categoryGroup := v1.Group("/categories", optional)
	handler.NewCategoryHandler(categorySvc).RegisterRoutes(categoryGroup)

	genreGroup := v1.Group("/genres", optional)
	handler.NewGenreHandler(genreSvc).RegisterRoutes(genreGroup)

	titleGroup := v1.Group("/titles", optional)
	handler.NewTitleHandler(titleSvc).RegisterRoutes(titleGroup)
	handler.NewReviewHandler(reviewSvc).RegisterRoutes(titleGroup)
	handler.NewCommentHandler(commentSvc).RegisterRoutes(titleGroup)

	userGroup := v1.Group("/users", middleware.AuthMiddleware(tokens))
	handler.NewUserHandler(userSvc).RegisterRoutes(userGroup)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("server starting", "addr", addr, "env", cfg.GoEnv)
	if err := r.Run(addr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
