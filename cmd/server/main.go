package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/authz"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/config"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/constants"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/database"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/email"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/handlers"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/jobs"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/logging"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/middleware"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/session"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/storage"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		JSON:      cfg.IsProduction(),
		SentryDSN: cfg.SentryDSN,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx := context.Background()

	users := repository.NewUserRepository(db)
	teams := repository.NewTeamRepository(db)
	roles := repository.NewRoleRepository(db)
	okrs := repository.NewOkrRepository(db)

	if err := authz.SeedDefaults(ctx, roles, log); err != nil {
		log.WithError(err).Fatal("Failed to seed roles and permissions")
	}

	// Session storage
	var sessionRepo repository.SessionRepository
	switch cfg.SessionBackend {
	case "redis":
		redisSessions, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Redis session store")
		}
		if err := redisSessions.Ping(ctx); err != nil {
			log.WithError(err).Fatal("Failed to reach Redis")
		}
		defer redisSessions.Close()
		sessionRepo = redisSessions
	default:
		sessionRepo = repository.NewSessionRepository(db)
	}
	log.WithField("backend", cfg.SessionBackend).Info("Session store ready")

	// Outgoing mail
	var sender email.Sender
	switch {
	case cfg.SendGridAPIKey != "":
		sender = email.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, "OKR Manager")
	case cfg.SMTPHost != "":
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, "OKR Manager")
	default:
		log.Warn("No mail transport configured, emails will only be logged")
		sender = email.NewLogSender(log)
	}
	mailer := email.NewService(sender, cfg.AppURL)

	// Avatar storage
	var avatars services.AvatarStorage
	if cfg.MinioEndpoint != "" {
		minioStorage, err := storage.NewMinioAvatarStorage(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create object storage client")
		}
		if err := minioStorage.EnsureBucket(ctx); err != nil {
			log.WithError(err).Fatal("Failed to prepare avatar bucket")
		}
		avatars = minioStorage
	}

	// Initialize AI service
	var suggester services.KeyResultSuggester
	if cfg.OpenAIAPIKey != "" {
		suggester = services.NewAIService(cfg.OpenAIAPIKey)
	}

	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	authorizer := authz.NewAuthorizer(teams, roles)

	svc := handlers.Services{
		Auth:  services.NewAuthService(users, sessionRepo, hasher, mailer, log, cfg.SessionTTL),
		Users: services.NewUserService(users, sessionRepo, teams, roles, hasher, avatars, log),
		Teams: services.NewTeamService(teams, users, roles, authorizer, mailer, log),
		OKRs:  services.NewOKRService(okrs, authorizer, suggester, log),
		Roles: services.NewRoleService(roles),
	}

	if cfg.MaintenanceCron != "" {
		scheduler := jobs.NewScheduler(sessionRepo, teams, log)
		if err := scheduler.Start(cfg.MaintenanceCron); err != nil {
			log.WithError(err).Fatal("Failed to start maintenance scheduler")
		}
		defer scheduler.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, cookieStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "OKR Manager API is running",
		})
	})

	handlers.RegisterRoutes(r, svc, authorizer, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
}
