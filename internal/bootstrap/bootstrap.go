package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/advoga/advoga/internal/app/controllers"
	appMigrations "github.com/advoga/advoga/internal/app/migrations"
	appRepos "github.com/advoga/advoga/internal/app/repositories"
	appRoutes "github.com/advoga/advoga/internal/app/routes"
	appServices "github.com/advoga/advoga/internal/app/services"
	"github.com/advoga/advoga/internal/config"
	"github.com/advoga/advoga/internal/db"
	appMiddleware "github.com/advoga/advoga/internal/middleware"
	pkgAuth "github.com/advoga/advoga/internal/pkg/auth"
	"github.com/advoga/advoga/internal/pkg/email"
	"github.com/advoga/advoga/internal/pkg/logger"
	"github.com/advoga/advoga/internal/pkg/push"
	"github.com/advoga/advoga/internal/pkg/websocket"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
	"github.com/advoga/advoga/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService            appServices.AuthService
	ConversationService    appServices.ConversationService
	ChatService            appServices.ChatService
	NotificationService    appServices.NotificationService
	PreferenceService      appServices.PreferenceService
	WhatsAppService        appServices.WhatsAppService
	AuthController         *appControllers.AuthController
	ConversationController *appControllers.ConversationController
	ChatController         *appControllers.ChatController
	NotificationController *appControllers.NotificationController
	WebhookController      *appControllers.WebhookController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	WhatsAppClient         *whatsapp.Client
	Hub                    *websocket.Hub
	WSHandler              *websocket.Handler
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Seeding problems are logged but never block startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  parseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: parseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		BaseURL:   cfg.SMTP.BaseURL,
	}, lgr)

	pushService := push.NewPushService(push.Config{
		Endpoint: cfg.Push.Endpoint,
		APIKey:   cfg.Push.APIKey,
	}, lgr)

	deps.WhatsAppClient = whatsapp.NewClient(whatsapp.Config{
		BusinessAccountID: cfg.WhatsApp.BusinessAccountID,
		PhoneNumberID:     cfg.WhatsApp.PhoneNumberID,
		AccessToken:       cfg.WhatsApp.AccessToken,
		VerifyToken:       cfg.WhatsApp.VerifyToken,
		APIVersion:        cfg.WhatsApp.APIVersion,
	}, lgr)
	if !deps.WhatsAppClient.Configured() {
		lgr.Warn().Msg("WhatsApp credentials not configured, outbound sending disabled")
	}

	deps.Hub = websocket.NewHub(lgr)
	go deps.Hub.Run()

	location := cfg.Location()

	deps.PreferenceService = appServices.NewPreferenceService(deps.Repos.Preferences, lgr)

	deps.NotificationService = appServices.NewNotificationService(
		deps.Repos.Notifications,
		deps.PreferenceService,
		deps.Repos.Users,
		deps.Repos.Clients,
		emailService,
		pushService,
		deps.WhatsAppClient,
		location,
		lgr,
	)

	deps.ChatService = appServices.NewChatService(
		deps.Repos.Messages,
		deps.Repos.Conversations,
		deps.Repos.Participants,
		deps.Repos.Statuses,
		deps.NotificationService,
		deps.WhatsAppClient,
		deps.Hub,
		lgr,
	)

	deps.ConversationService = appServices.NewConversationService(
		deps.Repos.Conversations,
		deps.Repos.Participants,
		deps.Repos.Clients,
		deps.Repos.Users,
		lgr,
	)

	deps.WhatsAppService = appServices.NewWhatsAppService(
		deps.Repos.Conversations,
		deps.Repos.Participants,
		deps.Repos.Messages,
		deps.Repos.Statuses,
		deps.Repos.Clients,
		deps.Repos.Users,
		deps.NotificationService,
		deps.WhatsAppClient,
		deps.Hub,
		location,
		lgr,
	)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.Users,
		deps.Repos.Clients,
		deps.JWTService,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.Users, deps.Repos.Clients)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.ConversationController = appControllers.NewConversationController(deps.ConversationService)
	deps.ChatController = appControllers.NewChatController(deps.ChatService)
	deps.NotificationController = appControllers.NewNotificationController(deps.NotificationService, deps.PreferenceService)
	deps.WebhookController = appControllers.NewWebhookController(deps.WhatsAppService, deps.WhatsAppClient, lgr)

	deps.WSHandler = websocket.NewHandler(deps.Hub, deps.Repos.Participants, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(gin.Recovery())

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ConversationController,
		deps.ChatController,
		deps.NotificationController,
		deps.WebhookController,
		deps.WSHandler,
		deps.AuthMiddleware,
	)

	return router
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
