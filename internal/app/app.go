package app

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/vipul43/label-mirror/internal/config"
	"github.com/vipul43/label-mirror/internal/database"
	"github.com/vipul43/label-mirror/internal/gmail"
	"github.com/vipul43/label-mirror/internal/repository"
	"github.com/vipul43/label-mirror/internal/server"
	"github.com/vipul43/label-mirror/internal/service"
)

// App holds the wired components of one process
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Gmail  *gmail.Client
	Runner *service.SyncRunner
	Labels *service.LabelService
	Auth   *service.AuthService
	Server *server.Server
	Log    *logrus.Logger
}

// NewLogger builds the process logger at level
func NewLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)

	// Libraries logging through the standard logger follow the same settings
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(level)
	return log
}

// New connects to the database and wires repositories, clients and services
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully")

	sqlDB, err := db.DB()
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	syncRunRepo := repository.NewSyncRunRepository(sqlDB)

	// Initialize Gmail client
	limiter := rate.NewLimiter(rate.Limit(cfg.GmailRPS), cfg.GmailBurst)
	gmailClient := gmail.NewClient(cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRedirectURL, accountRepo, limiter, log)

	// Initialize services
	reconciler := service.NewReconciler(gmailClient, messageRepo, cfg.SyncPageSize, cfg.SyncConcurrency, log)
	runner := service.NewSyncRunner(reconciler, syncRunRepo, log)
	labels := service.NewLabelService(gmailClient, labelRepo, log)
	auth := service.NewAuthService(gmailClient, labels, runner, cfg.SyncLabelID, log)

	srv, err := server.New(server.Deps{
		Auth:         auth,
		Syncer:       runner,
		RemoteLabels: labels,
		Messages:     messageRepo,
		Labels:       labelRepo,
		DB:           sqlDB,
	}, server.Settings{
		Port:              cfg.HTTPPort,
		LabelID:           cfg.SyncLabelID,
		AllowedCategories: cfg.AllowedCategories,
		Location:          cfg.DisplayLocation,
	}, log)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	return &App{
		Config: cfg,
		DB:     db,
		Gmail:  gmailClient,
		Runner: runner,
		Labels: labels,
		Auth:   auth,
		Server: srv,
		Log:    log,
	}, nil
}

// Close releases the database pool
func (a *App) Close() error {
	return database.Close(a.DB)
}
