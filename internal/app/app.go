package app

import (
	"fmt"

	"github.com/greenstash/greenstash/internal/backup"
	"github.com/greenstash/greenstash/internal/config"
	"github.com/greenstash/greenstash/internal/db"
	"github.com/greenstash/greenstash/internal/repository"
	"github.com/greenstash/greenstash/internal/service"
	"github.com/greenstash/greenstash/internal/storage"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	Codec              *backup.Codec
	GoalService        *service.GoalService
	TransactionService *service.TransactionService
	BackupService      *service.BackupService
	TokenService       *service.TokenService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	if cfg.AutoMigrate {
		err = db.RunMigrations(database.DB, cfg.DBDriver)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to run migrations: %v", err)
		}
	}

	// Repositories
	goalRepository := repository.NewGoalRepository(database)
	transactionRepository := repository.NewTransactionRepository(database)
	backupRepository := repository.NewBackupRepository(database)

	// Storage (nil when no bucket is configured)
	snapshotStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	codec := backup.New(cfg.BackupOptions())
	goalService := service.NewGoalService(goalRepository, transactionRepository, cfg.DateLayout())
	transactionService := service.NewTransactionService(goalRepository, transactionRepository)
	backupService := service.NewBackupService(codec, goalRepository, transactionRepository, backupRepository, snapshotStorage)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	return &App{
		Cfg:                cfg,
		DB:                 database,
		Codec:              codec,
		GoalService:        goalService,
		TransactionService: transactionService,
		BackupService:      backupService,
		TokenService:       tokenService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
