package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"colorbook-backend/internal/account"
	googleauth "colorbook-backend/internal/auth"
	"colorbook-backend/internal/batches"
	"colorbook-backend/internal/imagegen"
	imagegenopenai "colorbook-backend/internal/imagegen/openai"
	"colorbook-backend/internal/pages"
	"colorbook-backend/internal/pipeline"
	"colorbook-backend/internal/queue"
	"colorbook-backend/internal/references"
	"colorbook-backend/internal/services/health"
	"colorbook-backend/internal/shared/config"
	"colorbook-backend/internal/shared/server"
	"colorbook-backend/internal/shared/storage/db"
	"colorbook-backend/internal/shared/storage/object"
	localstore "colorbook-backend/internal/shared/storage/object/local"
	s3store "colorbook-backend/internal/shared/storage/object/s3"
	"colorbook-backend/internal/usage"
	"colorbook-backend/internal/users"
	"colorbook-backend/internal/vision"
	visionopenai "colorbook-backend/internal/vision/openai"
)

// App holds shared dependencies wired from config.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	PagesRepo         pages.Repo
	BatchesRepo       batches.Repo
	ReferencesRepo    references.Repo
	UsersRepo         users.Repo
	PagesService      *pages.Service
	BatchesService    *batches.Service
	ReferencesService *references.Service
	UsageService      *usage.Service
	AccountService    *account.Service
	UsersService      *users.Service
	PageProcessor     PageProcessor
	PagesHandler      *pages.Handler
	BatchesHandler    *batches.Handler
	ReferencesHandler *references.Handler
	AccountHandler    *account.Handler
	UsageHandler      *usage.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
	Services          map[string]any
}

// PageProcessor allows callers to override page processing for tests.
type PageProcessor interface {
	ProcessPage(ctx context.Context, pageID string) error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Router:   nil,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		Services: map[string]any{},
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		Health:           health.NewService(),
		PageHandler:      app.PagesHandler,
		BatchHandler:     app.BatchesHandler,
		ReferenceHandler: app.ReferencesHandler,
		AccountHandler:   app.AccountHandler,
		UsageHandler:     app.UsageHandler,
		UserHandler:      app.UsersHandler,
		GoogleAuth:       app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CB_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var pageRepo pages.Repo
	var batchRepo batches.Repo
	var referenceRepo references.Repo
	var userRepo users.Repo

	if app.DB != nil {
		pageRepo = &pages.PGRepo{DB: app.DB}
		batchRepo = &batches.PGRepo{DB: app.DB}
		referenceRepo = &references.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		pageRepo = pages.NewMemoryRepo()
		batchRepo = batches.NewMemoryRepo()
		referenceRepo = references.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	generator := imagegen.Client(imagegen.PlaceholderClient{})
	if app.Config.ImageProvider == "openai" {
		client, err := imagegenopenai.NewClient(os.Getenv("OPENAI_API_KEY"))
		if err != nil {
			return err
		}
		generator = client
	}

	visionClient := vision.Client(vision.PlaceholderClient{})
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		client, err := visionopenai.NewClient(apiKey, app.Config.VisionModel)
		if err != nil {
			return err
		}
		visionClient = client
	}

	runner := pipeline.New(generator, visionClient)
	if app.Config.PipelineMaxAttempts > 0 {
		runner.Config.MaxAttempts = app.Config.PipelineMaxAttempts
	}

	pageSvc := &pages.Service{
		Repo:     pageRepo,
		Usage:    usageSvc,
		Runner:   runner,
		JobQueue: app.Queue,
		Provider: app.Config.ImageProvider,
		Model:    app.Config.ImageModel,
	}

	batchSvc := &batches.Service{
		Repo:  batchRepo,
		Pages: pageSvc,
	}

	referenceSvc := &references.Service{
		Store: app.Store,
		Repo:  referenceRepo,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.PagesRepo = pageRepo
	app.BatchesRepo = batchRepo
	app.ReferencesRepo = referenceRepo
	app.UsersRepo = userRepo
	app.PagesService = pageSvc
	app.BatchesService = batchSvc
	app.ReferencesService = referenceSvc
	app.UsageService = usageSvc
	app.AccountService = account.NewService(pageRepo, batchRepo, referenceRepo)
	app.UsersService = userSvc
	app.PageProcessor = pageSvc
	app.PagesHandler = pages.NewHandler(pageSvc)
	app.BatchesHandler = batches.NewHandler(batchSvc)
	app.ReferencesHandler = references.NewHandler(referenceSvc)
	app.AccountHandler = account.NewHandler(app.AccountService)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	if app.PagesHandler == nil || app.BatchesHandler == nil || app.UsageHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
