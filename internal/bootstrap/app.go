package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"coverletter-backend/coverletter/render"
	"coverletter-backend/internal/account"
	googleauth "coverletter-backend/internal/auth"
	"coverletter-backend/internal/exports"
	"coverletter-backend/internal/generation"
	"coverletter-backend/internal/letters"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/llm/gemini"
	"coverletter-backend/internal/llm/openai"
	"coverletter-backend/internal/notify"
	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/services/health"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/server"
	"coverletter-backend/internal/shared/storage/cache"
	"coverletter-backend/internal/shared/storage/db"
	"coverletter-backend/internal/shared/storage/object"
	localstore "coverletter-backend/internal/shared/storage/object/local"
	s3store "coverletter-backend/internal/shared/storage/object/s3"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/usage"
	"coverletter-backend/internal/users"
)

const (
	redisCachePrefix   = "coverletter:cache:"
	defaultOpenAIModel = "gpt-4o-mini"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *goredis.Client
	Store  object.ObjectStore
	Queue  queue.Client
	Engine *render.BrowserEngine

	UsersService      *users.Service
	LettersService    *letters.Service
	ExportsService    *exports.Service
	GenerationService *generation.Service
	UsageService      *usage.Service
	AccountService    *account.Service
	Health            *health.Service
}

// Build wires repositories, services and handlers for an API process.
func Build(cfg config.Config) (*App, error) {
	return build(cfg, db.RuntimeProfile(db.ProfileServer))
}

// BuildWorker is Build with a pool sized for a queue consumer.
func BuildWorker(cfg config.Config) (*App, error) {
	return build(cfg, db.RuntimeProfile(db.ProfileWorker))
}

func build(cfg config.Config, profile db.Profile) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, profile)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}
	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Redis:  buildRedis(ctx, cfg),
		Store:  store,
		Queue:  queueClient,
	}
	if cfg.RenderPrimary == "browser" {
		app.Engine = render.NewBrowserEngine(render.BrowserConfig{
			ControlURL: cfg.ChromeControlURL,
			Bin:        cfg.ChromeBin,
			Timeout:    cfg.RenderTimeout,
		})
	}

	app.buildServices(llmClient)
	googleAuth := googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:      cfg.GoogleClientID,
		ClientSecret:  cfg.GoogleClientSecret,
		RedirectURL:   cfg.GoogleRedirectURL,
		UIRedirectURL: cfg.UIRedirectURL,
	}, app.UsersService, app.AccountService)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Health:            app.Health,
		GoogleAuth:        googleAuth,
		UserHandler:       users.NewHandler(app.UsersService),
		LetterHandler:     letters.NewHandler(app.LettersService),
		ExportHandler:     exports.NewHandler(app.ExportsService),
		GenerationHandler: generation.NewHandler(app.GenerationService),
		UsageHandler:      usage.NewHandler(app.UsageService),
		AccountHandler:    account.NewHandler(app.AccountService),
	})
	return app, nil
}

// Close releases the browser and Redis connections.
func (a *App) Close() error {
	var firstErr error
	if a.Engine != nil {
		if err := a.Engine.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) buildServices(llmClient llm.Client) {
	var (
		userRepo   users.Repo
		letterRepo letters.Repo
		exportRepo exports.Repo
	)
	if a.DB != nil {
		userRepo = &users.PGRepo{DB: a.DB}
		letterRepo = &letters.PGRepo{DB: a.DB}
		exportRepo = &exports.PGRepo{DB: a.DB}
		a.UsageService = usage.NewPostgresService(a.DB, usage.DefaultPolicy(a.Config.GenerationMonthlyLimit))
	} else {
		userRepo = users.NewMemoryRepo()
		letterRepo = letters.NewMemoryRepo()
		exportRepo = exports.NewMemoryRepo()
		a.UsageService = usage.NewService(usage.DefaultPolicy(a.Config.GenerationMonthlyLimit))
	}

	var (
		notifier    render.Notifier = notify.Log{}
		resultCache cache.Cache     = cache.NewMemory()
	)
	if a.Redis != nil {
		notifier = notify.Fanout{notify.Log{}, notify.NewRedis(a.Redis, a.Config.RedisNotifyChannel)}
		resultCache = cache.NewRedis(a.Redis, redisCachePrefix)
	}

	var primary render.PrimaryStrategy
	primary.Geometry = render.LetterGeometry
	if a.Engine != nil {
		primary.Engine = a.Engine
	}
	renderer := render.NewRenderer(primary, render.FallbackStrategy{Geometry: render.LetterGeometry}, notifier)

	a.UsersService = users.NewService(userRepo)
	a.LettersService = letters.NewService(letterRepo, a.UsersService, a.Store)
	a.ExportsService = &exports.Service{
		Letters:  a.LettersService,
		Profiles: a.UsersService,
		Repo:     exportRepo,
		Store:    a.Store,
		Renderer: renderer,
		Queue:    a.Queue,
		Geometry: render.LetterGeometry,
	}
	a.GenerationService = &generation.Service{
		LLM:      llmClient,
		Quota:    a.UsageService,
		Cache:    resultCache,
		CacheTTL: a.Config.AnalysisCacheTTL,
		Profiles: a.UsersService,
	}
	a.AccountService = account.NewService(letterRepo, exportRepo, a.UsageService)

	a.Health = health.NewService()
	a.Health.Add("database", db.Check(a.DB))
	if a.Redis != nil {
		a.Health.Add("redis", func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() })
	}
}

func buildDB(ctx context.Context, cfg config.Config, profile db.Profile) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, db.ErrNoURL
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, profile)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	telemetry.Info("bootstrap.database", map[string]any{"profile": string(profile)})
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ExportQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.ExportQueueURL, cfg.AWSRegion)
}

// buildRedis returns nil when Redis is not configured or unreachable; callers
// then use the in-memory cache and log-only notifications.
func buildRedis(ctx context.Context, cfg config.Config) *goredis.Client {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{
			"addr":  cfg.RedisAddr,
			"error": err.Error(),
		})
		return nil
	}
	return rdb
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": "openai", "reason": "OPENAI_API_KEY empty"})
			return llm.PlaceholderClient{}, nil
		}
		model := cfg.LLMModel
		if strings.TrimSpace(model) == "" {
			model = defaultOpenAIModel
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, model, 60*time.Second)
		if err != nil {
			return nil, err
		}
		return llm.WithRetry(client), nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": "gemini", "reason": "GEMINI_API_KEY empty"})
			return llm.PlaceholderClient{}, nil
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return llm.WithRetry(client), nil
	default:
		return llm.PlaceholderClient{}, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
