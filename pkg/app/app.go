// Package app 组装应用：按配置建立存储、服务、定时任务、事件消费与 HTTP 引擎，并负责优雅关闭.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/avatarhub/pkg/api"
	"github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/events"
	"github.com/yeisme/avatarhub/pkg/internal/handle"
	"github.com/yeisme/avatarhub/pkg/internal/jobs"
	"github.com/yeisme/avatarhub/pkg/internal/media"
	"github.com/yeisme/avatarhub/pkg/internal/model"
	"github.com/yeisme/avatarhub/pkg/internal/router"
	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/internal/storage"
	"github.com/yeisme/avatarhub/pkg/log"
	"github.com/yeisme/avatarhub/pkg/metrics"
	"github.com/yeisme/avatarhub/pkg/middleware"
	"github.com/yeisme/avatarhub/pkg/scheduler"
	"github.com/yeisme/avatarhub/pkg/tracing"
)

// identityHeaders 参与响应缓存键的身份头，保证 voted 字段按调用者区分.
var identityHeaders = []string{"X-User", "X-Auth-Request-Email", "X-Forwarded-Email", "X-Role"}

// App 持有进程级资源.
type App struct {
	Engine *gin.Engine

	config   *configs.AppConfig
	storage  *storage.Manager
	services *service.Services
	sched    *scheduler.Scheduler
	consumer *events.Consumer
	server   *http.Server

	shutdownOnce sync.Once
	shutdownErr  error
}

// New 按配置初始化全部组件. 任一步骤失败时释放已建立的资源.
func New(ctx context.Context, cfg *configs.AppConfig) (*App, error) {
	log.Init(cfg)
	l := log.Logger()

	if err := tracing.InitTracer(ctx, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	mgr, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, storage: mgr}

	if err := a.init(ctx); err != nil {
		_ = a.Shutdown(ctx)
		return nil, err
	}

	l.Info().
		Str("version", configs.AppVersion).
		Bool("jobs", a.sched != nil).
		Bool("consumer", a.consumer != nil).
		Bool("gallery_cache", cfg.Gallery.CacheEnabled).
		Msg("application initialized")

	return a, nil
}

// NewApp 从配置路径加载配置后创建应用.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	return New(ctx, configs.GetConfig())
}

func (a *App) init(ctx context.Context) error {
	cfg := a.config

	if cfg.DB.AutoMigrate {
		if err := a.storage.DB.Migrate(ctx, model.Models()...); err != nil {
			return err
		}
	}

	store, err := media.New(cfg.Media, a.storage.S3)
	if err != nil {
		return fmt.Errorf("init media store: %w", err)
	}

	appCache := cache.NewCache(a.storage.KV)

	opts := service.OptionsFromConfig(cfg)
	opts.DB = a.storage.DB
	opts.Media = store
	opts.Cache = appCache

	if cfg.Events.Enabled {
		opts.Publisher = a.storage.MQ.Publisher()
	}

	a.services = service.New(opts)

	if cfg.Jobs.Enabled {
		if a.sched, err = scheduler.NewScheduler(); err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(a.sched, a.services.Maintenance, cfg.Jobs); err != nil {
			return fmt.Errorf("register jobs: %w", err)
		}
	}

	if cfg.Events.Enabled && cfg.Events.Consume {
		a.consumer = events.NewConsumer(a.storage.MQ, nil)
	}

	a.Engine = a.newEngine(appCache)
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: cfg.Server.GetTimeoutDuration(),
	}

	return nil
}

func (a *App) newEngine(appCache *cache.Cache) *gin.Engine {
	cfg := a.config

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(cfg.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.AuthMiddleware(cfg.Auth),
		middleware.RoleMiddleware(),
		middleware.CircuitBreakerMiddleware("http", cfg.CircuitBreaker),
	)

	metrics.RegisterRoutes(cfg.Metrics, engine)

	h := handle.New(handle.Options{
		Services:       a.services,
		Scheduler:      a.sched,
		Storage:        a.storage,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})

	mw := router.Middlewares{
		WriteLimit: middleware.RateLimitMiddleware(cfg.RateLimit),
		VoteLimit:  middleware.RateLimitMiddleware(cfg.RateLimit.ForVotes()),
	}
	if cfg.Gallery.CacheEnabled {
		mw.ReadCache = a.readCache(appCache)
	}

	return api.RegisterGroup(engine, cfg.Server, h, mw)
}

// readCache 单条目读取的响应缓存，键中带画廊代号，任一写操作后自动失效.
func (a *App) readCache(appCache *cache.Cache) gin.HandlerFunc {
	gallery := a.services.Gallery

	rc := middleware.DefaultCacheConfig(appCache)
	rc.TTL = a.config.Gallery.CacheTTL
	rc.VaryHeaders = identityHeaders
	rc.Skipper = func(c *gin.Context) bool {
		_, ok := gallery.CacheGeneration(c.Request.Context())
		return !ok
	}
	rc.Generation = func(c *gin.Context) string {
		gen, _ := gallery.CacheGeneration(c.Request.Context())
		return gen
	}

	return middleware.CacheMiddleware(rc)
}

// Services 返回已装配的服务集合.
func (a *App) Services() *service.Services {
	return a.services
}

// Run 启动定时任务、事件消费与 HTTP 服务，阻塞到 ctx 结束或任一组件失败，随后优雅关闭.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	g, gctx := errgroup.WithContext(ctx)

	if a.sched != nil {
		a.sched.Start()
	}

	if a.consumer != nil {
		g.Go(func() error { return a.consumer.Run(gctx) })
	}

	g.Go(func() error {
		l.Info().Str("addr", a.server.Addr).Msg("http server listening")

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.Server.GetTimeoutDuration())
		defer cancel()

		return a.Shutdown(sctx)
	})

	return g.Wait()
}

// Shutdown 依次关闭 HTTP 服务、定时任务、追踪与存储连接，可重复调用.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		l := log.Logger()
		l.Info().Msg("shutting down")

		var errs []error

		if a.server != nil {
			errs = append(errs, a.server.Shutdown(ctx))
		}

		if a.sched != nil {
			errs = append(errs, a.sched.Shutdown())
		}

		errs = append(errs, tracing.ShutdownTracer(ctx))

		if a.storage != nil {
			errs = append(errs, a.storage.Close())
		}

		a.shutdownErr = errors.Join(errs...)
		if a.shutdownErr != nil {
			l.Error().Err(a.shutdownErr).Msg("shutdown finished with errors")
		}
	})

	return a.shutdownErr
}
