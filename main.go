package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docuforge/docuforge/handlers"
	"github.com/docuforge/docuforge/internal/config"
	"github.com/docuforge/docuforge/internal/database"
	"github.com/docuforge/docuforge/internal/doctemplate"
	tplhandler "github.com/docuforge/docuforge/internal/doctemplate/handler"
	tplrepo "github.com/docuforge/docuforge/internal/doctemplate/repository"
	tplservice "github.com/docuforge/docuforge/internal/doctemplate/service"
	dochandler "github.com/docuforge/docuforge/internal/document/handler"
	docrepo "github.com/docuforge/docuforge/internal/document/repository"
	docservice "github.com/docuforge/docuforge/internal/document/service"
	"github.com/docuforge/docuforge/internal/oidc"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/docuforge/docuforge/internal/sessions"
	"github.com/docuforge/docuforge/internal/storage"
	"github.com/docuforge/docuforge/internal/tokens"
	"github.com/docuforge/docuforge/internal/users"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/docuforge/docuforge/pkg/metrics"
	"github.com/docuforge/docuforge/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// backends holds the repositories chosen by configuration plus the probes
// used by /ready.
type backends struct {
	templates tplrepo.Repository
	documents docrepo.Repository
	users     users.Repository
	sessions  sessions.Repository
	redis     *redis.Client
	objects   *storage.MinIOStorage
	checks    map[string]func(context.Context) error
	closers   []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{checks: map[string]func(context.Context) error{}}
	fail := func(err error) (*backends, error) {
		b.Close()
		return nil, err
	}

	var mongoDB *mongo.Database
	if cfg.Store.Backend == config.BackendMongo || cfg.Store.Sessions == "mongo" {
		m, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Timeout)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, m.Close)
		b.checks["mongo"] = m.Ping
		mongoDB = m.DB
	}

	switch cfg.Store.Backend {
	case config.BackendMongo:
		var err error
		if b.templates, err = tplrepo.NewMongoRepo(ctx, mongoDB.Collection("templates")); err != nil {
			return fail(err)
		}
		if b.documents, err = docrepo.NewMongoRepo(ctx, mongoDB.Collection("documents")); err != nil {
			return fail(err)
		}
		if b.users, err = users.NewMongoRepository(ctx, mongoDB.Collection("users")); err != nil {
			return fail(err)
		}
	case config.BackendPostgres:
		db, err := database.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return fail(err)
		}
		b.checks["postgres"] = func(ctx context.Context) error { return database.PingPostgres(ctx, db) }
		if b.templates, err = tplrepo.NewGormRepo(db); err != nil {
			return fail(err)
		}
		if b.documents, err = docrepo.NewGormRepo(db); err != nil {
			return fail(err)
		}
		if b.users, err = users.NewGormRepository(db); err != nil {
			return fail(err)
		}
	default:
		b.templates = tplrepo.NewMemoryRepo()
		b.documents = docrepo.NewMemoryRepo()
		b.users = users.NewMemoryRepository()
	}

	if cfg.Redis.Enabled() {
		b.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
		if err := b.redis.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		}
		b.checks["redis"] = func(ctx context.Context) error { return b.redis.Ping(ctx).Err() }
	}

	switch cfg.Store.Sessions {
	case "redis":
		b.sessions = sessions.NewRedisRepository(b.redis, "session:")
	case "mongo":
		repo, err := sessions.NewMongoRepository(ctx, mongoDB.Collection("sessions"))
		if err != nil {
			return fail(err)
		}
		b.sessions = repo
	default:
		b.sessions = sessions.NewMemoryRepository()
	}

	if cfg.MinIO.Enabled() {
		objects, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("document export disabled: %v", err)
		} else {
			b.objects = objects
			b.checks["minio"] = objects.Ping
		}
	}
	logger.Infof("backends ready: store=%s sessions=%s export=%v", cfg.Store.Backend, cfg.Store.Sessions, b.objects != nil)
	return b, nil
}

// cors allows the configured origins; "*" allows any.
func cors(origins []string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowed["*"]:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// logAuthEvents is the process-wide auth state listener.
func logAuthEvents(e sessions.Event) {
	metrics.AuthEvents.WithLabelValues(string(e.Type)).Inc()
	logger.Infof("auth event %s user=%s", e.Type, e.Session.UserID)
}

func newRouter(ctx context.Context, cfg *config.Config, b *backends) (*gin.Engine, error) {
	specs, err := doctemplate.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}
	registry := tplservice.NewRegistry(b.templates, render.New(render.WithEscape(cfg.Render.EscapeHTML)))
	if err := registry.Seed(ctx, specs); err != nil {
		return nil, err
	}

	var docOpts []docservice.Option
	if b.objects != nil {
		docOpts = append(docOpts, docservice.WithObjectStore(b.objects))
	}
	docs := docservice.New(b.documents, registry, docOpts...)

	hub := sessions.NewHub()
	hub.Subscribe(logAuthEvents)
	sessSvc := sessions.NewService(b.sessions, hub)
	userSvc := users.NewService(b.users)
	userSvc.OnDelete(func(ctx context.Context, id string) error {
		n, err := docs.DeleteAll(ctx, id)
		if err == nil {
			logger.Infof("deleted %d documents of user %s", n, id)
		}
		return err
	})
	userSvc.OnDelete(sessSvc.SignOutUser)

	issuer := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	verifier := middleware.ChainVerifier{issuer}
	if iss := cfg.Keycloak.Issuer(); iss != "" && cfg.Keycloak.ClientID != "" {
		ov, err := oidc.NewVerifier(ctx, iss, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = append(verifier, ov)
			logger.Infof("accepting OIDC tokens from %s", iss)
		}
	}
	blacklist := sessions.NewBlacklist(b.redis)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors(cfg.Server.CORSOrigins))
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis {
			r.Use(middleware.RedisRateLimitMiddleware(b.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		ready := true
		deps := map[string]bool{}
		for name, check := range b.checks {
			err := check(ctx)
			deps[name] = err == nil
			if err != nil {
				logger.Warnf("readiness: %s: %v", name, err)
				ready = false
			}
		}
		uptime := time.Since(startTime).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	auth := handlers.NewAuthHandler(userSvc, sessSvc, issuer, blacklist, cfg.JWT.RefreshTokenTTL)
	auth.Register(r)

	protected := r.Group("", middleware.AuthMiddleware(verifier, blacklist))
	auth.RegisterAccount(protected)
	tplhandler.RegisterTemplateRoutes(protected, registry)
	dochandler.RegisterDocumentRoutes(protected, docs)
	return r, nil
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	logger.Infof("config loaded: store=%s sessions=%s keycloak=%v redis=%v minio=%v",
		cfg.Store.Backend, cfg.Store.Sessions, cfg.Keycloak.Issuer() != "", cfg.Redis.Enabled(), cfg.MinIO.Enabled())
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open backends: %v", err)
	}
	defer b.Close()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r, err := newRouter(ctx, cfg, b)
	if err != nil {
		logger.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting docuforge on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
