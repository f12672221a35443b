// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/config"
	"github.com/cohesion-education/api/internal/handler"
	"github.com/cohesion-education/api/internal/handler/api"
	"github.com/cohesion-education/api/internal/homepage"
	"github.com/cohesion-education/api/internal/logging"
	"github.com/cohesion-education/api/internal/middleware"
	"github.com/cohesion-education/api/internal/render"
	"github.com/cohesion-education/api/internal/scheduler"
	"github.com/cohesion-education/api/internal/seo"
	"github.com/cohesion-education/api/internal/service"
	"github.com/cohesion-education/api/internal/session"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/version"
	"github.com/cohesion-education/api/web"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "cohesion - curriculum taxonomy and video library server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_DB_DRIVER       sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_DB_PATH         SQLite database path (default: ./data/cohesion.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_MYSQL_DSN       MySQL DSN when the driver is mysql\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_ENV             development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_UPLOADS_DIR     Video upload directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_API_TOKEN       Bearer token for API writes (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_REDIS_URL       Redis URL for shared caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COHESION_DO_SEED         Seed the starter grade taxonomy (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("cohesion %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	isDev := cfg.IsDevelopment()

	logger := logging.New(os.Stdout, cfg.LogLevel, isDev, nil)
	slog.SetDefault(logger)

	if !cfg.UseMySQL() {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DBSource())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.MigrateDriver(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above also go to the event log table from here on.
	logger = logging.New(os.Stdout, cfg.LogLevel, isDev, db)
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if cfg.DoSeed {
		if err := store.SeedTaxonomy(ctx, db); err != nil {
			return fmt.Errorf("seeding taxonomy: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	sessionManager := session.New(db, cfg.DBDriver, isDev)

	appCache := cache.New(ctx, cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() { _ = appCache.Close() }()

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sessionManager,
		IsDev:          isDev,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	taxonomySvc := service.NewTaxonomyService(db, appCache, service.TaxonomyOptions{
		Concurrency: cfg.FlattenConcurrency,
		MaxDepth:    cfg.FlattenMaxDepth,
		CacheTTL:    cfg.CacheTTLDuration(),
		Logger:      logger,
	})
	videoSvc := service.NewVideoService(db, taxonomySvc, cfg.UploadsDir, cfg.MaxUploadBytes())
	homepageSvc := service.NewHomepageService(db, appCache, cfg.CacheTTLDuration())
	profileSvc := service.NewProfileService(db)

	// Warm the flattened list so the first upload form doesn't pay for it.
	if res, err := taxonomySvc.Refresh(ctx); err != nil {
		slog.Warn("initial taxonomy flatten failed", "error", err)
	} else {
		slog.Info("taxonomy flattened", "options", len(res.Options))
	}

	sched := scheduler.New(logger)
	if err := sched.Add(scheduler.FlattenRefreshJob(taxonomySvc, cfg.FlattenRefresh, logger)); err != nil {
		return fmt.Errorf("scheduling flatten refresh: %w", err)
	}
	if cfg.EventRetentionDays > 0 {
		retention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
		purge := scheduler.EventPurgeJob(store.New(db), retention, scheduler.DefaultEventPurgeSchedule, nil, logger)
		if err := sched.Add(purge); err != nil {
			return fmt.Errorf("scheduling event purge: %w", err)
		}
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	docsHandler, err := api.NewDocsHandler(api.DocsConfig{TemplateFS: web.TemplatesFS(), IsDev: isDev})
	if err != nil {
		return fmt.Errorf("initializing api docs: %w", err)
	}

	r := newRouter(routerDeps{
		cfg:      cfg,
		db:       db,
		sm:       sessionManager,
		lp:       loginProtection,
		auth:     handler.NewAuthHandler(db, renderer, sessionManager, loginProtection),
		taxonomy: handler.NewTaxonomyHandler(taxonomySvc, renderer, sessionManager),
		videos:   handler.NewVideosHandler(videoSvc, taxonomySvc, renderer),
		homepage: handler.NewHomepageHandler(homepageSvc, homepage.NewStore(), renderer),
		events:   handler.NewEventsHandler(db, renderer),
		health:   handler.NewHealthHandler(db, appCache, cfg.UploadsDir, cfg.APIToken),
		api:      api.NewHandler(taxonomySvc, videoSvc, homepageSvc, profileSvc),
		docs:     docsHandler,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Minute, // large video uploads
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

type routerDeps struct {
	cfg      *config.Config
	db       *sql.DB
	sm       *scs.SessionManager
	lp       *middleware.LoginProtection
	auth     *handler.AuthHandler
	taxonomy *handler.TaxonomyHandler
	videos   *handler.VideosHandler
	homepage *handler.HomepageHandler
	events   *handler.EventsHandler
	health   *handler.HealthHandler
	api      *api.Handler
	docs     *api.DocsHandler
}

func newRouter(d routerDeps) chi.Router {
	isDev := d.cfg.IsDevelopment()
	csrf := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(d.cfg.SessionSecret), isDev, d.cfg.ServerPort))

	secCfg := middleware.DefaultSecurityHeadersConfig(isDev)
	secCfg.ExcludePaths = []string{"/uploads/"}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(secCfg))

	// Health checks sit outside the session so they never touch the sessions table.
	r.Get("/health", d.health.Health)
	r.Get("/health/live", d.health.Liveness)
	r.Get("/health/ready", d.health.Readiness)
	r.Get("/robots.txt", seo.RobotsHandler(seo.RobotsConfig{DisallowAll: isDev}))

	r.With(middleware.StaticCache(31536000)).
		Handle("/static/dist/*", http.StripPrefix("/static/dist/", http.FileServer(http.FS(web.StaticFS()))))
	r.With(middleware.StaticCache(604800)).
		Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.cfg.UploadsDir))))

	htmlLimiter := middleware.NewRateLimiter(d.cfg.APIRateLimit, d.cfg.APIRateBurst)
	apiLimiter := middleware.NewRateLimiter(d.cfg.APIRateLimit, d.cfg.APIRateBurst)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(d.sm.LoadAndSave)

		// Public
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))
			r.Use(middleware.OptionalLoadUser(d.sm, d.db))
			r.Use(htmlLimiter.HTMLMiddleware())
			r.Use(csrf)
			r.Get(handler.RouteRoot, d.homepage.Home)
			r.Get(handler.RouteLogin, d.auth.LoginForm)
			r.With(d.lp.Middleware()).Post(handler.RouteLogin, d.auth.Login)
			r.Post(handler.RouteLogout, d.auth.Logout)
		})

		// Editors
		r.Group(func(r chi.Router) {
			r.Use(csrf)
			r.Use(middleware.Auth(d.sm), middleware.LoadUser(d.sm, d.db), middleware.RequireEditor)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(requestTimeout))
				r.Get(handler.RouteTaxonomy, d.taxonomy.Tree)
				r.Post(handler.RouteTaxonomy, d.taxonomy.Create)
				r.Get(handler.RouteTaxonomyAdd, d.taxonomy.OpenForm)
				r.Get(handler.RouteTaxonomyCancel, d.taxonomy.CloseForm)
				r.Get(handler.RouteTaxonomy+handler.RouteParamID, d.taxonomy.Show)
				r.Post(handler.RouteTaxonomy+handler.RouteParamID, d.taxonomy.Rename)
				r.Post(handler.RouteTaxonomy+handler.RouteParamID+handler.RouteSuffixDelete, d.taxonomy.Delete)
			})

			r.Route(handler.RouteAdmin, func(r chi.Router) {
				// Uploads may run longer than the request timeout.
				r.Post(handler.RouteVideos, d.videos.Create)
				r.Post(handler.RouteVideos+handler.RouteParamID, d.videos.Update)
				r.Put(handler.RouteVideos+handler.RouteParamID, d.videos.Update)

				r.Group(func(r chi.Router) {
					r.Use(chimw.Timeout(requestTimeout))
					r.Get(handler.RouteVideos, d.videos.List)
					r.Get(handler.RouteVideos+handler.RouteSuffixNew, d.videos.New)
					r.Get(handler.RouteVideos+handler.RouteParamID, d.videos.Show)
					r.Get(handler.RouteVideos+handler.RouteParamID+handler.RouteSuffixEdit, d.videos.Edit)
					r.Post(handler.RouteVideos+handler.RouteParamID+handler.RouteSuffixDelete, d.videos.Delete)
					r.Get(handler.RouteHomepage, d.homepage.Edit)
					r.Post(handler.RouteHomepage, d.homepage.Save)
					r.Get(handler.RouteEvents, d.events.List)
				})
			})
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(apiLimiter.Middleware())
			r.Use(middleware.OptionalLoadUser(d.sm, d.db))
			r.Use(middleware.SkipCSRFForBearer)
			r.Use(csrf)
			r.Get("/docs", d.docs.ServeDocs)
			r.Mount("/", d.api.Routes(middleware.APIWriteAuth(d.cfg.APIToken)))
		})
	})

	return r
}
