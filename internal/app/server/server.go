package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavehub/internal/domain/audit"
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/calendar"
	"leavehub/internal/domain/employee"
	"leavehub/internal/domain/leave"
	"leavehub/internal/domain/notifications"
	"leavehub/internal/domain/reports"
	"leavehub/internal/platform/config"
	"leavehub/internal/platform/db"
	"leavehub/internal/platform/email"
	"leavehub/internal/platform/jobs"
	"leavehub/internal/platform/metrics"
	adminhandler "leavehub/internal/transport/http/handlers/admin"
	audithandler "leavehub/internal/transport/http/handlers/audit"
	authhandler "leavehub/internal/transport/http/handlers/auth"
	calendarhandler "leavehub/internal/transport/http/handlers/calendar"
	employeehandler "leavehub/internal/transport/http/handlers/employee"
	leavehandler "leavehub/internal/transport/http/handlers/leave"
	notificationshandler "leavehub/internal/transport/http/handlers/notifications"
	reportshandler "leavehub/internal/transport/http/handlers/reports"
	"leavehub/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

// New wires every service and route; it does not touch the network, so tests
// can drive App.Router directly.
func New(cfg config.Config, pool *pgxpool.Pool) *App {
	authStore := auth.NewStore(pool)
	auditSvc := audit.New(pool)
	employeeStore := employee.NewStore(pool)
	calendarSvc := calendar.NewService(calendar.NewStore(pool))
	leaveSvc := leave.NewService(leave.NewStore(pool), employeeStore, calendarSvc)
	notifySvc := notifications.New(pool, email.New(cfg), cfg.EmailFrom)
	reportsStore := reports.NewStore(pool)
	jobsSvc := jobs.New(pool, cfg, leaveSvc)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authStore, auditSvc, cfg)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/auth/me", authHandler.HandleMe)

		employeehandler.NewHandler(employeeStore, authStore, auditSvc).RegisterRoutes(r)
		calendarhandler.NewHandler(calendarSvc, authStore, auditSvc).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, authStore, notifySvc, auditSvc, jobsSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsStore, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
		adminhandler.NewHandler(jobsSvc, collector, authStore).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:  cfg,
		DB:      pool,
		Jobs:    jobsSvc,
		Metrics: collector,
		Router:  router,
	}
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	app := New(cfg, pool)
	app.Jobs.Start(ctx)

	slog.Info("server listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
