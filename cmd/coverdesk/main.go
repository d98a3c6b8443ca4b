package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/coverdesk/coverdesk/pkg/access"
	"github.com/coverdesk/coverdesk/pkg/api"
	"github.com/coverdesk/coverdesk/pkg/audit"
	"github.com/coverdesk/coverdesk/pkg/config"
	"github.com/coverdesk/coverdesk/pkg/guard"
	"github.com/coverdesk/coverdesk/pkg/identity"
	"github.com/coverdesk/coverdesk/pkg/observability"
	"github.com/coverdesk/coverdesk/pkg/rank"
	"github.com/coverdesk/coverdesk/pkg/session"
)

// auditTrailLimit bounds the in-memory audit ring served by the API.
const auditTrailLimit = 10000

func main() {
	// Parse command line flags (flags win over environment variables)
	port := flag.String("port", "", "Port to listen on (overrides COVERDESK_PORT)")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database path (overrides COVERDESK_SQLITE_PATH)")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *sqlitePath != "" {
		cfg.Directory.SQLitePath = *sqlitePath
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx := context.Background()

	// Initialize the user directory
	db, err := sql.Open("sqlite3", cfg.Directory.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open directory database: %v", err)
	}
	defer db.Close()

	directory := session.NewDirectory(db, session.SystemClock{})
	if err := directory.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate directory schema: %v", err)
	}
	if cfg.Directory.Seed {
		if err := directory.Seed(ctx, session.DefaultSeedAccounts()); err != nil {
			log.Fatalf("Failed to seed directory: %v", err)
		}
	}
	log.Printf("Directory initialized at %s", cfg.Directory.SQLitePath)

	// Initialize session storage
	var (
		storage     session.Storage
		redisClient *redis.Client
	)
	switch cfg.Session.Storage {
	case config.StorageRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisURL,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.Session.RedisURL, err)
		}
		storage = session.NewRedisStorage(redisClient, "coverdesk", cfg.Session.TTL)
		log.Printf("Session storage: redis at %s", cfg.Session.RedisURL)
	default:
		storage = session.NewMemoryStorage()
		log.Printf("Session storage: in-process memory")
	}

	registry := rank.NewRegistry()
	store := session.NewStore(storage, session.SystemClock{}, directory, registry, logger, session.Config{
		TTL:              cfg.Session.TTL,
		RefreshThreshold: cfg.Session.RefreshThreshold,
	})

	var metrics *access.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = access.NewMetrics(prometheus.DefaultRegisterer)
		store.SetMetrics(session.NewMetrics(prometheus.DefaultRegisterer))
	}
	evaluator := access.NewEvaluator(registry, cfg.Access.CacheTTL, metrics)

	auditLog := audit.NewLogEmitter(audit.NewMemoryLogger(auditTrailLimit), logger)

	server := api.NewServer(store, directory, evaluator, registry, auditLog, logger)
	registerPages(server, store)

	// Background session keepalive
	if cfg.Session.KeepaliveInterval > 0 {
		keepalive := session.NewKeepalive(store, cfg.Session.KeepaliveInterval, logger)
		if err := keepalive.Start(ctx); err != nil {
			log.Fatalf("Failed to start session keepalive: %v", err)
		}
		defer keepalive.Stop()
		log.Printf("Session keepalive every %s", cfg.Session.KeepaliveInterval)
	}

	// Health and metrics server on a separate port
	healthChecker := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthChecker.Liveness)
	healthMux.HandleFunc("/readyz", healthChecker.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", promhttp.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}
	go func() {
		log.Printf("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Health server failed: %v", err)
		}
	}()

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		log.Printf("Starting CoverDesk access control server on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server shutdown: %v", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server shutdown: %v", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Redis close: %v", err)
		}
	}
	log.Println("Shutdown complete")
}

// registerPages mounts the guarded page routes next to the JSON API. The
// pages themselves are placeholders; the guard in front of them is the point.
func registerPages(server *api.Server, store *session.Store) {
	router := server.Router()

	// The guard gates on the effective role, so an administrator
	// simulating the external view is routed like an external user.
	g := guard.NewGuard(store, func(*session.Session) identity.Role {
		return server.Simulator().Mode().Role
	})

	internalOnly := g.Middleware(guard.Options{
		RequiredRoles: []identity.Role{identity.RoleAdmin, identity.RoleInternal},
	})
	externalOnly := g.Middleware(guard.Options{
		RequiredRoles: []identity.Role{identity.RoleExternal},
	})

	router.HandleFunc(guard.RouteLogin, page("login")).Methods("GET")
	router.HandleFunc(guard.RouteExternalLogin, page("external login")).Methods("GET")
	router.Handle("/dashboard", internalOnly(http.HandlerFunc(page("dashboard")))).Methods("GET")
	router.Handle("/dashboard/external/profile", externalOnly(http.HandlerFunc(page("external profile")))).Methods("GET")
}

func page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(name + "\n"))
	}
}
