package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safescanx/safescanx/internal/application"
	appai "github.com/safescanx/safescanx/internal/application/ai"
	appscans "github.com/safescanx/safescanx/internal/application/scans"
	"github.com/safescanx/safescanx/internal/config"
	domain "github.com/safescanx/safescanx/internal/domain/scans"
	openaiClient "github.com/safescanx/safescanx/internal/infra/ai/openai"
	mongodb "github.com/safescanx/safescanx/internal/infra/db/mongo"
	mysqldb "github.com/safescanx/safescanx/internal/infra/db/mysql"
	postgresdb "github.com/safescanx/safescanx/internal/infra/db/postgres"
	"github.com/safescanx/safescanx/internal/infra/httpserver"
	"github.com/safescanx/safescanx/internal/infra/provider/virustotal"
	minioStore "github.com/safescanx/safescanx/internal/infra/storage"
	"github.com/safescanx/safescanx/internal/middleware"
	"github.com/safescanx/safescanx/internal/retry"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.Provider.APIKey == "" {
		log.Fatal("provider API key is required (set API_KEY)")
	}

	ctx := context.Background()

	// result store, backend dipilih lewat config
	checkers := map[string]middleware.HealthChecker{}
	var repo domain.Repository
	switch cfg.Database.Driver {
	case "mongo":
		cli, err := mongodb.Connect(ctx, cfg.Database.URI)
		if err != nil {
			log.Fatalf("mongo connect error: %v", err)
		}
		defer cli.Disconnect(context.Background())
		repo = mongodb.NewScanRepository(cli, cfg.Database.Name)
		checkers["database"] = middleware.CheckerFunc(func(ctx context.Context) error {
			return cli.Ping(ctx, nil)
		})
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		repo = mysqldb.NewScanRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		repo = postgresdb.NewScanRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		log.Fatalf("unknown database driver: %q", cfg.Database.Driver)
	}

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}
	checkers["storage"] = middleware.CheckerFunc(store.Ping)

	// init provider client
	provider := virustotal.NewClient(
		cfg.Provider.APIKey,
		cfg.Provider.BaseURL,
		time.Duration(cfg.Provider.TimeoutSeconds)*time.Second,
	)

	// init workflow service
	svc := &appscans.Service{
		Repo:     repo,
		Blobs:    store,
		Provider: provider,
		Retry: retry.Policy{
			Attempts:  cfg.Provider.MaxAttempts,
			BaseDelay: time.Duration(cfg.Provider.RetryBaseMS) * time.Millisecond,
		},
		Clock: application.SystemClock{},
	}

	// AI summary is optional, only when a key is configured
	var aiSvc *appai.Service
	if cfg.OpenAI.APIKey != "" {
		aiSvc = appai.NewService(openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}

	handler := httpserver.NewRouter(svc, aiSvc, httpserver.Options{
		StaticDir: cfg.Server.StaticDir,
		AppConfig: cfg.App,
		Checkers:  checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second, // file uploads up to 32 MiB
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
