package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/autopromote/internal/analytics"
	"github.com/ignite/autopromote/internal/api"
	"github.com/ignite/autopromote/internal/config"
	"github.com/ignite/autopromote/internal/optimization"
	"github.com/ignite/autopromote/internal/repository/postgres"
	"github.com/ignite/autopromote/internal/service/abtest"
	"github.com/ignite/autopromote/internal/service/promotion"
	"github.com/ignite/autopromote/internal/storage"
	"github.com/ignite/autopromote/internal/worker"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("Starting AutoPromote API server...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Redis-backed metrics history (optional).
	var redisClient *redis.Client
	var history *analytics.HistoryStore
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		history = analytics.NewHistoryStore(redisClient)
		log.Printf("Metrics history store enabled (redis %s)", cfg.Redis.Addr)
	}

	// S3 media storage (optional).
	var media storage.MediaStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3MediaStore(context.Background(),
			cfg.Storage.S3Bucket, cfg.Storage.AWSRegion,
			cfg.Storage.GetAWSProfile(), cfg.Storage.URLPrefix)
		if err != nil {
			log.Fatalf("Failed to initialize media storage: %v", err)
		}
		media = s3Store
		log.Printf("Media storage enabled (bucket %s)", cfg.Storage.S3Bucket)
	}

	contentRepo := postgres.NewContentRepo(db)
	scheduleRepo := postgres.NewScheduleRepo(db)
	testRepo := postgres.NewABTestRepo(db)

	model := optimization.NewModel()

	// A typed nil *HistoryStore must not become a non-nil interface.
	var historyProvider promotion.HistoryProvider
	var historyStore api.HistoryStore
	if history != nil {
		historyProvider = history
		historyStore = history
	}

	promotions := promotion.NewService(contentRepo, scheduleRepo, model, historyProvider)
	tests := abtest.NewService(testRepo, contentRepo, promotions)

	handlers := api.NewHandlers(promotions, tests, model, contentRepo, historyStore, media)
	server := api.NewServer(cfg.Server, handlers)

	// In-process sweeper; cmd/worker runs the same loop standalone. The
	// distributed lock keeps the two from double-processing.
	var sweeper *worker.PromotionSweeper
	if cfg.Worker.Enabled {
		sweeper = worker.NewPromotionSweeper(promotions, cfg.Worker.SweepInterval())
		sweeper.SetDB(db)
		if redisClient != nil {
			sweeper.SetRedisClient(redisClient)
		}
		if err := sweeper.Start(); err != nil {
			log.Fatalf("Failed to start promotion sweeper: %v", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
	go func() {
		log.Printf("Listening on http://%s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
	log.Println("Shutting down...")

	if sweeper != nil {
		sweeper.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
