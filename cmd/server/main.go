package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/nk2109/pantry/internal/adapter/handler"
	"github.com/nk2109/pantry/internal/adapter/storage"
	"github.com/nk2109/pantry/internal/core/service"
)

const (
	defaultHTTPAddr   = ":8080"
	defaultSQLitePath = "pantry.db"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite is the default single-user store; a MySQL DSN switches drivers.
	driver, dsn := "sqlite", envOr("PANTRY_SQLITE_PATH", defaultSQLitePath)
	if mysqlDSN := os.Getenv("PANTRY_MYSQL_DSN"); mysqlDSN != "" {
		driver, dsn = "mysql", mysqlDSN
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", driver, err)
	}
	defer db.Close()

	if driver == "mysql" {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping %s store: %v", driver, err)
	}
	log.Printf("connected to %s store (%s)", driver, dsn)

	store, err := storage.NewSQLStore(ctx, db)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}

	opts := []service.Option{}
	var rdb *redis.Client
	if redisAddr := os.Getenv("PANTRY_REDIS_ADDR"); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		log.Println("connected to redis")
		opts = append(opts, service.WithNotifier(storage.NewRedisNotifier(rdb)))
	}

	pantry := service.NewPantryService(store, opts...)

	mux := http.NewServeMux()
	handler.NewHTTPHandler(pantry).Register(mux)

	httpServer := &http.Server{
		Addr:    envOr("PANTRY_HTTP_ADDR", defaultHTTPAddr),
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	if rdb != nil {
		rdb.Close()
	}
	log.Println("connections closed")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
