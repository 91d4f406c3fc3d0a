package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/Lurelab/internal/api"
	"github.com/soaringjerry/Lurelab/internal/config"
	"github.com/soaringjerry/Lurelab/internal/db"
	"github.com/soaringjerry/Lurelab/internal/logger"
	"github.com/soaringjerry/Lurelab/internal/middleware"
	"github.com/soaringjerry/Lurelab/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("create sqlite dir", "err", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(cfg.SQLitePath))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Fatal("open sqlite", "err", err)
	}
	defer func() {
		if cerr := sqliteDB.Close(); cerr != nil {
			log.Warn("close sqlite", "err", cerr)
		}
	}()

	if err := db.RunMigrations(sqliteDB); err != nil {
		log.Fatal("run migrations", "err", err)
	}
	store, err := db.NewSQLiteStore(sqliteDB)
	if err != nil {
		log.Fatal("init store", "err", err)
	}
	if n, err := store.Seed(); err != nil {
		log.Fatal("seed scenarios", "err", err)
	} else if n > 0 {
		log.Info("seeded scenario catalog", "scenarios", n)
	}

	tokens := services.NewTokenCodec(cfg.SecretKey)
	resolver := services.NewIdentityResolver(store, tokens)
	progress := services.NewProgressService(store)
	auth := services.NewAuthService(store, tokens)

	mux := http.NewServeMux()
	api.NewRouter(cfg, log, progress, auth).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"name":"Lurelab API"}`))
	})

	handler := middleware.SecureHeaders(
		middleware.NoStore(
			middleware.WithIdentity(resolver, cfg, log)(mux),
		),
	)

	log.Info("server listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal("server error", "err", err)
	}
}
