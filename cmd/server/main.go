package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chatapp/internal/config"
	"chatapp/internal/domain"
	"chatapp/internal/httpserver"
	"chatapp/internal/queue"
	"chatapp/internal/security"
	"chatapp/internal/store/postgres"
	"chatapp/internal/store/sqlite"
	"chatapp/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	db, users, chats, messages, err := openStore(cfg)
	if err != nil {
		log.Error("store init failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Error("redis ping failed", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	q, err := queue.Connect(cfg.NATSURL)
	if err != nil {
		log.Error("nats connect failed", "url", cfg.NATSURL, "err", err)
		os.Exit(1)
	}
	defer q.Close()

	tokens := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	otps := security.NewOTPStore(rdb,
		time.Duration(cfg.OTPTTLSeconds)*time.Second,
		time.Duration(cfg.OTPRateSeconds)*time.Second)

	hub := ws.NewHub(log)

	router := httpserver.NewRouter(httpserver.Deps{
		Cfg:      cfg,
		Users:    users,
		Chats:    chats,
		Messages: messages,
		Hub:      hub,
		Tokens:   tokens,
		OTPs:     otps,
		Mail:     q,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr(), "env", cfg.Env, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}

// openStore opens the configured database backend and returns the repository
// set bound to it.
func openStore(cfg *config.Config) (*sql.DB, domain.UserRepository, domain.ChatRepository, domain.MessageRepository, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		return db, postgres.NewUserRepo(db), postgres.NewChatRepo(db), postgres.NewMessageRepo(db), nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		return db, sqlite.NewUserRepo(db), sqlite.NewChatRepo(db), sqlite.NewMessageRepo(db), nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}
