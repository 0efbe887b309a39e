package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chatapp/internal/config"
	"chatapp/internal/mail"
	"chatapp/internal/queue"
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

	q, err := queue.Connect(cfg.NATSURL)
	if err != nil {
		log.Error("nats connect failed", "url", cfg.NATSURL, "err", err)
		os.Exit(1)
	}
	defer q.Close()

	sender := mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	consumer := mail.NewConsumer(q, sender, log)

	if err := consumer.Start(); err != nil {
		log.Error("consumer start failed", "err", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("mail worker shutting down")
	consumer.Stop()
}
