package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/logging"
	"storefront/internal/notify"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.RabbitURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	var mailer notify.Mailer = notify.LogMailer{Logger: logger}
	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, "Storefront", logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, emails will only be logged")
	}
	notifier := notify.New(mailer, cfg.StaffEmail, logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("connect to rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("open channel", zap.Error(err))
	}
	if err := events.DeclareQueue(ch, cfg.RabbitQueue); err != nil {
		logger.Fatal("declare queue", zap.Error(err))
	}
	ch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 1; i <= cfg.NotifierWorkers; i++ {
		w, err := events.NewWorker(i, conn, cfg.RabbitQueue, notifier.OrderPlaced, logger)
		if err != nil {
			logger.Fatal("create worker", zap.Int("worker", i), zap.Error(err))
		}
		wg.Add(1)
		go w.Start(ctx, &wg)
	}
	logger.Info("notifier running", zap.Int("workers", cfg.NotifierWorkers), zap.String("queue", cfg.RabbitQueue))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	wg.Wait()
	logger.Info("notifier stopped")
}
