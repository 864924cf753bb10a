package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stripe/stripe-go/v81"

	"github.com/hadevx/backend/handlers"
	"github.com/hadevx/backend/internal/auth"
	"github.com/hadevx/backend/internal/catalog"
	"github.com/hadevx/backend/internal/config"
	"github.com/hadevx/backend/internal/coupons"
	"github.com/hadevx/backend/internal/notify"
	"github.com/hadevx/backend/internal/orders"
	"github.com/hadevx/backend/internal/settings"
	"github.com/hadevx/backend/internal/stores/kafka"
	"github.com/hadevx/backend/internal/stores/mongo"
	"github.com/hadevx/backend/internal/users"
	"github.com/hadevx/backend/pkg/logkey"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := mongo.Connect(cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongo.Disconnect(client); err != nil {
			slog.Error("mongo disconnect failed", slog.String(logkey.ERROR, err.Error()))
		}
	}()
	db := client.Database(cfg.MongoDB)

	keys, err := auth.NewKeys(cfg.JWTSecret)
	if err != nil {
		return err
	}

	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	catalogConf, err := catalog.NewConf(db)
	if err != nil {
		return err
	}
	couponConf, err := coupons.NewConf(db)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(db, couponConf)
	if err != nil {
		return err
	}
	settingsConf, err := settings.NewConf(db)
	if err != nil {
		return err
	}

	// Kafka is optional; without brokers events are dropped.
	var kafkaConf *kafka.Conf
	if len(cfg.KafkaBrokers) > 0 {
		kafkaConf, err = kafka.NewConf(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	if cfg.StripeKey != "" {
		stripe.Key = cfg.StripeKey
	}

	mailer := notify.NewMailer(notify.Config{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUser,
		Password:   cfg.SMTPPass,
		From:       cfg.FromEmail,
		AdminEmail: cfg.OwnerEmail,
	})

	router := handlers.API(keys, userConf, catalogConf, couponConf, orderConf,
		settingsConf, kafkaConf, mailer)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
