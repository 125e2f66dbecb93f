package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mhudec/kniznica/config"
	"github.com/mhudec/kniznica/internal/events"
	"github.com/mhudec/kniznica/internal/handler"
	"github.com/mhudec/kniznica/internal/repository"
	"github.com/mhudec/kniznica/internal/server"
	"github.com/mhudec/kniznica/internal/service"
	"github.com/mhudec/kniznica/internal/stats"
	"github.com/mhudec/kniznica/migrations"
	"github.com/mhudec/kniznica/pkg/kafka"
	"github.com/mhudec/kniznica/pkg/logger"
	"github.com/mhudec/kniznica/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "kniznica")

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}

	pub := events.Nop()
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Warn("kafka.NewProducer, events disabled", zap.Error(err))
	} else {
		pub = events.NewPublisher(producer, log)
	}

	svc := service.NewService(repo, pub, log)

	pool, err := postgres.NewPgxPool(context.Background(), &cfg.Database)
	if err != nil {
		return fmt.Errorf("pgx pool %v", err)
	}
	statsRepo, err := stats.NewRepository(pool, log)
	if err != nil {
		return fmt.Errorf("stats repo %v", err)
	}
	statsSvc := stats.NewService(statsRepo, log)

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	defer stopConsume()
	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.StatsConsumerGroup)
	if err != nil {
		log.Warn("kafka.NewConsumer, stats recording disabled", zap.Error(err))
	} else {
		go kafka.Consume(consumeCtx, consumer, stats.NewConsumer(statsSvc.Record, log), kafka.EventsTopic, log)
	}

	h := handler.New(svc, statsSvc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	stopConsume()
	if producer != nil {
		_ = producer.Close()
	}
	pool.Close()
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
