package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"github.com/lbrs/book-reservation-service/pkg/logger"
	"github.com/lbrs/book-reservation-service/pkg/postgres"
	"github.com/lbrs/book-reservation-service/pkg/server"
	"github.com/lbrs/book-reservation-service/stats/config"
	"github.com/lbrs/book-reservation-service/stats/internal/handler"
	"github.com/lbrs/book-reservation-service/stats/internal/repository"
	"github.com/lbrs/book-reservation-service/stats/internal/service"
	"github.com/lbrs/book-reservation-service/stats/migrations"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "stats")
	db, err := postgres.NewPostgresPool(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}
	svc := service.NewService(repo, log)

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.StatsConsumerGroup)
	if err != nil {
		return fmt.Errorf("kafka.NewConsumer %v", err)
	}
	consumeCtx, stopConsume := context.WithCancel(context.Background())
	consumerHandler := handler.NewConsumer(svc.RecordEvent, log)
	go kafka.Consume(consumeCtx, consumer, consumerHandler, kafka.ReservationTopic, log)
	go func() {
		<-consumerHandler.Ready()
		log.Info("kafka consumer joined", zap.String("topic", kafka.ReservationTopic))
	}()

	h := handler.New(svc, log)
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

	stopConsume()
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err = consumer.Close(); err != nil {
		log.Error("consumer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
