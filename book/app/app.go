package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lbrs/book-reservation-service/book/config"
	"github.com/lbrs/book-reservation-service/book/internal/handler"
	"github.com/lbrs/book-reservation-service/book/internal/repository"
	"github.com/lbrs/book-reservation-service/book/internal/service"
	"github.com/lbrs/book-reservation-service/book/migrations"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"github.com/lbrs/book-reservation-service/pkg/logger"
	"github.com/lbrs/book-reservation-service/pkg/postgres"
	"github.com/lbrs/book-reservation-service/pkg/server"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "book")
	auth.SetJWTKey(cfg.JWT.Key)
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	bookRepo, err := repository.NewBookRepository(db, log)
	if err != nil {
		return fmt.Errorf("book repo %v", err)
	}
	rsvRepo, err := repository.NewReservationRepository(db, log)
	if err != nil {
		return fmt.Errorf("reservation repo %v", err)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("kafka producer %v", err)
	}
	svc := service.NewService(bookRepo, rsvRepo, service.NewEnqueuer(producer), log)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go svc.RunExpirySweep(sweepCtx, cfg.Expiry.SweepInterval, cfg.Expiry.PickupWindow)

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

	stopSweep()
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err = producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
