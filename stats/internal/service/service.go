package service

import (
	"context"

	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"github.com/lbrs/book-reservation-service/stats/internal/model"
	"github.com/lbrs/book-reservation-service/stats/internal/repository"
	"go.uber.org/zap"
)

type Service struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

func (s *Service) GetStats(ctx context.Context) (model.StatsInfo, error) {
	return s.repo.GetStats(ctx)
}

func (s *Service) RecordEvent(ctx context.Context, event kafka.ReservationEvent) error {
	return s.repo.RecordEvent(ctx, event)
}
