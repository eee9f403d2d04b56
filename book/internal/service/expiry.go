package service

import (
	"context"
	"errors"
	"time"

	"github.com/lbrs/book-reservation-service/book/internal/errs"
	"github.com/lbrs/book-reservation-service/book/internal/model"
	"go.uber.org/zap"
)

// RunExpirySweep periodically expires reservations that were not picked up
// within the pickup window. Each expiry goes through the regular transition
// path, so it takes the same per-reservation lock and restores availability
// atomically. Runs until ctx is canceled.
func (s *Service) RunExpirySweep(ctx context.Context, interval, pickupWindow time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := s.log.Named("expiry")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ctx, pickupWindow, log)
		}
	}
}

func (s *Service) sweepExpired(ctx context.Context, pickupWindow time.Duration, log *zap.Logger) {
	cutoff := time.Now().UTC().Add(-pickupWindow)
	ids, err := s.rsv.ListOverdueReserved(ctx, cutoff)
	if err != nil {
		log.Error("list overdue", zap.Error(err))
		return
	}
	for _, id := range ids {
		rsv, err := s.rsv.UpdateStatus(ctx, id, model.StatusExpired, SystemUserID)
		if err != nil {
			// a member picked up or cancelled between the scan and the
			// transition; the sweep simply lost the race
			if errors.Is(err, errs.ErrInvalidTransition) || errors.Is(err, errs.ErrNotFound) {
				continue
			}
			log.Error("expire reservation", zap.String("reservation_uid", id), zap.Error(err))
			continue
		}
		log.Info("reservation expired", zap.String("reservation_uid", id))
		s.publish(rsv)
	}
}
