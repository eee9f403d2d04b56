package handler_test

import (
	"context"
	"testing"

	"github.com/lbrs/book-reservation-service/pkg/kafka"
	"github.com/lbrs/book-reservation-service/stats/internal/handler"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Sessions restart on every rebalance, so Setup runs more than once over
// the consumer lifetime and must stay idempotent.
func TestConsumer_SetupAcrossSessions(t *testing.T) {
	t.Parallel()
	consumer := handler.NewConsumer(func(context.Context, kafka.ReservationEvent) error {
		return nil
	}, zap.NewNop())

	require.NoError(t, consumer.Setup(nil))
	require.NotPanics(t, func() {
		require.NoError(t, consumer.Setup(nil))
	})

	select {
	case <-consumer.Ready():
	default:
		t.Fatal("consumer not marked ready after setup")
	}
}
