package model_test

import (
	"testing"

	"github.com/lbrs/book-reservation-service/book/internal/model"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()
	all := []model.StatusType{
		model.StatusReserved,
		model.StatusPickedUp,
		model.StatusReturned,
		model.StatusCancelled,
		model.StatusExpired,
	}
	allowed := map[model.StatusType][]model.StatusType{
		model.StatusReserved: {model.StatusPickedUp, model.StatusCancelled, model.StatusExpired},
		model.StatusPickedUp: {model.StatusReturned},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			require.Equal(t, want, model.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_Terminal(t *testing.T) {
	t.Parallel()
	for _, terminal := range []model.StatusType{
		model.StatusReturned,
		model.StatusCancelled,
		model.StatusExpired,
	} {
		for _, to := range []model.StatusType{
			model.StatusReserved,
			model.StatusPickedUp,
			model.StatusReturned,
			model.StatusCancelled,
			model.StatusExpired,
		} {
			require.False(t, model.CanTransition(terminal, to), "%s must be terminal", terminal)
		}
	}
}

func TestConsuming(t *testing.T) {
	t.Parallel()
	require.True(t, model.StatusReserved.Consuming())
	require.True(t, model.StatusPickedUp.Consuming())
	require.False(t, model.StatusReturned.Consuming())
	require.False(t, model.StatusCancelled.Consuming())
	require.False(t, model.StatusExpired.Consuming())
}

func TestReservation_CurrentStatus(t *testing.T) {
	t.Parallel()
	rsv := model.Reservation{}
	require.Equal(t, model.StatusType(""), rsv.CurrentStatus())

	rsv.StatusHistory = append(rsv.StatusHistory, model.ReservationStatus{Status: model.StatusReserved})
	require.Equal(t, model.StatusReserved, rsv.CurrentStatus())

	rsv.StatusHistory = append(rsv.StatusHistory, model.ReservationStatus{Status: model.StatusPickedUp})
	require.Equal(t, model.StatusPickedUp, rsv.CurrentStatus())

	rsv.StatusHistory = append(rsv.StatusHistory, model.ReservationStatus{Status: model.StatusReturned})
	require.Equal(t, model.StatusReturned, rsv.CurrentStatus())
}
