package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lbrs/book-reservation-service/pkg/auth"
	"github.com/lbrs/book-reservation-service/stats/internal/handler"
	"github.com/lbrs/book-reservation-service/stats/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStatsService struct {
	info model.StatsInfo
	err  error
}

func (f *fakeStatsService) GetStats(context.Context) (model.StatsInfo, error) {
	return f.info, f.err
}

func TestHandler_GetStats(t *testing.T) {
	t.Parallel()

	svc := &fakeStatsService{info: model.StatsInfo{Data: []model.Stats{
		{UserID: "1b4b92a4-7f26-4a1a-93bd-6a68af0ca44f", Reservations: 4, PickedUp: 3, Returned: 2, Cancelled: 1},
	}}}
	h := handler.New(svc, zap.NewExample().Named("test"))
	e := h.NewRouter()

	var tests = []struct {
		name         string
		role         string
		noIdentity   bool
		expectedCode int
	}{
		{name: "admin ok", role: auth.RoleAdmin, expectedCode: http.StatusOK},
		{name: "member forbidden", role: auth.RoleMember, expectedCode: http.StatusForbidden},
		{name: "no identity headers", noIdentity: true, expectedCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/stats", http.NoBody)
			if !tt.noIdentity {
				r.Header.Set("X-User-Id", "1b4b92a4-7f26-4a1a-93bd-6a68af0ca44f")
				r.Header.Set(auth.XUserNameHeader, "admin")
				r.Header.Set(auth.XUserRoleHeader, tt.role)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				require.Contains(t, w.Body.String(), `"reservations":4`)
			}
		})
	}
}
