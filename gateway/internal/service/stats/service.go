package stats

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lbrs/book-reservation-service/gateway/config"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	"github.com/lbrs/book-reservation-service/pkg/circuit_breaker"
	mw "github.com/lbrs/book-reservation-service/pkg/middleware"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	client *http.Client
	cfg    config.StatsHTTPServer
	cb     circuit_breaker.CircuitBreaker
}

func NewService(log *zap.Logger, cfg config.Config) *Service { //nolint:gocritic
	return &Service{
		log:    log,
		client: &http.Client{Timeout: time.Minute},
		cfg:    cfg.StatsHTTPServer,
		cb:     circuit_breaker.New(100, time.Second, 0.2, 2),
	}
}

func (s *Service) CB() circuit_breaker.CircuitBreaker {
	return s.cb
}

// GetStats forwards the request with identity headers derived from the
// verified token. The stats service trusts those headers, not the token.
func (s *Service) GetStats(c echo.Context) (data []byte, statusCode int, err error) {
	ctx := c.Request().Context()
	ur := c.Request().URL
	ur.Scheme = "http"
	ur.Host = net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ur.String(), http.NoBody)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	req.Header.Set(mw.XUserIDHeader, auth.UserID(ctx))
	req.Header.Set(auth.XUserNameHeader, auth.UserName(ctx))
	req.Header.Set(auth.XUserRoleHeader, auth.UserRole(ctx))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, http.StatusServiceUnavailable, err
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return data, resp.StatusCode, nil
}
