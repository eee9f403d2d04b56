package book

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lbrs/book-reservation-service/gateway/config"
	"github.com/lbrs/book-reservation-service/gateway/internal/model"
	"github.com/lbrs/book-reservation-service/pkg/circuit_breaker"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	client *http.Client
	cfg    config.BookHTTPServer
	cb     circuit_breaker.CircuitBreaker
}

func NewService(log *zap.Logger, cfg config.Config) *Service { //nolint:gocritic
	return &Service{
		log:    log,
		client: &http.Client{Timeout: time.Minute},
		cfg:    cfg.BookHTTPServer,
		cb:     circuit_breaker.New(100, time.Second, 0.2, 2),
	}
}

func (s *Service) CB() circuit_breaker.CircuitBreaker {
	return s.cb
}

func (s *Service) GetBook(ctx context.Context, bookUid, authorization string) (model.Book, int, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("http://%s/api/v1/books/%s", net.JoinHostPort(s.cfg.Host, s.cfg.Port), bookUid),
		http.NoBody)
	if err != nil {
		return model.Book{}, http.StatusBadRequest, err
	}
	req.Header.Set(echo.HeaderAuthorization, authorization)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Book{}, http.StatusServiceUnavailable, err
	}
	defer resp.Body.Close()

	// Error responses carry {"message": ...}, not the typed payload.
	if resp.StatusCode >= http.StatusBadRequest {
		return model.Book{}, resp.StatusCode, nil
	}
	var book model.Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return model.Book{}, http.StatusBadRequest, err
	}
	return book, resp.StatusCode, nil
}

func (s *Service) GetReservations(ctx context.Context, authorization string) ([]model.Reservation, int, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("http://%s/api/v1/reservations", net.JoinHostPort(s.cfg.Host, s.cfg.Port)),
		http.NoBody)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	req.Header.Set(echo.HeaderAuthorization, authorization)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, http.StatusServiceUnavailable, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, nil
	}
	var rsv []model.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&rsv); err != nil {
		return nil, http.StatusBadRequest, err
	}
	return rsv, resp.StatusCode, nil
}

func (s *Service) CreateReservation(ctx context.Context, request model.CreateReservationRequest, authorization string) (model.CreateReservationResponse, int, error) {
	b := bytes.NewBuffer(nil)
	if err := json.NewEncoder(b).Encode(request); err != nil {
		return model.CreateReservationResponse{}, http.StatusBadRequest, err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("http://%s/api/v1/reservations", net.JoinHostPort(s.cfg.Host, s.cfg.Port)),
		b)
	if err != nil {
		return model.CreateReservationResponse{}, http.StatusBadRequest, err
	}
	req.Header.Set(echo.HeaderAuthorization, authorization)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.CreateReservationResponse{}, http.StatusServiceUnavailable, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return model.CreateReservationResponse{}, resp.StatusCode, nil
	}
	var rsv model.CreateReservationResponse
	if err := json.NewDecoder(resp.Body).Decode(&rsv); err != nil {
		return model.CreateReservationResponse{}, http.StatusBadRequest, err
	}
	return rsv, resp.StatusCode, nil
}

// Transition drives a reservation through pickup, return or cancel.
func (s *Service) Transition(ctx context.Context, reservationUid, action, authorization string) (model.Reservation, int, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("http://%s/api/v1/reservations/%s/%s", net.JoinHostPort(s.cfg.Host, s.cfg.Port), reservationUid, action),
		http.NoBody)
	if err != nil {
		return model.Reservation{}, http.StatusBadRequest, err
	}
	req.Header.Set(echo.HeaderAuthorization, authorization)
	resp, err := s.client.Do(req)
	if err != nil {
		return model.Reservation{}, http.StatusServiceUnavailable, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return model.Reservation{}, resp.StatusCode, nil
	}
	var rsv model.Reservation
	if err := json.NewDecoder(resp.Body).Decode(&rsv); err != nil {
		return model.Reservation{}, http.StatusBadRequest, err
	}
	return rsv, resp.StatusCode, nil
}

func (s *Service) ListBooks(c echo.Context) ([]byte, int, error) {
	return s.proxy(c)
}

func (s *Service) ManageBook(c echo.Context) ([]byte, int, error) {
	return s.proxy(c)
}

func (s *Service) GetReservation(c echo.Context) ([]byte, int, error) {
	return s.proxy(c)
}

func (s *Service) proxy(c echo.Context) (data []byte, statusCode int, err error) {
	ur := c.Request().URL
	ur.Scheme = "http"
	ur.Host = net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	req, err := http.NewRequestWithContext(c.Request().Context(), c.Request().Method, ur.String(), c.Request().Body)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	req.Header = c.Request().Header.Clone()
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
