package handler

import (
	"context"

	"github.com/lbrs/book-reservation-service/member/internal/model"
	"github.com/lbrs/book-reservation-service/member/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type AuthService interface {
	RegisterUser(ctx context.Context, req model.UserCreateRequest) (model.User, error)
	Authorize(ctx context.Context, req model.AuthRequest) (string, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
	ListUsers(ctx context.Context, page, size int) (model.ListUsers, error)
	ResetPassword(ctx context.Context, userID string, req model.PasswordResetRequest) error
	DeactivateUser(ctx context.Context, userID string) error
}

var _ AuthService = (*service.Service)(nil)
