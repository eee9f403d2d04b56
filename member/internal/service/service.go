package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lbrs/book-reservation-service/member/internal/errs"
	"github.com/lbrs/book-reservation-service/member/internal/model"
	"github.com/lbrs/book-reservation-service/member/internal/repository"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

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

func (s *Service) RegisterUser(ctx context.Context, req model.UserCreateRequest) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	role := req.Role
	if role == "" {
		role = auth.RoleMember
	}
	return s.repo.CreateUser(ctx, model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
}

func (s *Service) GetUser(ctx context.Context, userID string) (model.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, page, size int) (model.ListUsers, error) {
	return s.repo.ListUsers(ctx, page, size)
}

// ResetPassword rotates the caller's own password. The current password is
// re-verified even though the caller already holds a valid token.
func (s *Service) ResetPassword(ctx context.Context, userID string, req model.PasswordResetRequest) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return errs.ErrCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.NewPassword)) == nil {
		return errs.ErrPasswordReuse
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.UserID, string(hash))
}

func (s *Service) DeactivateUser(ctx context.Context, userID string) error {
	return s.repo.DeactivateUser(ctx, userID)
}

// Authorize verifies credentials and issues a signed token carrying the
// identity the other services consume.
func (s *Service) Authorize(ctx context.Context, req model.AuthRequest) (string, error) {
	user, err := s.repo.GetUserByName(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", errs.ErrCredentials
	}
	// Deactivated accounts keep their row but cannot sign in.
	if !user.IsActive {
		return "", errs.ErrCredentials
	}

	claims := &auth.Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	claims.Profile.UserID = user.UserID
	claims.Profile.Username = user.Username
	claims.Profile.Role = user.Role

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(auth.JWTKey)
	if err != nil {
		s.log.Error("sign token", zap.String("username", user.Username), zap.Error(err))
		return "", err
	}
	return signed, nil
}
