package service_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lbrs/book-reservation-service/member/internal/errs"
	"github.com/lbrs/book-reservation-service/member/internal/model"
	"github.com/lbrs/book-reservation-service/member/internal/service"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	users map[string]model.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]model.User)}
}

func (f *fakeRepo) CreateUser(_ context.Context, user model.User) (model.User, error) {
	if _, ok := f.users[user.Username]; ok {
		return model.User{}, errs.ErrDuplicate
	}
	user.UserID = uuid.NewString()
	f.users[user.Username] = user
	return user, nil
}

func (f *fakeRepo) GetUserByName(_ context.Context, username string) (model.User, error) {
	user, ok := f.users[username]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return user, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, userID string) (model.User, error) {
	for _, user := range f.users {
		if user.UserID == userID {
			return user, nil
		}
	}
	return model.User{}, errs.ErrNotFound
}

func (f *fakeRepo) ListUsers(_ context.Context, page, size int) (model.ListUsers, error) {
	items := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		items = append(items, user)
	}
	return model.ListUsers{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: len(items)},
		Items:  items,
	}, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	for name, user := range f.users {
		if user.UserID == userID {
			user.PasswordHash = passwordHash
			f.users[name] = user
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeRepo) DeactivateUser(_ context.Context, userID string) error {
	for name, user := range f.users {
		if user.UserID == userID {
			user.IsActive = false
			f.users[name] = user
			return nil
		}
	}
	return errs.ErrNotFound
}

func TestService_RegisterUser(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	svc := service.NewService(repo, zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, model.UserCreateRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, auth.RoleMember, user.Role)

	stored := repo.users["reader"]
	require.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))

	_, err = svc.RegisterUser(ctx, model.UserCreateRequest{
		Username: "reader",
		Email:    "other@example.com",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, errs.ErrDuplicate)

	admin, err := svc.RegisterUser(ctx, model.UserCreateRequest{
		Username: "librarian",
		Email:    "librarian@example.com",
		Password: "s3cret-pass",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, admin.Role)
}

func TestService_Authorize(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	svc := service.NewService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, model.UserCreateRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	signed, err := svc.Authorize(ctx, model.AuthRequest{Username: "reader", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims := new(auth.Claims)
	token, err := jwt.ParseWithClaims(signed, claims, func(_ *jwt.Token) (interface{}, error) {
		return auth.JWTKey, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, "reader", claims.Profile.Username)
	require.Equal(t, auth.RoleMember, claims.Profile.Role)
	require.NotEmpty(t, claims.Profile.UserID)

	_, err = svc.Authorize(ctx, model.AuthRequest{Username: "reader", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrCredentials)

	_, err = svc.Authorize(ctx, model.AuthRequest{Username: "nobody", Password: "s3cret-pass"})
	require.ErrorIs(t, err, errs.ErrCredentials)
}

func TestService_ResetPassword(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	svc := service.NewService(repo, zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, model.UserCreateRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, user.UserID, model.PasswordResetRequest{
		CurrentPassword: "wrong-pass",
		NewPassword:     "brand-new-pass",
		ConfirmPassword: "brand-new-pass",
	})
	require.ErrorIs(t, err, errs.ErrCredentials)

	err = svc.ResetPassword(ctx, user.UserID, model.PasswordResetRequest{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	})
	require.ErrorIs(t, err, errs.ErrPasswordReuse)

	err = svc.ResetPassword(ctx, user.UserID, model.PasswordResetRequest{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "brand-new-pass",
		ConfirmPassword: "brand-new-pass",
	})
	require.NoError(t, err)

	_, err = svc.Authorize(ctx, model.AuthRequest{Username: "reader", Password: "s3cret-pass"})
	require.ErrorIs(t, err, errs.ErrCredentials)
	_, err = svc.Authorize(ctx, model.AuthRequest{Username: "reader", Password: "brand-new-pass"})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, uuid.NewString(), model.PasswordResetRequest{
		CurrentPassword: "brand-new-pass",
		NewPassword:     "another-new-pass",
		ConfirmPassword: "another-new-pass",
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_DeactivateUser(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	svc := service.NewService(repo, zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, model.UserCreateRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.True(t, user.IsActive)

	_, err = svc.Authorize(ctx, model.AuthRequest{Username: "reader", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(ctx, user.UserID))

	got, err := svc.GetUser(ctx, user.UserID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	// The row survives but credentials stop working.
	_, err = svc.Authorize(ctx, model.AuthRequest{Username: "reader", Password: "s3cret-pass"})
	require.ErrorIs(t, err, errs.ErrCredentials)

	require.ErrorIs(t, svc.DeactivateUser(ctx, uuid.NewString()), errs.ErrNotFound)
}
