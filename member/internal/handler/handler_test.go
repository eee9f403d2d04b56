package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/lbrs/book-reservation-service/member/internal/errs"
	"github.com/lbrs/book-reservation-service/member/internal/handler"
	"github.com/lbrs/book-reservation-service/member/internal/model"
	"github.com/lbrs/book-reservation-service/pkg/auth"
	mw "github.com/lbrs/book-reservation-service/pkg/middleware"
	"github.com/lbrs/book-reservation-service/pkg/validate"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/lbrs/book-reservation-service/member/internal/handler/mocks"
)

const testUserID = "1b4b92a4-7f26-4a1a-93bd-6a68af0ca44f"

func identity(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := auth.SetAuthContext(req.Context(), testUserID, "reader", role)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func TestHandler_Register(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		expectedCode int
	}{
		{
			name: "ok",
			body: `{"username":"reader","email":"reader@example.com","password":"s3cret-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					RegisterUser(gomock.Any(), model.UserCreateRequest{
						Username: "reader",
						Email:    "reader@example.com",
						Password: "s3cret-pass",
					}).
					Return(model.User{
						UserID:   "1b4b92a4-7f26-4a1a-93bd-6a68af0ca44f",
						Username: "reader",
						Email:    "reader@example.com",
						Role:     "Member",
					}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "err. username taken",
			body: `{"username":"reader","email":"reader@example.com","password":"s3cret-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					RegisterUser(gomock.Any(), gomock.Any()).
					Return(model.User{}, errs.ErrDuplicate)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:         "err. short password",
			body:         `{"username":"reader","email":"reader@example.com","password":"short"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "err. unknown role",
			body:         `{"username":"reader","email":"reader@example.com","password":"s3cret-pass","role":"Librarian"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockAuthService(c)
			h := handler.New(svc, zap.NewExample().Named("test"))

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/register", h.Register)

			r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_Authorize(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok",
			body: `{"username":"reader","password":"s3cret-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Authorize(gomock.Any(), model.AuthRequest{Username: "reader", Password: "s3cret-pass"}).
					Return("signed.jwt.token", nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"token":"signed.jwt.token"}`,
		},
		{
			name: "err. wrong password",
			body: `{"username":"reader","password":"wrong"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Authorize(gomock.Any(), gomock.Any()).
					Return("", errs.ErrCredentials)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"message":"Invalid credentials"}`,
		},
		{
			name:         "err. missing password",
			body:         `{"username":"reader"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockAuthService(c)
			h := handler.New(svc, zap.NewExample().Named("test"))

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/authorize", h.Authorize)

			r := httptest.NewRequest(http.MethodPost, "/authorize", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_ResetPassword(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		expectedCode int
	}{
		{
			name: "ok",
			body: `{"currentPassword":"s3cret-pass","newPassword":"brand-new-pass","confirmPassword":"brand-new-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ResetPassword(gomock.Any(), testUserID, model.PasswordResetRequest{
						CurrentPassword: "s3cret-pass",
						NewPassword:     "brand-new-pass",
						ConfirmPassword: "brand-new-pass",
					}).
					Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "err. wrong current password",
			body: `{"currentPassword":"wrong","newPassword":"brand-new-pass","confirmPassword":"brand-new-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ResetPassword(gomock.Any(), testUserID, gomock.Any()).
					Return(errs.ErrCredentials)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name: "err. password reused",
			body: `{"currentPassword":"s3cret-pass","newPassword":"s3cret-pass","confirmPassword":"s3cret-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					ResetPassword(gomock.Any(), testUserID, gomock.Any()).
					Return(errs.ErrPasswordReuse)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:         "err. confirmation mismatch",
			body:         `{"currentPassword":"s3cret-pass","newPassword":"brand-new-pass","confirmPassword":"other-pass"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockAuthService(c)
			h := handler.New(svc, zap.NewExample().Named("test"))

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.PUT("/password", h.ResetPassword, identity(auth.RoleMember))

			r := httptest.NewRequest(http.MethodPut, "/password", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_DeactivateUser(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		role         string
		mockBehavior mockBehavior
		expectedCode int
	}{
		{
			name: "ok",
			role: auth.RoleAdmin,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					DeactivateUser(gomock.Any(), testUserID).
					Return(nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "err. unknown user",
			role: auth.RoleAdmin,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					DeactivateUser(gomock.Any(), testUserID).
					Return(errs.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "err. member role",
			role:         auth.RoleMember,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			expectedCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockAuthService(c)
			h := handler.New(svc, zap.NewExample().Named("test"))

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.DELETE("/users/:userId", h.DeactivateUser, identity(tt.role), mw.RequireRole(auth.RoleAdmin))

			r := httptest.NewRequest(http.MethodDelete, "/users/"+testUserID, http.NoBody)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
