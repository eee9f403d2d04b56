package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"

	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

// Config carries the signing key shared by every service that issues or
// verifies tokens. JWT_KEY overrides the default for all services at once,
// the per-service prefixed variable overrides a single one.
type Config struct {
	Key string `envconfig:"JWT_KEY" json:"-"`
}

// JWTKey signs and verifies tokens issued by the member service.
var JWTKey = []byte("lbrs-jwt-key")

// SetJWTKey installs the configured signing key. Called once at startup
// before any request is served. An empty key keeps the default.
func SetJWTKey(key string) {
	if key != "" {
		JWTKey = []byte(key)
	}
}

type Claims struct {
	Profile struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"profile"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ctxKey int

const (
	userIDKey ctxKey = iota + 1
	userNameKey
	userRoleKey
)

// SetAuthContext stores the authenticated caller identity for the request.
// The identity is derived once at the boundary and is read-only downstream.
func SetAuthContext(ctx context.Context, userID, userName, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, userNameKey, userName)
	return context.WithValue(ctx, userRoleKey, role)
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func UserName(ctx context.Context) string {
	name, _ := ctx.Value(userNameKey).(string)
	return name
}

func UserRole(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	return role
}
