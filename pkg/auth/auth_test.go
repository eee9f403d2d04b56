package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetJWTKey(t *testing.T) {
	defaultKey := JWTKey
	t.Cleanup(func() { JWTKey = defaultKey })

	SetJWTKey("")
	require.Equal(t, defaultKey, JWTKey, "empty key keeps the default")

	SetJWTKey("configured-signing-key")
	require.Equal(t, []byte("configured-signing-key"), JWTKey)
}
