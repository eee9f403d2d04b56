package errs

import "errors"

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicate     = errors.New("username or email already registered")
	ErrCredentials   = errors.New("invalid credentials")
	ErrPasswordReuse = errors.New("new password must differ from the current one")
)
