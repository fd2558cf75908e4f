package auth

import (
	"errors"
	"fmt"

	"github.com/yourusername/session-auth/internal/users"
)

var (
	// ErrValidation は入力不備（パスワード不一致など）を表します。
	ErrValidation = errors.New("validation error")
	// ErrDuplicateUsername はユーザー名が既に使われていることを表します。
	ErrDuplicateUsername = users.ErrDuplicateUsername
	// ErrAuthentication は資格情報が正しくないことを表します。
	ErrAuthentication = errors.New("invalid username or password")
	// ErrHashing はパスワードハッシュ処理の内部エラーです。
	ErrHashing = errors.New("password hashing failed")
	// ErrStore はユーザーストアの I/O エラーです。
	ErrStore = errors.New("user store error")
	// ErrUnknownPrincipal はセッションのユーザーIDに対応するユーザーがいないことを表します。
	ErrUnknownPrincipal = errors.New("unknown principal")
)

var (
	errMissingCredentials = fmt.Errorf("%w: username and password are required", ErrValidation)
	errPasswordMismatch   = fmt.Errorf("%w: passwords do not match", ErrValidation)
	errPasswordTooLong    = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
)
