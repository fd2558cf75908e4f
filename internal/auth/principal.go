package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/session-auth/internal/users"
)

// PrincipalMapper はユーザーとセッションに保存するIDとを相互に変換します。
type PrincipalMapper struct {
	users users.Store
}

// NewPrincipalMapper は PrincipalMapper を作成します。
func NewPrincipalMapper(store users.Store) *PrincipalMapper {
	return &PrincipalMapper{users: store}
}

// Serialize はセッションに保存するユーザーIDを返します。
func (m *PrincipalMapper) Serialize(user *users.User) string {
	return user.ID
}

// Deserialize はユーザーIDからユーザーを復元します。
func (m *PrincipalMapper) Deserialize(ctx context.Context, principalID string) (*users.User, error) {
	user, err := m.users.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return user, nil
}
