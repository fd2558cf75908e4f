// Package users はユーザーレコードの永続化を提供します。
package users

import "time"

// User は登録済みユーザーを表します。作成後は変更しません。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
