package models

import "time"

// Статусы учётной записи.
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// User зарегистрированный пользователь сайта.
type User struct {
	UUID      string    // Уникальный идентификатор пользователя
	Email     string    // Электронная почта
	Username  string    // Имя пользователя (уникальное)
	Role      string    // Роль пользователя, admin или user
	Status    string    // active или blocked
	CreatedAt time.Time // Дата регистрации
}

// Active сообщает, может ли пользователь раскрывать коды.
func (u User) Active() bool {
	return u.Status == UserStatusActive
}
