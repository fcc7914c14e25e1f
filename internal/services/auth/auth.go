// Package auth содержит реализации проверки пользователя, от имени которого
// запрашивается раскрытие кода ваучера.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/jwt"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
	"github.com/magabrotheeeer/hotel-vouchers/internal/storage/repository"
)

// StaticAuthenticator возвращает один и тот же ответ для любого пользователя.
// Только для локальной разработки.
type StaticAuthenticator struct {
	Allow bool
}

// Authenticate возвращает Allow.
func (a StaticAuthenticator) Authenticate(_ context.Context, _ string) (bool, error) {
	return a.Allow, nil
}

// TokenAuthenticator считает идентификатором пользователя сессионный JWT сайта.
type TokenAuthenticator struct {
	parser jwt.Parser
	log    *slog.Logger
}

// NewTokenAuthenticator создает TokenAuthenticator.
func NewTokenAuthenticator(parser jwt.Parser, log *slog.Logger) *TokenAuthenticator {
	return &TokenAuthenticator{parser: parser, log: log}
}

// Authenticate проверяет подпись и срок действия токена.
// Невалидный токен означает неаутентифицированного пользователя, а не ошибку.
func (a *TokenAuthenticator) Authenticate(_ context.Context, token string) (bool, error) {
	claims, err := a.parser.ParseToken(token)
	if err != nil {
		a.log.Debug("token rejected", sl.Err(err))
		return false, nil
	}
	return claims.UserID() != "", nil
}

// UserRepository источник учётных записей пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// ResultCache кэш решений о пользователях.
type ResultCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// RepositoryAuthenticator пускает только существующих активных пользователей.
// Положительные решения кэшируются на ttl, чтобы не ходить в базу
// при каждом раскрытии.
type RepositoryAuthenticator struct {
	users   UserRepository
	cache   ResultCache
	ttl     time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// NewRepositoryAuthenticator создает RepositoryAuthenticator. cache может быть nil.
func NewRepositoryAuthenticator(users UserRepository, cache ResultCache, ttl, timeout time.Duration, log *slog.Logger) *RepositoryAuthenticator {
	return &RepositoryAuthenticator{
		users:   users,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		log:     log,
	}
}

func cacheKey(userID string) string {
	return "auth:user:" + userID
}

// Authenticate ищет пользователя в репозитории. Отсутствующий пользователь
// дает false без ошибки, сбой репозитория возвращается как ошибка.
func (a *RepositoryAuthenticator) Authenticate(ctx context.Context, userID string) (bool, error) {
	const op = "auth.RepositoryAuthenticator.Authenticate"
	log := a.log.With(slog.String("op", op))

	if a.cache != nil {
		var active bool
		found, err := a.cache.Get(ctx, cacheKey(userID), &active)
		if err != nil {
			log.Warn("auth cache unavailable", sl.Err(err))
		} else if found && active {
			return true, nil
		}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	user, err := a.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !user.Active() {
		log.Info("inactive user tried to reveal a code", slog.String("status", user.Status))
		return false, nil
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey(userID), true, a.ttl); err != nil {
			log.Warn("failed to cache auth result", sl.Err(err))
		}
	}
	return true, nil
}
