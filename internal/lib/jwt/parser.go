// Package jwt реализует проверку сессионных токенов пользователей сайта.
//
// Токены выпускает сайт, подписывая их общим секретом (HS256),
// идентификатор пользователя хранится в стандартном поле sub.
package jwt

// Parser описывает интерфейс для парсинга JWT токенов.
type Parser interface {
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// ParserImpl реализует интерфейс Parser с использованием секретного ключа.
type ParserImpl struct {
	secretKey string
}

// NewJWTParser создаёт новый экземпляр ParserImpl на основе секретного ключа.
func NewJWTParser(secretKey string) *ParserImpl {
	return &ParserImpl{secretKey: secretKey}
}
