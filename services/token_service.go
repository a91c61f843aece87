package services

import (
	"fmt"
	"time"

	"queue-system/store"

	"go.uber.org/zap"
)

// TokenService issues unique, per-day sequential human-facing tokens
// such as "A007". Serialization lives in the store's counter transaction.
type TokenService struct {
	store  *store.Store
	logger *zap.Logger
}

func NewTokenService(s *store.Store, logger *zap.Logger) *TokenService {
	return &TokenService{store: s, logger: logger}
}

// Issue returns the next token for the given moment's calendar day (UTC).
func (t *TokenService) Issue(at time.Time) (string, error) {
	day := at.UTC().Format("2006-01-02")
	prefix, number, err := t.store.NextToken(day)
	if err != nil {
		return "", fmt.Errorf("issue token for %s: %w", day, err)
	}

	token := fmt.Sprintf("%s%03d", prefix, number)
	t.logger.Debug("token issued", zap.String("token", token), zap.String("day", day))
	return token, nil
}
