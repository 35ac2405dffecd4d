package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/tournament-join/api"
	"github.com/Dosada05/tournament-join/models"
)

// IdentityService разрешает идентификатор текущего пользователя.
// Сначала пробуем claims access-токена (подпись не проверяется: токен
// выдан этому же клиенту, серверная проверка всё равно произойдёт при
// первом запросе), затем падаем на запрос профиля.
type IdentityService struct {
	token  string
	users  api.UserAPI
	logger *slog.Logger

	mu       sync.Mutex
	cachedID string
}

func NewIdentityService(token string, users api.UserAPI, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		token:  token,
		users:  users,
		logger: logger,
	}
}

// CurrentUserID возвращает нормализованный идентификатор пользователя.
// Значение кэшируется на время сессии: токен в её пределах не меняется.
func (s *IdentityService) CurrentUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.cachedID != "" {
		id := s.cachedID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	if id := s.userIDFromToken(); id != "" {
		s.setCachedID(id)
		return id, nil
	}

	profile, err := s.users.GetProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	if profile == nil || profile.ID == 0 {
		return "", ErrIdentityUnavailable
	}
	id := strconv.Itoa(profile.ID)
	s.setCachedID(id)
	return id, nil
}

// Profile запрашивает профиль. Не кэшируется: уровень верификации и ранг
// могли измениться с прошлого обращения.
func (s *IdentityService) Profile(ctx context.Context) (*models.Profile, error) {
	profile, err := s.users.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *IdentityService) setCachedID(id string) {
	s.mu.Lock()
	s.cachedID = id
	s.mu.Unlock()
}

func (s *IdentityService) userIDFromToken() string {
	if s.token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.token, claims); err != nil {
		s.logger.Debug("access token is not a parseable JWT, falling back to profile fetch",
			slog.Any("error", err))
		return ""
	}
	for _, key := range []string{"user_id", "id", "sub"} {
		if value, ok := claims[key]; ok {
			if id := normalizeID(value); id != "" {
				return id
			}
		}
	}
	return ""
}
