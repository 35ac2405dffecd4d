package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-join/models"
)

// Поля, в которых разные развёртывания сервиса прячут идентификатор
// участника. Сравнение идёт на каждом уровне вложенности коллекций.
var identityFieldNames = []string{
	"user_id", "userId", "player_id", "playerId",
	"member_id", "memberId", "id", "uuid",
}

// maxIdentitySearchDepth ограничивает рекурсивный поиск по коллекциям
// участников: глубже participants → team → members → user заявки не вложены.
const maxIdentitySearchDepth = 4

type EvaluateOptions struct {
	// RequireWalletCheck включает проверку баланса. Проверка всё равно
	// пропускается для бесплатных турниров и нулевого взноса.
	RequireWalletCheck bool
}

// EligibilityService — чистая проверка допуска к турниру. Никогда не ходит
// в сеть: все данные должны быть получены до вызова Evaluate.
type EligibilityService struct {
	topUpURL string
}

func NewEligibilityService(topUpURL string) *EligibilityService {
	return &EligibilityService{topUpURL: topUpURL}
}

// Evaluate выполняет проверки в фиксированном порядке от дешёвых к дорогим
// и останавливается на первом отказе. Причины не агрегируются.
func (s *EligibilityService) Evaluate(ec *models.EligibilityContext, opts EvaluateOptions) models.EligibilityResult {
	if ec == nil || ec.Tournament == nil {
		return deny(ReasonNotEligible, "tournament context is not available")
	}
	t := ec.Tournament

	// 1. Уже зарегистрирован: флаг сервера либо идентификатор пользователя
	// где-то в коллекциях участников.
	if t.AlreadyJoined || s.alreadyJoined(t, ec.UserID) {
		return deny(ReasonAlreadyJoined, "you are already registered in this tournament")
	}

	// 2. Уровень верификации.
	if t.RequiredVerificationLevel != nil {
		level := resolvedLevel(ec.Profile)
		switch {
		case level == nil:
			return deny(ReasonLevelUnknown, "your verification level could not be determined")
		case *level < *t.RequiredVerificationLevel:
			return deny(ReasonLevelInsufficient,
				fmt.Sprintf("verification level %d is required, you have level %d", *t.RequiredVerificationLevel, *level))
		}
	}

	// 3. Границы ранга.
	if t.MinRank != nil || t.MaxRank != nil {
		rank := resolvedRank(ec.Profile)
		switch {
		case rank == nil:
			return deny(ReasonRankUnknown, "your rank could not be determined")
		case t.MinRank != nil && *rank < *t.MinRank:
			return deny(ReasonRankTooLow,
				fmt.Sprintf("minimum rank %d is required, you have rank %d", *t.MinRank, *rank))
		case t.MaxRank != nil && *rank > *t.MaxRank:
			return deny(ReasonRankTooHigh,
				fmt.Sprintf("maximum rank %d is allowed, you have rank %d", *t.MaxRank, *rank))
		}
	}

	// 4. Требование цвета. Неизвестный цвет пользователя не блокирует:
	// это косметическое ограничение, а не защитное.
	if t.RequiredColor != nil && *t.RequiredColor != "" {
		if color := resolvedColor(ec.Profile); color != "" && !strings.EqualFold(color, *t.RequiredColor) {
			return deny(ReasonColorMismatch,
				fmt.Sprintf("this tournament is limited to %s players", *t.RequiredColor))
		}
	}

	// 5. Баланс. Самая дорогая проверка — требует запроса кошелька,
	// поэтому идёт последней.
	if opts.RequireWalletCheck && t.Paid() {
		if !ec.Wallet.Known() || ec.Wallet.Balance.Amount < t.Fee() {
			result := deny(ReasonBalanceInsufficient,
				fmt.Sprintf("the entry fee is %.2f and your balance is insufficient", t.Fee()))
			result.Actions = []models.Action{
				{Kind: models.ActionTopUp, Label: "Top up wallet", URL: s.topUpURL},
				{Kind: models.ActionDismiss, Label: "Not now"},
			}
			return result
		}
	}

	return models.EligibilityResult{Allowed: true}
}

// alreadyJoined ищет идентификатор пользователя в коллекциях участников
// и команд, спускаясь не глубже maxIdentitySearchDepth уровней.
func (s *EligibilityService) alreadyJoined(t *models.Tournament, userID string) bool {
	if userID == "" {
		return false
	}
	for _, node := range t.Participants {
		if containsIdentity(node, userID, 1) {
			return true
		}
	}
	for _, node := range t.Teams {
		if containsIdentity(node, userID, 1) {
			return true
		}
	}
	return false
}

func containsIdentity(node any, userID string, depth int) bool {
	if depth > maxIdentitySearchDepth {
		return false
	}
	switch v := node.(type) {
	case map[string]any:
		for _, field := range identityFieldNames {
			if value, ok := v[field]; ok && normalizeID(value) == userID {
				return true
			}
		}
		for _, value := range v {
			if containsIdentity(value, userID, depth+1) {
				return true
			}
		}
	case []any:
		// Срез не считается уровнем вложенности: уровень задают объекты.
		for _, item := range v {
			if containsIdentity(item, userID, depth) {
				return true
			}
		}
	}
	return false
}

func deny(code, message string) models.EligibilityResult {
	return models.EligibilityResult{Allowed: false, Code: code, Message: message}
}

func resolvedLevel(p *models.Profile) *int {
	if p == nil {
		return nil
	}
	return p.VerificationLevel
}

func resolvedRank(p *models.Profile) *int {
	if p == nil {
		return nil
	}
	return p.Rank
}

func resolvedColor(p *models.Profile) string {
	if p == nil || p.Color == nil {
		return ""
	}
	return *p.Color
}
