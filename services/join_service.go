package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-join/api"
	"github.com/Dosada05/tournament-join/models"
)

// Ключи, под которыми эндпоинт регистрации может ожидать игровой
// идентификатор в индивидуальной заявке.
var inGameIDKeys = []string{
	"in_game_id", "inGameId", "game_id", "gameId", "player_id", "playerId", "nickname",
}

// KeywordConfig — словари эвристики классификации отказов. Серверный
// контракт нам не принадлежит, поэтому списки переопределяются
// конфигурацией, а не зашиты намертво.
type KeywordConfig struct {
	// Stop: отказ по существу (правила турнира), перебор прекращается.
	Stop []string
	// Shape: отказ из-за формы запроса, пробуем следующий вариант.
	Shape []string
}

func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		Stop: []string{
			"captain", "already", "member", "registered", "capacity",
			"full", "minimum", "maximum", "closed", "banned",
		},
		Shape: []string{
			"field", "payload", "required", "missing", "invalid",
			"unknown", "unexpected", "malformed", "schema", "body",
			"parameter", "team",
		},
	}
}

func (c KeywordConfig) withDefaults() KeywordConfig {
	defaults := DefaultKeywordConfig()
	if len(c.Stop) == 0 {
		c.Stop = defaults.Stop
	}
	if len(c.Shape) == 0 {
		c.Shape = defaults.Shape
	}
	return c
}

// JoinService оркестрирует попытку регистрации: проверка допуска,
// валидация команды, сборка вариантов тела заявки и перебор их до
// терминального исхода.
type JoinService struct {
	tournaments api.TournamentAPI
	join        api.JoinAPI
	wallets     api.WalletAPI
	identity    *IdentityService
	registry    *TeamRegistry
	eligibility *EligibilityService
	keywords    KeywordConfig
	logger      *slog.Logger
}

func NewJoinService(
	tournaments api.TournamentAPI,
	join api.JoinAPI,
	wallets api.WalletAPI,
	identity *IdentityService,
	registry *TeamRegistry,
	eligibility *EligibilityService,
	keywords KeywordConfig,
	logger *slog.Logger,
) *JoinService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JoinService{
		tournaments: tournaments,
		join:        join,
		wallets:     wallets,
		identity:    identity,
		registry:    registry,
		eligibility: eligibility,
		keywords:    keywords.withDefaults(),
		logger:      logger,
	}
}

// BuildEligibilityContext собирает контекст проверки допуска заново:
// турнир, профиль и кошелёк запрашиваются параллельно. Недоступный
// кошелёк не фатален (баланс останется неизвестным), обрыв соединения —
// фатален.
func (s *JoinService) BuildEligibilityContext(ctx context.Context, tournamentID int, withWallet bool) (*models.EligibilityContext, error) {
	ec := &models.EligibilityContext{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.tournaments.GetTournament(gctx, tournamentID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTournamentUnavailable, err)
		}
		ec.Tournament = tournament
		return nil
	})

	g.Go(func() error {
		userID, err := s.identity.CurrentUserID(gctx)
		if err != nil {
			return err
		}
		ec.UserID = userID
		profile, err := s.identity.Profile(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
		}
		ec.Profile = profile
		return nil
	})

	if withWallet {
		g.Go(func() error {
			wallet, err := s.wallets.GetWallet(gctx)
			if err != nil {
				if errors.Is(err, api.ErrConnection) {
					return err
				}
				s.logger.Warn("wallet snapshot unavailable, balance treated as unknown",
					slog.Any("error", err))
				return nil
			}
			ec.Wallet = wallet
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ec, nil
}

// AttemptIndividualJoin — индивидуальная заявка: одно каноничное тело,
// без перебора вариантов.
func (s *JoinService) AttemptIndividualJoin(ctx context.Context, tournamentID int, inGameID string) models.JoinAttemptOutcome {
	s.logState(tournamentID, models.StateIdle, models.StateEvaluatingEligibility)
	ec, err := s.BuildEligibilityContext(ctx, tournamentID, true)
	if err != nil {
		return blockedFromError(err)
	}

	if result := s.eligibility.Evaluate(ec, EvaluateOptions{RequireWalletCheck: true}); !result.Allowed {
		return blockedFromEligibility(result)
	}

	s.logState(tournamentID, models.StateEvaluatingEligibility, models.StateNegotiatingPayload)
	body := buildIndividualJoinPayload(ec.Tournament, inGameID)
	updated, err := s.join.SubmitJoin(ctx, tournamentID, body)
	if err != nil {
		return blockedFromError(err)
	}

	return models.JoinAttemptOutcome{State: models.StateSucceeded, Tournament: updated}
}

// AttemptTeamJoin — командная заявка: допуск, локальная валидация команды,
// затем переговоры с эндпоинтом регистрации. Состояния попытки идут
// только вперёд, возврата из заблокированного состояния нет.
func (s *JoinService) AttemptTeamJoin(ctx context.Context, tournamentID int, teamID string) models.JoinAttemptOutcome {
	s.logState(tournamentID, models.StateIdle, models.StateEvaluatingEligibility)
	ec, err := s.BuildEligibilityContext(ctx, tournamentID, true)
	if err != nil {
		return blockedFromError(err)
	}

	if result := s.eligibility.Evaluate(ec, EvaluateOptions{RequireWalletCheck: true}); !result.Allowed {
		return blockedFromEligibility(result)
	}

	s.logState(tournamentID, models.StateEvaluatingEligibility, models.StateValidatingTeam)
	team, err := s.registry.GetOrHydrate(ctx, teamID)
	if err != nil {
		return blockedFromError(err)
	}

	validation := s.registry.Validate(team, ec.Tournament, ec.UserID, ValidateOptions{IncludeRegistrationCheck: true})
	if !validation.Valid {
		return models.JoinAttemptOutcome{
			State:   models.StateBlocked,
			Code:    validation.Code,
			Message: validation.Message,
		}
	}

	s.logState(tournamentID, models.StateValidatingTeam, models.StateNegotiatingPayload)
	candidates := CreateTeamJoinPayloadCandidates(ec.Tournament, team, team.Key)
	updated, err := s.submitTeamJoinRequest(ctx, tournamentID, candidates)
	if err != nil {
		return blockedFromError(err)
	}

	return models.JoinAttemptOutcome{State: models.StateSucceeded, Tournament: updated}
}

func (s *JoinService) logState(tournamentID int, from, to models.AttemptState) {
	s.logger.Debug("join attempt state changed",
		slog.Int("tournament_id", tournamentID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

// buildIndividualJoinPayload сливает серверный шаблон с игровым
// идентификатором. Выигрывает первый уже заполненный алиас; осмысленно
// заполненный ключ шаблона никогда не перезаписывается.
func buildIndividualJoinPayload(t *models.Tournament, inGameID string) map[string]any {
	body := map[string]any{}
	if tpl := t.Template(); tpl != nil {
		body = cloneMap(tpl)
	}

	for _, key := range inGameIDKeys {
		if value, ok := body[key]; ok && meaningfulValue(value) {
			return body
		}
	}
	for _, key := range inGameIDKeys {
		if _, ok := body[key]; ok {
			body[key] = inGameID
			return body
		}
	}
	body["in_game_id"] = inGameID
	return body
}

// CreateTeamJoinPayloadCandidates собирает упорядоченный список вариантов
// тела командной заявки: подсказанное поле, сетка алиасов по известным
// ключам, серверный шаблон, резервный вариант. Структурные дубликаты
// отбрасываются с сохранением порядка.
func CreateTeamJoinPayloadCandidates(t *models.Tournament, team *models.TeamRecord, identifier string) []map[string]any {
	var candidates []map[string]any
	seen := map[string]bool{}
	add := func(body map[string]any) {
		key := canonicalJSON(body)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, body)
	}

	// a. Явно объявленное конфигурацией турнира поле.
	if t != nil && t.TeamField != "" {
		add(map[string]any{t.TeamField: identifier})
	}

	// b. Каждый алиас идентификатора под каждым подходящим ключом.
	for _, alias := range teamAliases(team, identifier) {
		add(map[string]any{"team": alias})
		if n, ok := numericIDValue(alias); ok {
			add(map[string]any{"team_id": n})
			add(map[string]any{"teamId": n})
		} else if s := normalizeID(alias); s != "" {
			add(map[string]any{"team_slug": s})
			add(map[string]any{"teamSlug": s})
		}
	}

	// c. Серверный шаблон; ссылка на команду добавляется только если
	// шаблон её ещё не несёт.
	if t != nil {
		if tpl := t.Template(); tpl != nil {
			body := cloneMap(tpl)
			if !hasTeamReference(body) {
				key := "team"
				if t.TeamField != "" {
					key = t.TeamField
				}
				body[key] = identifier
			}
			add(body)
		}
	}

	// d. Резерв, если не собралось ничего.
	if len(candidates) == 0 {
		add(map[string]any{"team": identifier})
	}

	return candidates
}

// teamAliases — значения идентификатора команды в приоритетном порядке:
// сначала переданный идентификатор, затем пробы по сырой записи.
// Алиасы, сводящиеся к одному значению, схлопываются.
func teamAliases(team *models.TeamRecord, identifier string) []any {
	var aliases []any
	seen := map[string]bool{}
	add := func(value any) {
		id := normalizeID(value)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		aliases = append(aliases, value)
	}

	if identifier != "" {
		add(identifier)
	}
	if team != nil && team.Raw != nil {
		for _, field := range teamIdentifierFields {
			if value, ok := team.Raw[field]; ok && meaningfulValue(value) {
				add(value)
			}
		}
	}
	return aliases
}

// hasTeamReference определяет, несёт ли шаблон ссылку на команду:
// любой ключ со словом "team" и осмысленным значением.
func hasTeamReference(body map[string]any) bool {
	for key, value := range body {
		if strings.Contains(strings.ToLower(key), "team") && meaningfulValue(value) {
			return true
		}
	}
	return false
}

// shouldRetry классифицирует отказ. Повторяем только при 400/422 без
// stop-слов, когда текст пуст либо содержит shape-слово. Stop-слово
// всегда сильнее shape-слова.
func shouldRetry(status int, text string, keywords KeywordConfig) bool {
	if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
		return false
	}
	lowered := strings.ToLower(strings.TrimSpace(text))
	if containsAnyKeyword(lowered, keywords.Stop) {
		return false
	}
	if lowered == "" {
		return true
	}
	return containsAnyKeyword(lowered, keywords.Shape)
}

// submitTeamJoinRequest перебирает варианты строго последовательно.
// Терминальный отказ на варианте k гарантирует, что варианты k+1..n
// отправлены не будут. Исчерпание вариантов отдаёт последнюю ошибку.
func (s *JoinService) submitTeamJoinRequest(ctx context.Context, tournamentID int, candidates []map[string]any) (*models.Tournament, error) {
	attemptID := uuid.NewString()
	var lastErr error

	for i, body := range candidates {
		updated, err := s.join.SubmitJoin(ctx, tournamentID, body)
		if err == nil {
			s.logger.Info("join request accepted",
				slog.String("attempt_id", attemptID),
				slog.Int("tournament_id", tournamentID),
				slog.Int("candidate", i+1),
				slog.Int("candidates_total", len(candidates)),
			)
			return updated, nil
		}

		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			// Ответа не было вовсе: терминально, перебор прекращается.
			return nil, err
		}

		if shouldRetry(apiErr.Status, apiErr.Text(), s.keywords) {
			s.logger.Warn("join payload rejected by shape, trying next candidate",
				slog.String("attempt_id", attemptID),
				slog.Int("tournament_id", tournamentID),
				slog.Int("candidate", i+1),
				slog.Int("status", apiErr.Status),
				slog.String("error", apiErr.Text()),
			)
			lastErr = err
			continue
		}

		s.logger.Info("join request rejected",
			slog.String("attempt_id", attemptID),
			slog.Int("tournament_id", tournamentID),
			slog.Int("candidate", i+1),
			slog.Int("status", apiErr.Status),
			slog.String("error", apiErr.Text()),
		)
		return nil, err
	}

	return nil, lastErr
}

// blockedFromEligibility переносит вердикт проверки допуска в итог попытки.
func blockedFromEligibility(result models.EligibilityResult) models.JoinAttemptOutcome {
	return models.JoinAttemptOutcome{
		State:   models.StateBlocked,
		Code:    result.Code,
		Message: result.Message,
		Actions: result.Actions,
	}
}

// blockedFromError сводит ошибку сети или сервиса к заблокированному
// исходу. Текст серверного отказа доходит до пользователя без изменений.
func blockedFromError(err error) models.JoinAttemptOutcome {
	outcome := models.JoinAttemptOutcome{State: models.StateBlocked}

	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrConnection):
		outcome.Code = CodeConnectionError
		outcome.Message = "could not reach the tournament service"
	case errors.Is(err, ErrTeamNotFound):
		outcome.Code = CodeTeamNotFound
		outcome.Message = "team could not be found"
	case errors.As(err, &apiErr):
		outcome.Code = CodeTerminalJoinError
		outcome.Message = apiErr.Text()
		if outcome.Message == "" {
			outcome.Message = apiErr.Error()
		}
	default:
		outcome.Code = CodeTerminalJoinError
		outcome.Message = err.Error()
	}
	return outcome
}
