package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/Dosada05/tournament-join/api"
	"github.com/Dosada05/tournament-join/models"
)

// Поля, под которыми команды отдают свой идентификатор.
// Порядок — приоритет при сборке алиасов.
var teamIdentifierFields = []string{
	"identifier", "id", "team_id", "teamId", "slug", "uuid", "code", "external_id",
}

// Роли, означающие капитанство в списке участников команды.
var captainRoles = map[string]bool{
	"captain": true,
	"owner":   true,
	"leader":  true,
}

type ValidateOptions struct {
	IncludeRegistrationCheck bool
}

// TeamRegistry — реестр команд на время сессии. Записи ключуются
// нормализованным идентификатором, мутируются только слиянием при
// гидратации или выдаче списка, обе ветки проходят через normalizeTeam.
type TeamRegistry struct {
	teams  api.TeamAPI
	cache  *gocache.Cache
	group  singleflight.Group
	logger *slog.Logger

	mu sync.Mutex // сериализует read-modify-write слияния записей

	searchMu     sync.Mutex
	cancelSearch context.CancelFunc
}

func NewTeamRegistry(teams api.TeamAPI, logger *slog.Logger) *TeamRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamRegistry{
		teams: teams,
		// Записи живут до конца сессии, фоновая очистка не нужна.
		cache:  gocache.New(gocache.NoExpiration, 0),
		logger: logger,
	}
}

// Lookup возвращает запись без похода в сеть.
func (r *TeamRegistry) Lookup(teamID string) (*models.TeamRecord, bool) {
	value, ok := r.cache.Get(normalizeID(teamID))
	if !ok {
		return nil, false
	}
	record, ok := value.(*models.TeamRecord)
	return record, ok
}

// GetOrHydrate возвращает запись с данными об участниках, при
// необходимости загружая детали. Конкурентные вызовы с одним teamID
// делят один сетевой запрос. Неудачная гидратация не портит кэш:
// прежняя запись сохраняется и возвращается с предупреждением в логе.
func (r *TeamRegistry) GetOrHydrate(ctx context.Context, teamID string) (*models.TeamRecord, error) {
	key := normalizeID(teamID)
	if key == "" {
		return nil, ErrTeamNotFound
	}

	if record, ok := r.Lookup(key); ok && record.Hydrated {
		return record, nil
	}

	value, err, _ := r.group.Do("hydrate:"+key, func() (any, error) {
		raw, err := r.teams.GetTeam(ctx, key)
		if err != nil {
			return nil, err
		}
		return r.merge(key, raw), nil
	})
	if err != nil {
		if record, ok := r.Lookup(key); ok {
			r.logger.Warn("team hydration failed, keeping cached record",
				slog.String("team", key),
				slog.Any("error", err),
			)
			return record, nil
		}
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, key)
		}
		return nil, fmt.Errorf("%w: %w", ErrTeamHydrationFailed, err)
	}
	return value.(*models.TeamRecord), nil
}

// ListCaptained возвращает команды, которыми руководит пользователь,
// с серверной фильтрацией по строке поиска. Новый запрос отменяет
// предыдущий ещё не завершившийся ("последний запрос побеждает").
// Каждая команда из выдачи сливается в кэш той же нормализацией,
// что и при гидратации.
func (r *TeamRegistry) ListCaptained(ctx context.Context, userID, searchTerm string) ([]*models.TeamRecord, error) {
	r.searchMu.Lock()
	if r.cancelSearch != nil {
		r.cancelSearch()
	}
	searchCtx, cancel := context.WithCancel(ctx)
	r.cancelSearch = cancel
	r.searchMu.Unlock()

	rawTeams, err := r.teams.ListTeams(searchCtx, api.ListTeamsParams{
		CaptainID: userID,
		Search:    searchTerm,
	})
	if err != nil {
		if searchCtx.Err() != nil && ctx.Err() == nil {
			return nil, ErrSearchSuperseded
		}
		return nil, fmt.Errorf("list captained teams: %w", err)
	}

	records := make([]*models.TeamRecord, 0, len(rawTeams))
	for _, raw := range rawTeams {
		key := teamKeyFromRaw(raw)
		if key == "" {
			continue
		}
		records = append(records, r.merge(key, raw))
	}
	return records, nil
}

// Validate выполняет упорядоченные проверки выбранной команды и
// останавливается на первой неудачной. Проблемы не агрегируются.
// Капитанство всегда пересчитывается от переданного userID.
func (r *TeamRegistry) Validate(team *models.TeamRecord, tournament *models.Tournament, userID string, opts ValidateOptions) models.TeamValidationResult {
	if team == nil {
		return invalid(CodeTeamNotFound, "team could not be found")
	}

	if !isCaptain(team, userID) {
		return invalid(CodeNotCaptain, "only the team captain can register the team")
	}

	if opts.IncludeRegistrationCheck && isRegisteredInTournament(team, tournament) {
		return invalid(CodeAlreadyRegistered, "this team is already registered in the tournament")
	}

	if team.MemberCount == nil {
		return invalid(CodeTeamSizeUnknown, "team roster has not been loaded yet")
	}
	if *team.MemberCount == 0 {
		return invalid(CodeMembersMissing, "the team has no members")
	}

	if tournament != nil && tournament.TeamSize != nil && *tournament.TeamSize > 0 {
		required := *tournament.TeamSize
		switch {
		case *team.MemberCount < required:
			return invalid(CodeTeamTooSmall,
				fmt.Sprintf("the tournament requires %d members, the team has %d", required, *team.MemberCount))
		case *team.MemberCount > required:
			return invalid(CodeTeamTooLarge,
				fmt.Sprintf("the tournament requires %d members, the team has %d", required, *team.MemberCount))
		}
	}

	return models.TeamValidationResult{Valid: true}
}

// merge сливает сырой ответ сервера в кэш и возвращает итоговую запись.
func (r *TeamRegistry) merge(key string, raw map[string]any) *models.TeamRecord {
	incoming := normalizeTeam(key, raw)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.Lookup(key)
	if !ok {
		r.cache.Set(key, incoming, gocache.NoExpiration)
		return incoming
	}

	merged := mergeTeamRecords(existing, incoming)
	r.cache.Set(key, merged, gocache.NoExpiration)
	return merged
}

// normalizeTeam приводит сырой JSON команды к записи реестра.
func normalizeTeam(key string, raw map[string]any) *models.TeamRecord {
	record := &models.TeamRecord{Key: key, Raw: raw}

	if value, ok := firstFieldValue(raw, "name", "title", "team_name"); ok {
		if name, ok := value.(string); ok {
			record.Name = name
		}
	}

	members, listed := normalizeMembers(raw)
	record.Members = members
	if listed {
		// Пустой список — это знание "участников нет", а не его отсутствие.
		count := len(members)
		record.MemberCount = &count
	} else if value, ok := firstFieldValue(raw, "member_count", "members_count", "player_count"); ok {
		if n, ok := numericIDValue(value); ok {
			count := int(n)
			record.MemberCount = &count
		}
	}
	record.Hydrated = record.MemberCount != nil

	record.CaptainID = resolveCaptainID(raw, record.Members)
	return record
}

// normalizeMembers достаёт список участников из любого известного поля.
// Второй результат сообщает, был ли список вообще объявлен в ответе.
func normalizeMembers(raw map[string]any) ([]models.TeamMember, bool) {
	var list []any
	found := false
	for _, field := range []string{"members", "players", "roster", "users"} {
		if value, ok := raw[field]; ok {
			if typed, ok := value.([]any); ok {
				list = typed
				found = true
				break
			}
		}
	}
	if !found {
		return nil, false
	}

	members := make([]models.TeamMember, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		member := models.TeamMember{}
		if value, ok := firstFieldValue(entry, "user_id", "userId", "id", "uuid"); ok {
			member.ID = normalizeID(value)
		}
		if value, ok := firstFieldValue(entry, "nickname", "name", "username"); ok {
			if name, ok := value.(string); ok {
				member.Name = name
			}
		}
		if value, ok := entry["role"].(string); ok {
			member.Role = value
			if captainRoles[strings.ToLower(value)] {
				member.Captain = true
			}
		}
		for _, flag := range []string{"is_captain", "isCaptain", "captain"} {
			if value, ok := entry[flag].(bool); ok && value {
				member.Captain = true
			}
		}
		members = append(members, member)
	}
	return members, true
}

// resolveCaptainID — упорядоченные пробы: прямое поле, вложенный объект
// капитана, участник с капитанской ролью.
func resolveCaptainID(raw map[string]any, members []models.TeamMember) string {
	if value, ok := firstFieldValue(raw, "captain_id", "captainId", "owner_id"); ok {
		if id := normalizeID(value); id != "" {
			return id
		}
	}
	if nested, ok := raw["captain"].(map[string]any); ok {
		if value, ok := firstFieldValue(nested, "user_id", "userId", "id", "uuid"); ok {
			if id := normalizeID(value); id != "" {
				return id
			}
		}
	}
	for _, member := range members {
		if member.Captain && member.ID != "" {
			return member.ID
		}
	}
	return ""
}

// mergeTeamRecords применяет правило "данные об участниках не моложе
// последней гидратации": состав перезаписывается только когда новая
// запись его действительно принесла.
func mergeTeamRecords(existing, incoming *models.TeamRecord) *models.TeamRecord {
	merged := *existing

	if incoming.Name != "" {
		merged.Name = incoming.Name
	}
	if incoming.CaptainID != "" {
		merged.CaptainID = incoming.CaptainID
	}
	if incoming.MemberCount != nil {
		merged.MemberCount = incoming.MemberCount
		merged.Members = incoming.Members
		merged.Hydrated = true
	}

	raw := cloneMap(existing.Raw)
	for key, value := range incoming.Raw {
		raw[key] = value
	}
	merged.Raw = raw
	return &merged
}

func isCaptain(team *models.TeamRecord, userID string) bool {
	if userID == "" {
		return false
	}
	if team.CaptainID != "" {
		return team.CaptainID == userID
	}
	for _, member := range team.Members {
		if member.Captain && member.ID == userID {
			return true
		}
	}
	return false
}

// isRegisteredInTournament проверяет регистрацию локально: по коллекциям
// турнира и по спискам регистраций в сырой записи команды.
func isRegisteredInTournament(team *models.TeamRecord, tournament *models.Tournament) bool {
	if tournament == nil {
		return false
	}

	aliases := teamAliasSet(team)
	for _, node := range tournament.Teams {
		if containsTeamReference(node, aliases, 1) {
			return true
		}
	}
	for _, node := range tournament.Participants {
		if containsTeamReference(node, aliases, 1) {
			return true
		}
	}

	if team.Raw != nil {
		for _, flag := range []string{"already_registered", "is_registered"} {
			if value, ok := team.Raw[flag].(bool); ok && value {
				return true
			}
		}
		tournamentID := normalizeID(float64(tournament.ID))
		if value, ok := firstFieldValue(team.Raw, "tournaments", "registrations", "tournament_ids"); ok {
			if list, ok := value.([]any); ok {
				for _, item := range list {
					if normalizeID(item) == tournamentID {
						return true
					}
					if entry, ok := item.(map[string]any); ok {
						if value, ok := firstFieldValue(entry, "tournament_id", "tournamentId", "id"); ok && normalizeID(value) == tournamentID {
							return true
						}
					}
				}
			}
		}
	}
	return false
}

var teamReferenceFields = []string{"team_id", "teamId", "id", "slug", "uuid", "identifier"}

func containsTeamReference(node any, aliases map[string]bool, depth int) bool {
	if depth > maxIdentitySearchDepth {
		return false
	}
	switch v := node.(type) {
	case map[string]any:
		for _, field := range teamReferenceFields {
			if value, ok := v[field]; ok && aliases[normalizeID(value)] {
				return true
			}
		}
		if nested, ok := v["team"]; ok {
			if containsTeamReference(nested, aliases, depth+1) {
				return true
			}
			if aliases[normalizeID(nested)] {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if containsTeamReference(item, aliases, depth) {
				return true
			}
		}
	}
	return false
}

// teamAliasSet — нормализованные значения всех известных алиасов
// идентификатора команды.
func teamAliasSet(team *models.TeamRecord) map[string]bool {
	aliases := map[string]bool{}
	if team.Key != "" {
		aliases[team.Key] = true
	}
	for _, field := range teamIdentifierFields {
		if value, ok := team.Raw[field]; ok && meaningfulValue(value) {
			if id := normalizeID(value); id != "" {
				aliases[id] = true
			}
		}
	}
	return aliases
}

func teamKeyFromRaw(raw map[string]any) string {
	if value, ok := firstFieldValue(raw, teamIdentifierFields...); ok {
		return normalizeID(value)
	}
	return ""
}

func invalid(code, message string) models.TeamValidationResult {
	return models.TeamValidationResult{Valid: false, Code: code, Message: message}
}
