package services

import "errors"

// Общие ошибки, используемые сервисами клиента.
var (
	// Подготовка контекста
	ErrTournamentUnavailable = errors.New("tournament details are unavailable")
	ErrIdentityUnavailable   = errors.New("current user identity could not be resolved")

	// Реестр команд
	ErrTeamNotFound        = errors.New("team not found")
	ErrTeamHydrationFailed = errors.New("failed to load team details")
	ErrSearchSuperseded    = errors.New("team search superseded by a newer query")
)

// Коды локальной проверки команды. Эти отказы никогда не уходят в сеть
// и снимаются сменой выбранной команды.
const (
	CodeTeamNotFound      = "TEAM_NOT_FOUND"
	CodeNotCaptain        = "NOT_CAPTAIN"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeTeamSizeUnknown   = "TEAM_SIZE_UNKNOWN"
	CodeMembersMissing    = "MEMBERS_MISSING"
	CodeTeamTooSmall      = "TEAM_TOO_SMALL"
	CodeTeamTooLarge      = "TEAM_TOO_LARGE"
)

// Коды отказа проверки допуска.
const (
	ReasonNotEligible         = "not_eligible"
	ReasonAlreadyJoined       = "already_joined"
	ReasonLevelUnknown        = "level_unknown"
	ReasonLevelInsufficient   = "level_insufficient"
	ReasonRankUnknown         = "rank_unknown"
	ReasonRankTooLow          = "rank_too_low"
	ReasonRankTooHigh         = "rank_too_high"
	ReasonColorMismatch       = "color_mismatch"
	ReasonBalanceInsufficient = "balance_insufficient"
)

// Коды исходов переговоров с эндпоинтом регистрации.
// retryable_shape_error наружу не отдаётся: он означает лишь переход
// к следующему варианту тела заявки.
const (
	CodeRetryableShapeError = "retryable_shape_error"
	CodeTerminalJoinError   = "terminal_join_error"
	CodeConnectionError     = "connection_error"
)
