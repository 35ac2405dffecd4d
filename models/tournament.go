package models

// ParticipationMode определяет, кто регистрируется в турнире: игрок или команда.
type ParticipationMode string

const (
	ModeSolo ParticipationMode = "solo"
	ModeTeam ParticipationMode = "team"
)

// Tournament представляет турнир так, как его отдаёт read-эндпоинт.
// Коллекции участников и команд намеренно нетипизированы: разные
// развёртывания сервиса вкладывают в них разные структуры, и клиент
// обходит их как произвольный JSON.
type Tournament struct {
	ID     int               `json:"id"`
	Name   string            `json:"name"`
	Mode   ParticipationMode `json:"participation_mode"`
	Status string            `json:"status,omitempty"`

	TeamSize *int     `json:"team_size,omitempty"`
	EntryFee *float64 `json:"entry_fee,omitempty"`
	IsFree   bool     `json:"is_free,omitempty"`

	RequiredVerificationLevel *int    `json:"required_verification_level,omitempty"`
	MinRank                   *int    `json:"min_rank,omitempty"`
	MaxRank                   *int    `json:"max_rank,omitempty"`
	RequiredColor             *string `json:"required_color,omitempty"`

	AlreadyJoined bool `json:"already_joined,omitempty"`

	Participants []any `json:"participants,omitempty"`
	Teams        []any `json:"teams,omitempty"`

	// Опциональные подсказки сервера для формирования тела заявки.
	JoinPayloadTemplate         map[string]any `json:"join_payload_template,omitempty"`
	RegistrationPayloadTemplate map[string]any `json:"registration_payload_template,omitempty"`
	TeamField                   string         `json:"team_field,omitempty"`
}

// Template возвращает серверный шаблон тела заявки, если он объявлен.
// join_payload_template имеет приоритет над registration_payload_template.
func (t *Tournament) Template() map[string]any {
	if len(t.JoinPayloadTemplate) > 0 {
		return t.JoinPayloadTemplate
	}
	if len(t.RegistrationPayloadTemplate) > 0 {
		return t.RegistrationPayloadTemplate
	}
	return nil
}

// Fee возвращает вступительный взнос, 0 если он не задан.
func (t *Tournament) Fee() float64 {
	if t.EntryFee == nil {
		return 0
	}
	return *t.EntryFee
}

// Paid сообщает, требует ли турнир оплату взноса.
func (t *Tournament) Paid() bool {
	return !t.IsFree && t.Fee() > 0
}
