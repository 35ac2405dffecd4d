package models

// AttemptState — состояние одной попытки регистрации. Переходы только
// вперёд: новая попытка всегда начинается с Idle.
type AttemptState string

const (
	StateIdle                  AttemptState = "idle"
	StateEvaluatingEligibility AttemptState = "evaluating_eligibility"
	StateValidatingTeam        AttemptState = "validating_team"
	StateNegotiatingPayload    AttemptState = "negotiating_payload"
	StateSucceeded             AttemptState = "succeeded"
	StateBlocked               AttemptState = "blocked"
)

// JoinAttemptOutcome — итог попытки регистрации. При успехе Tournament
// содержит обновлённое представление турнира с сервера; при блокировке
// Code и Message описывают причину, Actions — подсказанные действия.
type JoinAttemptOutcome struct {
	State      AttemptState `json:"state"`
	Tournament *Tournament  `json:"tournament,omitempty"`
	Code       string       `json:"code,omitempty"`
	Message    string       `json:"message,omitempty"`
	Actions    []Action     `json:"actions,omitempty"`
}

// Succeeded сообщает, завершилась ли попытка регистрацией.
func (o JoinAttemptOutcome) Succeeded() bool {
	return o.State == StateSucceeded
}
