package models

// Profile — профиль текущего пользователя из identity-сервиса.
type Profile struct {
	ID                int     `json:"id"`
	Nickname          string  `json:"nickname,omitempty"`
	VerificationLevel *int    `json:"verification_level,omitempty"`
	Rank              *int    `json:"rank,omitempty"`
	Color             *string `json:"color,omitempty"`
}
