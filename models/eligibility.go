package models

// EligibilityContext собирается заново при каждом открытии сценария
// регистрации и нигде не сохраняется. UserID нормализован в строку,
// потому что бэкенды отдают идентификаторы то числом, то строкой.
type EligibilityContext struct {
	Tournament *Tournament
	UserID     string
	Profile    *Profile
	Wallet     *WalletSnapshot
}

// Action — подсказанное пользователю действие при отказе
// (например, ссылка на пополнение кошелька).
type Action struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
}

const (
	ActionTopUp   = "top_up"
	ActionDismiss = "dismiss"
)

// EligibilityResult — вердикт с единственной причиной отказа.
// Причины не агрегируются: пользователю показывают первый по порядку блокер.
type EligibilityResult struct {
	Allowed bool     `json:"allowed"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}
