package models

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// WalletSnapshot — срез баланса на момент открытия сценария регистрации.
// Balance может отсутствовать: кошелёк ещё не создан или сервис не ответил.
type WalletSnapshot struct {
	Balance *Money `json:"balance,omitempty"`
}

// Known сообщает, известен ли баланс.
func (w *WalletSnapshot) Known() bool {
	return w != nil && w.Balance != nil
}
