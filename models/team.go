package models

type TeamMember struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Captain bool   `json:"captain,omitempty"`
}

// TeamRecord — запись реестра команд. Key — нормализованный идентификатор,
// единственный стабильный ключ записи. Raw хранит последний слитый ответ
// сервера: из него извлекаются алиасы идентификатора при сборке заявки.
type TeamRecord struct {
	Key       string         `json:"key"`
	Name      string         `json:"name,omitempty"`
	CaptainID string         `json:"captain_id,omitempty"`
	Members   []TeamMember   `json:"members,omitempty"`
	// MemberCount известен только после гидратации либо если список
	// пришёл уже в сводке; nil означает "ещё не знаем".
	MemberCount *int           `json:"member_count,omitempty"`
	Hydrated    bool           `json:"hydrated"`
	Raw         map[string]any `json:"-"`
}

// TeamValidationResult — результат локальной проверки выбранной команды.
// Пересчитывается при каждой смене выбора, никогда не кэшируется.
type TeamValidationResult struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
