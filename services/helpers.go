package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// --- Общие хелперы для работы с разнотипными JSON-значениями ---

// normalizeID приводит идентификатор произвольного JSON-типа к строке.
// Числа без дробной части теряют ".0": 42 и "42" — один идентификатор.
func normalizeID(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// meaningfulValue сообщает, несёт ли значение полезную нагрузку.
// Пустые строки, nil, нули и false считаются заглушками шаблона.
func meaningfulValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case bool:
		return v
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// numericIDValue пытается представить идентификатор числом.
// Строки из одних цифр считаются числовыми: сервер мог просто
// сериализовать число в строку.
func numericIDValue(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
		return 0, false
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// canonicalJSON сериализует тело заявки в каноничную строку:
// encoding/json упорядочивает ключи map-значений, поэтому две структурно
// одинаковые карты дают одинаковую строку независимо от порядка вставки.
func canonicalJSON(body map[string]any) string {
	encoded, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

// firstFieldValue — упорядоченные пробы по известным именам поля:
// возвращается первое осмысленное значение.
func firstFieldValue(payload map[string]any, fields ...string) (any, bool) {
	for _, field := range fields {
		if value, ok := payload[field]; ok && meaningfulValue(value) {
			return value, true
		}
	}
	return nil, false
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
