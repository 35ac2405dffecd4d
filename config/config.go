package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры клиента.
type Config struct {
	APIBaseURL     string
	AccessToken    string
	RequestTimeout time.Duration
	WalletTopUpURL string

	// Переопределяемые словари эвристики классификации отказов
	// эндпоинта регистрации. Пустые списки означают значения по умолчанию.
	StopKeywords  []string
	ShapeKeywords []string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL environment variable is not set")
	}

	token := os.Getenv("ACCESS_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN environment variable is not set")
	}

	timeoutStr := os.Getenv("REQUEST_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		timeoutStr = "10"
	}
	timeoutSeconds, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS environment variable: %w", err)
	}
	if timeoutSeconds <= 0 || timeoutSeconds > 300 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be between 1 and 300, got %d", timeoutSeconds)
	}

	topUpURL := os.Getenv("WALLET_TOPUP_URL")
	if topUpURL == "" {
		topUpURL = "/wallet/top-up"
	}

	cfg := &Config{
		APIBaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken:    token,
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
		WalletTopUpURL: topUpURL,
		StopKeywords:   splitKeywords(os.Getenv("JOIN_STOP_KEYWORDS")),
		ShapeKeywords:  splitKeywords(os.Getenv("JOIN_SHAPE_KEYWORDS")),
	}

	return cfg, nil
}

func splitKeywords(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if keyword := strings.ToLower(strings.TrimSpace(part)); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
