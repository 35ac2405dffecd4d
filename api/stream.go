package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Типы сообщений комнаты турнира.
const (
	MessageBracketUpdated          = "BRACKET_UPDATED"
	MessageMatchUpdated            = "MATCH_UPDATED"
	MessageTournamentStatusUpdated = "TOURNAMENT_STATUS_UPDATED"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamMessage — сообщение из комнаты турнира.
type StreamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	RoomID  string          `json:"room_id,omitempty"`
}

// TournamentStream — клиент live-ленты турнира. Подписка живёт до отмены
// контекста или закрытия соединения сервером.
type TournamentStream struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

func NewTournamentStream(client *Client, logger *slog.Logger) *TournamentStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &TournamentStream{
		baseURL: client.BaseURL(),
		token:   client.Token(),
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// Watch подключается к комнате турнира и отдаёт сообщения в канал.
// Канал закрывается при отмене контекста или обрыве соединения.
func (s *TournamentStream) Watch(ctx context.Context, tournamentID int) (<-chan StreamMessage, error) {
	wsURL := toWebsocketURL(s.baseURL) + "/ws/tournaments/" + strconv.Itoa(tournamentID)

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, _, err := s.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, wsURL, err)
	}

	messages := make(chan StreamMessage)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Пинги и закрытие по отмене контекста.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				deadline := time.Now().Add(writeWait)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	go func() {
		defer close(messages)
		defer conn.Close()
		for {
			var msg StreamMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Warn("tournament stream closed",
						slog.Int("tournament_id", tournamentID),
						slog.Any("error", err),
					)
				}
				return
			}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return messages, nil
}

func toWebsocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}
