package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestTournamentStream_ReceivesRoomMessages(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/tournaments/7", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.WriteJSON(StreamMessage{
			Type:    MessageBracketUpdated,
			Payload: []byte(`{"round": 1}`),
			RoomID:  "7",
		})
		require.NoError(t, err)

		// Держим соединение, пока клиент не закроется.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123", time.Second, testLogger())
	stream := NewTournamentStream(client, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := stream.Watch(ctx, 7)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		require.Equal(t, MessageBracketUpdated, msg.Type)
		require.Equal(t, "7", msg.RoomID)
		require.JSONEq(t, `{"round": 1}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received from the tournament room")
	}
	require.Equal(t, "Bearer tok-123", gotAuth)

	// Отмена контекста закрывает канал.
	cancel()
	select {
	case _, open := <-messages:
		require.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("message channel was not closed after cancellation")
	}
}

func TestTournamentStream_DialFailureIsConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, "", time.Second, testLogger())
	stream := NewTournamentStream(client, testLogger())

	_, err := stream.Watch(context.Background(), 7)
	require.ErrorIs(t, err, ErrConnection)
}

func TestToWebsocketURL(t *testing.T) {
	require.Equal(t, "ws://api.local", toWebsocketURL("http://api.local"))
	require.Equal(t, "wss://api.local", toWebsocketURL("https://api.local"))
}
