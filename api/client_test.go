package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotContentType string
	r := chi.NewRouter()
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL, "tok-123", time.Second, testLogger())
	err := client.postJSON(context.Background(), "/echo", map[string]any{"a": 1}, nil)

	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
	require.NotEmpty(t, gotRequestID)
	require.Equal(t, "application/json", gotContentType)
}

func TestClient_DecodesSuccessBody(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/thing", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "name": "Spring Clash"}`))
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL, "", time.Second, testLogger())
	var out struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, client.get(context.Background(), "/thing", nil, &out))
	require.Equal(t, 7, out.ID)
	require.Equal(t, "Spring Clash", out.Name)
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		contentType string
		wantText    string
		wantCode    string
	}{
		{
			name:     "structured message",
			status:   400,
			body:     `{"message": "team field is required"}`,
			wantText: "team field is required",
		},
		{
			name:     "message with detail",
			status:   422,
			body:     `{"message": "validation failed", "detail": "unknown field teamId"}`,
			wantText: "validation failed unknown field teamId",
		},
		{
			name:     "error key and code",
			status:   403,
			body:     `{"error": "forbidden", "code": "FORBIDDEN"}`,
			wantText: "forbidden",
			wantCode: "FORBIDDEN",
		},
		{
			name:     "field errors map",
			status:   422,
			body:     `{"errors": {"team_id": ["must be an integer"]}}`,
			wantText: "team_id: must be an integer",
		},
		{
			name:        "plain text",
			status:      400,
			body:        "bad request",
			contentType: "text/plain",
			wantText:    "bad request",
		},
		{
			name:     "empty body",
			status:   422,
			body:     "",
			wantText: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "", time.Second, testLogger())
			err := client.get(context.Background(), "/whatever", nil, nil)

			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.status, apiErr.Status)
			require.Equal(t, tc.wantText, apiErr.Text())
			if tc.wantCode != "" {
				require.Equal(t, tc.wantCode, apiErr.Code)
			}
		})
	}
}

func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // адрес известен, но никто не слушает

	client := NewClient(server.URL, "", 500*time.Millisecond, testLogger())
	err := client.get(context.Background(), "/thing", nil, nil)

	require.ErrorIs(t, err, ErrConnection)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr), "no APIError without an HTTP response")
}
