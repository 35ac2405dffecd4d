package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-join/api"
	"github.com/Dosada05/tournament-join/models"
)

// simulatedBackend — имитация сервиса турниров, принимающего командную
// ссылку только в виде {"team_id": <число>}.
type simulatedBackend struct {
	joinCalls int32
}

func (b *simulatedBackend) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                 1,
			"nickname":           "owl_captain",
			"verification_level": 2,
			"rank":               200,
		})
	})

	r.Get("/wallet", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"balance": map[string]any{"amount": 1000.0, "currency": "USD"},
		})
	})

	r.Get("/tournaments/7", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                          7,
			"name":                        "Spring Clash",
			"participation_mode":          "team",
			"team_size":                   5,
			"required_verification_level": 2,
			"min_rank":                    10,
			"max_rank":                    500,
		})
	})

	r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"teams": []any{summaryTeam()},
		})
	})

	r.Get("/teams/42", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, detailedTeam())
	})

	r.Post("/tournaments/7/join", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.joinCalls, 1)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
			return
		}
		if _, ok := body["team_id"].(float64); !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "team field is required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     7,
			"name":   "Spring Clash",
			"status": "registration",
			"teams":  []any{map[string]any{"team_id": 42}},
		})
	})

	return r
}

func summaryTeam() map[string]any {
	return map[string]any{"id": 42, "name": "Night Owls", "slug": "night-owls"}
}

func detailedTeam() map[string]any {
	return map[string]any{
		"id":   42,
		"name": "Night Owls",
		"slug": "night-owls",
		"members": []any{
			map[string]any{"user_id": 1, "role": "captain"},
			map[string]any{"user_id": 2, "role": "player"},
			map[string]any{"user_id": 3, "role": "player"},
			map[string]any{"user_id": 4, "role": "player"},
			map[string]any{"user_id": 5, "role": "player"},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newIntegrationService(t *testing.T, baseURL string) (*JoinService, *TeamRegistry) {
	t.Helper()
	client := api.NewClient(baseURL, "session-token", 5*time.Second, testLogger())
	identity := NewIdentityService("", api.NewUserAPI(client), testLogger())
	registry := NewTeamRegistry(api.NewTeamAPI(client), testLogger())
	svc := NewJoinService(
		api.NewTournamentAPI(client),
		api.NewJoinAPI(client),
		api.NewWalletAPI(client),
		identity,
		registry,
		NewEligibilityService("/wallet/top-up"),
		KeywordConfig{},
		testLogger(),
	)
	return svc, registry
}

func TestAttemptTeamJoin_AgainstSimulatedBackend(t *testing.T) {
	backend := &simulatedBackend{}
	server := httptest.NewServer(backend.router())
	defer server.Close()

	svc, registry := newIntegrationService(t, server.URL)

	// Поиск команд капитана кладёт сводку в кэш; гидратация докачает состав.
	records, err := registry.ListCaptained(context.Background(), "1", "owls")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.False(t, records[0].Hydrated)

	outcome := svc.AttemptTeamJoin(context.Background(), 7, "42")

	require.True(t, outcome.Succeeded(), "outcome: %+v", outcome)
	require.Equal(t, "registration", outcome.Tournament.Status)
	// Первый вариант {"team":"42"} отбит по форме, второй {"team_id":42} принят.
	require.EqualValues(t, 2, atomic.LoadInt32(&backend.joinCalls))
}

func TestAttemptTeamJoin_TerminalRejectionFromBackend(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})
	})
	r.Get("/wallet", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	r.Get("/tournaments/7", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "participation_mode": "team"})
	})
	r.Get("/teams/42", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, detailedTeam())
	})
	var joinCalls int32
	r.Post("/tournaments/7/join", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&joinCalls, 1)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "tournament is at full capacity",
		})
	})
	server := httptest.NewServer(r)
	defer server.Close()

	svc, _ := newIntegrationService(t, server.URL)
	outcome := svc.AttemptTeamJoin(context.Background(), 7, "42")

	require.Equal(t, models.StateBlocked, outcome.State)
	require.Equal(t, CodeTerminalJoinError, outcome.Code)
	require.Equal(t, "tournament is at full capacity", outcome.Message)
	require.EqualValues(t, 1, atomic.LoadInt32(&joinCalls),
		"a substantive rejection must stop the candidate loop at once")
}
