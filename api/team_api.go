package api

import (
	"context"
	"fmt"
	"net/url"
)

type ListTeamsParams struct {
	CaptainID string
	Search    string
}

// TeamAPI отдаёт команды сырыми JSON-объектами: набор полей у разных
// развёртываний различается, нормализация живёт в реестре команд.
type TeamAPI interface {
	ListTeams(ctx context.Context, params ListTeamsParams) ([]map[string]any, error)
	GetTeam(ctx context.Context, id string) (map[string]any, error)
}

type httpTeamAPI struct {
	client *Client
}

func NewTeamAPI(client *Client) TeamAPI {
	return &httpTeamAPI{client: client}
}

func (a *httpTeamAPI) ListTeams(ctx context.Context, params ListTeamsParams) ([]map[string]any, error) {
	query := url.Values{}
	if params.CaptainID != "" {
		query.Set("captain", params.CaptainID)
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var envelope struct {
		Teams []map[string]any `json:"teams"`
	}
	if err := a.client.get(ctx, "/teams", query, &envelope); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return envelope.Teams, nil
}

func (a *httpTeamAPI) GetTeam(ctx context.Context, id string) (map[string]any, error) {
	var team map[string]any
	if err := a.client.get(ctx, "/teams/"+url.PathEscape(id), nil, &team); err != nil {
		return nil, fmt.Errorf("get team %s: %w", id, err)
	}
	return team, nil
}
