package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Dosada05/tournament-join/models"
)

type TournamentAPI interface {
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
}

type httpTournamentAPI struct {
	client *Client
}

func NewTournamentAPI(client *Client) TournamentAPI {
	return &httpTournamentAPI{client: client}
}

func (a *httpTournamentAPI) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	var tournament models.Tournament
	path := "/tournaments/" + strconv.Itoa(id)
	if err := a.client.get(ctx, path, nil, &tournament); err != nil {
		return nil, fmt.Errorf("get tournament %d: %w", id, err)
	}
	return &tournament, nil
}
