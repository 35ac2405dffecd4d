package api

import (
	"context"
	"strconv"

	"github.com/Dosada05/tournament-join/models"
)

// JoinAPI отправляет заявку на регистрацию. Ошибка возвращается без
// обёртки: переговорщику нужен исходный *APIError со статусом и текстом,
// чтобы классифицировать отказ.
type JoinAPI interface {
	SubmitJoin(ctx context.Context, tournamentID int, body map[string]any) (*models.Tournament, error)
}

type httpJoinAPI struct {
	client *Client
}

func NewJoinAPI(client *Client) JoinAPI {
	return &httpJoinAPI{client: client}
}

func (a *httpJoinAPI) SubmitJoin(ctx context.Context, tournamentID int, body map[string]any) (*models.Tournament, error) {
	var updated models.Tournament
	path := "/tournaments/" + strconv.Itoa(tournamentID) + "/join"
	if err := a.client.postJSON(ctx, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
