package api

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-join/models"
)

type UserAPI interface {
	GetProfile(ctx context.Context) (*models.Profile, error)
}

type httpUserAPI struct {
	client *Client
}

func NewUserAPI(client *Client) UserAPI {
	return &httpUserAPI{client: client}
}

func (a *httpUserAPI) GetProfile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := a.client.get(ctx, "/users/me", nil, &profile); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}
