package api

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-join/models"
)

type WalletAPI interface {
	GetWallet(ctx context.Context) (*models.WalletSnapshot, error)
}

type httpWalletAPI struct {
	client *Client
}

func NewWalletAPI(client *Client) WalletAPI {
	return &httpWalletAPI{client: client}
}

func (a *httpWalletAPI) GetWallet(ctx context.Context) (*models.WalletSnapshot, error) {
	var wallet models.WalletSnapshot
	if err := a.client.get(ctx, "/wallet", nil, &wallet); err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &wallet, nil
}
