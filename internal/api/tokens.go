package api

import (
	"context"
	"net/http"

	"github.com/saeid-a/tradechat/internal/models"
)

func (c *Client) CreateToken(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	body := models.TokenRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tokens", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
