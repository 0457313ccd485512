package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/saeid-a/tradechat/internal/models"
)

func (c *Client) CreateUser(ctx context.Context, dto models.PostUserDto) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/v1/users", nil, dto, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/users/%d", id), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	var updated models.User
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/v1/users/%d", user.ID), nil, user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/users/%d", id), nil, nil, nil)
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	users := []models.User{}
	params := url.Values{"q": []string{query}}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/users", params, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
