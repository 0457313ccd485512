package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/saeid-a/tradechat/internal/models"
)

func (c *Client) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	params := url.Values{"userId": []string{strconv.FormatInt(userID, 10)}}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/orders", params, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/orders/%d", id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CreateOrder(ctx context.Context, dto models.PostOrderDto) (*models.Order, error) {
	var order models.Order
	if err := c.doJSON(ctx, http.MethodPost, "/v1/orders", nil, dto, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, dto models.PatchOrderDto) (*models.Order, error) {
	var order models.Order
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/v1/orders/%d", id), nil, dto, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
