package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/saeid-a/tradechat/internal/models"
)

// ListItems returns the catalog. supplierID 0 lists every supplier.
func (c *Client) ListItems(ctx context.Context, supplierID int64) ([]models.Item, error) {
	items := []models.Item{}
	var params url.Values
	if supplierID > 0 {
		params = url.Values{"supplierId": []string{strconv.FormatInt(supplierID, 10)}}
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/items", params, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/items/%d", id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) CreateItem(ctx context.Context, dto models.PostItemDto) (*models.Item, error) {
	var item models.Item
	if err := c.doJSON(ctx, http.MethodPost, "/v1/items", nil, dto, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	var updated models.Item
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/v1/items/%d", item.ID), nil, item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/v1/items/%d", id), nil, nil, nil)
}
