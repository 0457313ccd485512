package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/saeid-a/tradechat/internal/models"
)

// ListConversations returns the user's conversations with participants and
// last message expanded.
func (c *Client) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	conversations := []models.Conversation{}
	params := url.Values{
		"userId":   []string{strconv.FormatInt(userID, 10)},
		"expanded": []string{"true"},
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/conversations", params, nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *Client) CreateConversation(ctx context.Context, participantIDs []int64) (*models.Conversation, error) {
	var conversation models.Conversation
	body := models.PostConversationDto{ParticipantIDs: participantIDs}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/conversations", nil, body, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	messages := []models.Message{}
	path := fmt.Sprintf("/v1/conversations/%d/messages", conversationID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	var message models.Message
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/messages/%d", id), nil, nil, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
