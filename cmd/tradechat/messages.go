package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/spf13/cobra"
)

const echoTimeout = 10 * time.Second

var messagesCmd = &cobra.Command{
	Use:     "messages",
	Aliases: []string{"msg"},
	Short:   "Read and send messages",
}

var messagesListCmd = &cobra.Command{
	Use:   "list <conversationId>",
	Short: "Show a conversation's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, err := parseID(args[0], "conversation id")
		if err != nil {
			return err
		}
		if _, err := app.me(); err != nil {
			return err
		}

		messages, err := app.chat.OpenConversation(cmd.Context(), conversationID)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(messages))
		for _, m := range messages {
			rows = append(rows, messageRow(m, conversationID))
		}
		return render(messages, []string{"ID", "From", "At", "Message"}, rows)
	},
}

var messagesSendCmd = &cobra.Command{
	Use:   "send <conversationId> <text>",
	Short: "Send a message and wait for the server to confirm it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, err := parseID(args[0], "conversation id")
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")

		var confirmed models.Message
		err = app.withChannel(cmd.Context(), func(ctx context.Context) error {
			if _, err := app.chat.OpenConversation(ctx, conversationID); err != nil {
				return err
			}
			pending, err := app.chat.SendMessage(ctx, text, conversationID)
			if err != nil {
				return err
			}
			confirmed, err = waitForEcho(ctx, conversationID, pending.ClientKey)
			return err
		})
		if err != nil {
			return err
		}
		return render(confirmed, []string{"ID", "From", "At", "Message"},
			[][]string{messageRow(confirmed, conversationID)})
	},
}

// waitForEcho blocks until the pending message with clientKey is replaced
// by the server's copy.
func waitForEcho(ctx context.Context, conversationID int64, clientKey string) (models.Message, error) {
	updates, cancel := app.chat.History().Subscribe()
	defer cancel()
	timeout := time.NewTimer(echoTimeout)
	defer timeout.Stop()

	for {
		select {
		case history := <-updates:
			for _, m := range history[conversationID] {
				if m.ClientKey == clientKey && !m.Pending() {
					return m, nil
				}
			}
		case <-timeout.C:
			return models.Message{}, errors.New("message sent but not confirmed by the server")
		case <-ctx.Done():
			return models.Message{}, ctx.Err()
		}
	}
}

func messageRow(m models.Message, conversationID int64) []string {
	from := fmt.Sprint(m.SenderID)
	if c, ok := app.chat.Conversations().Get(conversationID); ok {
		for _, u := range c.Users {
			if u.ID == m.SenderID && u.Name != "" {
				from = u.Name
			}
		}
	}
	id := fmt.Sprint(m.ID)
	if m.Pending() {
		id = "pending"
	}
	return []string{id, from, formatTime(m.CreatedAt), m.Content}
}

func init() {
	messagesCmd.AddCommand(messagesListCmd, messagesSendCmd)
	rootCmd.AddCommand(messagesCmd)
}
