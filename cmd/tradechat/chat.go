package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/store"
	"github.com/spf13/cobra"
)

var (
	tailConversationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	tailOrderStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Live chat",
}

var chatTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stay connected and print messages and order changes as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := app.me()
		if err != nil {
			return err
		}
		if _, err := app.chat.Conversations().FetchAll(cmd.Context(), me.ID); err != nil {
			return err
		}
		if _, err := app.chat.Orders().FetchAll(cmd.Context(), me.ID); err != nil {
			return err
		}

		return app.withChannel(cmd.Context(), func(ctx context.Context) error {
			fmt.Println("connected, press Ctrl+C to stop")
			tail(ctx)
			return nil
		})
	},
}

// tail prints confirmed messages and order revisions that were not present
// when it started.
func tail(ctx context.Context) {
	history, cancelHistory := app.chat.History().Subscribe()
	defer cancelHistory()
	orders, cancelOrders := app.chat.Orders().Subscribe()
	defer cancelOrders()

	seenMessages := make(map[int64]bool)
	seenOrders := make(map[int64]time.Time)
	markMessages(<-history, seenMessages)
	for messageID, order := range <-orders {
		seenOrders[messageID] = order.UpdatedAt
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-history:
			for conversationID, list := range snapshot {
				for _, m := range list {
					if m.Pending() || seenMessages[m.ID] {
						continue
					}
					seenMessages[m.ID] = true
					printMessageLine(conversationID, m)
				}
			}
		case snapshot := <-orders:
			for messageID, order := range snapshot {
				if seen, ok := seenOrders[messageID]; ok && !order.UpdatedAt.After(seen) {
					continue
				}
				seenOrders[messageID] = order.UpdatedAt
				fmt.Printf("%s order %d is %s: %s\n",
					tailOrderStyle.Render(formatTime(order.UpdatedAt)), order.ID, order.StateID, formatItems(order.Items))
			}
		}
	}
}

func markMessages(snapshot store.History, seen map[int64]bool) {
	for _, list := range snapshot {
		for _, m := range list {
			if !m.Pending() {
				seen[m.ID] = true
			}
		}
	}
}

func printMessageLine(conversationID int64, m models.Message) {
	row := messageRow(m, conversationID)
	fmt.Printf("%s %s: %s\n",
		tailConversationStyle.Render(fmt.Sprintf("[%d] %s", conversationID, row[2])), row[1], m.Content)
}

func init() {
	chatCmd.AddCommand(chatTailCmd)
	rootCmd.AddCommand(chatCmd)
}
