package main

import (
	"fmt"
	"sort"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "List and start conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := app.me()
		if err != nil {
			return err
		}
		conversations, err := app.chat.Conversations().FetchAll(cmd.Context(), me.ID)
		if err != nil {
			return err
		}

		list := make([]models.Conversation, 0, len(conversations))
		for _, c := range conversations {
			list = append(list, c)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

		rows := make([][]string, 0, len(list))
		for _, c := range list {
			rows = append(rows, conversationRow(c, me.ID))
		}
		return render(list, []string{"ID", "With", "Last message", "At"}, rows)
	},
}

var conversationsStartCmd = &cobra.Command{
	Use:   "start <userId>",
	Short: "Open a conversation with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		me, err := app.me()
		if err != nil {
			return err
		}
		if _, err := app.chat.Conversations().FetchAll(cmd.Context(), me.ID); err != nil {
			return err
		}
		conversation, err := app.chat.StartConversation(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return render(conversation, []string{"ID", "With", "Last message", "At"},
			[][]string{conversationRow(*conversation, me.ID)})
	},
}

func conversationRow(c models.Conversation, me int64) []string {
	with := "-"
	if other, ok := c.Counterpart(me); ok {
		with = fmt.Sprintf("%s (%d)", other.Name, other.ID)
	}
	last, at := "-", "-"
	if c.LastMessage != nil {
		last = truncate(c.LastMessage.Content, 40)
		at = formatTime(c.LastMessage.CreatedAt)
	}
	return []string{fmt.Sprint(c.ID), with, last, at}
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd, conversationsStartCmd)
	rootCmd.AddCommand(conversationsCmd)
}
