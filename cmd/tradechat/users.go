package main

import (
	"fmt"
	"strings"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Find other users",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search users by name or email",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := app.auth.SearchUsers(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return render(users, []string{"ID", "Name", "Email", "Type"}, userRows(users))
	},
}

func userRows(users []models.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{fmt.Sprint(u.ID), u.Name, u.Email, u.Type.String()})
	}
	return rows
}

func init() {
	usersCmd.AddCommand(usersSearchCmd)
	rootCmd.AddCommand(usersCmd)
}
