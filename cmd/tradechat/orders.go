package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/spf13/cobra"
)

var orderItems []string

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Place and negotiate orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders in your conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := app.me()
		if err != nil {
			return err
		}
		byMessage, err := app.chat.Orders().FetchAll(cmd.Context(), me.ID)
		if err != nil {
			return err
		}

		orders := make([]models.Order, 0, len(byMessage))
		for _, o := range byMessage {
			orders = append(orders, o)
		}
		sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
		return render(orders, orderHeaders, orderRows(orders...))
	},
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create <conversationId>",
	Short: "Place an order in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, err := parseID(args[0], "conversation id")
		if err != nil {
			return err
		}
		items, err := parseItems(orderItems)
		if err != nil {
			return err
		}

		var order *models.Order
		err = app.withChannel(cmd.Context(), func(ctx context.Context) error {
			order, err = app.chat.CreateOrder(ctx, conversationID, items)
			return err
		})
		if err != nil {
			return err
		}
		return render(order, orderHeaders, orderRows(*order))
	},
}

var ordersStateCmd = &cobra.Command{
	Use:   "state <orderId> <state>",
	Short: "Move an order to a new state (accepted, declined, fulfilled, ...)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, err := parseID(args[0], "order id")
		if err != nil {
			return err
		}
		state, err := models.ParseOrderState(args[1])
		if err != nil {
			return err
		}
		return updateOrder(cmd.Context(), orderID, models.PatchOrderDto{StateID: state})
	},
}

var ordersItemsCmd = &cobra.Command{
	Use:   "items <orderId>",
	Short: "Propose a new item list for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderID, err := parseID(args[0], "order id")
		if err != nil {
			return err
		}
		items, err := parseItems(orderItems)
		if err != nil {
			return err
		}
		return updateOrder(cmd.Context(), orderID, models.PatchOrderDto{Items: items})
	},
}

var orderHeaders = []string{"ID", "Message", "State", "Items", "Updated"}

func updateOrder(ctx context.Context, orderID int64, dto models.PatchOrderDto) error {
	var order *models.Order
	err := app.withChannel(ctx, func(ctx context.Context) error {
		var err error
		order, err = app.chat.UpdateOrder(ctx, orderID, dto)
		return err
	})
	if err != nil {
		return err
	}
	return render(order, orderHeaders, orderRows(*order))
}

func orderRows(orders ...models.Order) [][]string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			fmt.Sprint(o.ID), fmt.Sprint(o.MessageID), o.StateID.String(), formatItems(o.Items), formatTime(o.UpdatedAt),
		})
	}
	return rows
}

func init() {
	for _, c := range []*cobra.Command{ordersCreateCmd, ordersItemsCmd} {
		c.Flags().StringSliceVar(&orderItems, "item", nil, "item as id=qty, repeatable")
	}
	ordersCmd.AddCommand(ordersListCmd, ordersCreateCmd, ordersStateCmd, ordersItemsCmd)
	rootCmd.AddCommand(ordersCmd)
}
