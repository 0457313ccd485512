package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/services"
	"github.com/spf13/cobra"
)

var (
	itemsSupplier int64
	itemsMine     bool

	itemName  string
	itemUnit  string
	itemSize  float32
	itemImage string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Browse and manage the item catalog",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			items []models.Item
			err   error
		)
		if itemsMine {
			items, err = app.catalog.ListMine(cmd.Context())
		} else {
			items, err = app.catalog.List(cmd.Context(), itemsSupplier)
		}
		if err != nil {
			return err
		}
		return render(items, itemHeaders, itemRows(items...))
	},
}

var itemsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add an item to your catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := services.ItemInput{Name: itemName, Unit: itemUnit, Size: itemSize}
		closeImage, err := attachImage(&input)
		if err != nil {
			return err
		}
		defer closeImage()

		item, err := app.catalog.Create(cmd.Context(), input)
		if err != nil {
			return err
		}
		return render(item, itemHeaders, itemRows(*item))
	},
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update <itemId>",
	Short: "Change an item; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "item id")
		if err != nil {
			return err
		}
		current, err := app.catalog.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		input := services.ItemInput{Name: current.Name, Unit: current.Unit, Size: current.Size}
		if cmd.Flags().Changed("name") {
			input.Name = itemName
		}
		if cmd.Flags().Changed("unit") {
			input.Unit = itemUnit
		}
		if cmd.Flags().Changed("size") {
			input.Size = itemSize
		}
		closeImage, err := attachImage(&input)
		if err != nil {
			return err
		}
		defer closeImage()

		item, err := app.catalog.Update(cmd.Context(), id, input)
		if err != nil {
			return err
		}
		return render(item, itemHeaders, itemRows(*item))
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <itemId>",
	Short: "Remove an item from your catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "item id")
		if err != nil {
			return err
		}
		if err := app.catalog.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("item %d deleted\n", id)
		return nil
	},
}

var itemHeaders = []string{"ID", "Supplier", "Name", "Size", "Image"}

func itemRows(items ...models.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprint(item.ID),
			fmt.Sprint(item.SupplierID),
			item.Name,
			fmt.Sprintf("%g %s", item.Size, item.Unit),
			app.client.ImageURL(item.ImageID),
		})
	}
	return rows
}

// attachImage opens the --image file into input when one was given.
func attachImage(input *services.ItemInput) (func(), error) {
	if itemImage == "" {
		return func() {}, nil
	}
	file, err := os.Open(itemImage)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	input.ImageName = filepath.Base(itemImage)
	input.Image = file
	return func() { _ = file.Close() }, nil
}

func init() {
	itemsListCmd.Flags().Int64Var(&itemsSupplier, "supplier", 0, "only items of this supplier")
	itemsListCmd.Flags().BoolVar(&itemsMine, "mine", false, "only your own items")

	for _, c := range []*cobra.Command{itemsCreateCmd, itemsUpdateCmd} {
		c.Flags().StringVar(&itemName, "name", "", "item name")
		c.Flags().StringVar(&itemUnit, "unit", models.ItemUnitKg, "unit: kg|liters")
		c.Flags().Float32Var(&itemSize, "size", 0, "package size in units")
		c.Flags().StringVar(&itemImage, "image", "", "path to the item image")
	}

	itemsCmd.AddCommand(itemsListCmd, itemsCreateCmd, itemsUpdateCmd, itemsDeleteCmd)
	rootCmd.AddCommand(itemsCmd)
}
