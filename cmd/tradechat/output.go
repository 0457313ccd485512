package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

func jsonOutput() bool {
	return strings.EqualFold(outputType, "json")
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t)
}

// render prints v as JSON with -o json, otherwise as a table.
func render(v any, headers []string, rows [][]string) error {
	if jsonOutput() {
		return printJSON(os.Stdout, v)
	}
	printTable(os.Stdout, headers, rows)
	return nil
}

// printError reports err, listing field errors one per line.
func printError(w io.Writer, err error) {
	fields := api.FieldErrors(err)
	if len(fields) == 0 {
		fmt.Fprintln(w, errorStyle.Render("error:"), err)
		return
	}

	fmt.Fprintln(w, errorStyle.Render("error:"), "validation failed")
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}

// parseItems reads "itemId=quantity" pairs.
func parseItems(values []string) ([]models.ItemQuantity, error) {
	if len(values) == 0 {
		return nil, errors.New("at least one --item id=qty is required")
	}
	items := make([]models.ItemQuantity, 0, len(values))
	for _, value := range values {
		idPart, qtyPart, ok := strings.Cut(value, "=")
		if !ok {
			return nil, fmt.Errorf("invalid item %q, expected id=qty", value)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item id in %q", value)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyPart))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q", value)
		}
		items = append(items, models.ItemQuantity{ItemID: id, Quantity: qty})
	}
	return items, nil
}

func parseID(value, what string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, value)
	}
	return id, nil
}

func formatItems(items []models.ItemQuantity) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d×%d", item.ItemID, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
