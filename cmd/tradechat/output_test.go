package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
)

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"3=10", " 7 = 2 "})
	if err != nil {
		t.Fatalf("parseItems: %v", err)
	}
	want := []models.ItemQuantity{{ItemID: 3, Quantity: 10}, {ItemID: 7, Quantity: 2}}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: expected %+v, got %+v", i, want[i], items[i])
		}
	}
}

func TestParseItemsRejectsMalformedInput(t *testing.T) {
	cases := map[string][]string{
		"empty":        nil,
		"no separator": {"3"},
		"bad id":       {"x=1"},
		"bad quantity": {"3=many"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseItems(values); err == nil {
				t.Fatalf("expected error for %v", values)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42", "order id"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d %v", id, err)
	}
	for _, value := range []string{"0", "-1", "abc"} {
		if _, err := parseID(value, "order id"); err == nil {
			t.Errorf("expected error for %q", value)
		}
	}
}

func TestPrintErrorListsFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, &api.ValidationError{Fields: map[string]string{
		"password": "must be at least 8 characters",
		"email":    "must be a valid email address",
	}})

	out := buf.String()
	emailAt := strings.Index(out, "  email: must be a valid email address")
	passwordAt := strings.Index(out, "  password: must be at least 8 characters")
	if emailAt < 0 || passwordAt < 0 {
		t.Fatalf("missing field lines in %q", out)
	}
	if emailAt > passwordAt {
		t.Fatalf("expected fields sorted by name, got %q", out)
	}
}

func TestPrintErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New("boom"))
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected message in output, got %q", buf.String())
	}
}

func TestFormatItemsAndTruncate(t *testing.T) {
	got := formatItems([]models.ItemQuantity{{ItemID: 1, Quantity: 2}, {ItemID: 5, Quantity: 1}})
	if got != "1×2, 5×1" {
		t.Fatalf("unexpected items format %q", got)
	}
	if truncate("hello world", 6) != "hello…" {
		t.Fatalf("unexpected truncation %q", truncate("hello world", 6))
	}
	if truncate("short", 10) != "short" {
		t.Fatalf("expected short strings untouched")
	}
}
