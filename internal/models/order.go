package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type OrderState int

const (
	OrderStateCreated              OrderState = 1
	OrderStateAccepted             OrderState = 2
	OrderStateDeclined             OrderState = 3
	OrderStateFulfilled            OrderState = 4
	OrderStateConfirmedFulfillment OrderState = 5
	OrderStateSupplierChanges      OrderState = 6
	OrderStateClientChanges        OrderState = 7
)

var orderStateNames = map[OrderState]string{
	OrderStateCreated:              "created",
	OrderStateAccepted:             "accepted",
	OrderStateDeclined:             "declined",
	OrderStateFulfilled:            "fulfilled",
	OrderStateConfirmedFulfillment: "confirmed_fulfillment",
	OrderStateSupplierChanges:      "supplier_changes",
	OrderStateClientChanges:        "client_changes",
}

func (s OrderState) String() string {
	if name, ok := orderStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

func (s OrderState) Valid() bool {
	_, ok := orderStateNames[s]
	return ok
}

func ParseOrderState(value string) (OrderState, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for state, name := range orderStateNames {
		if name == normalized {
			return state, nil
		}
	}
	if n, err := strconv.Atoi(normalized); err == nil && OrderState(n).Valid() {
		return OrderState(n), nil
	}
	return 0, fmt.Errorf("unknown order state %q", value)
}

type ItemQuantity struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type Order struct {
	ID        int64          `json:"id"`
	MessageID int64          `json:"messageId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Items     []ItemQuantity `json:"items"`
	StateID   OrderState     `json:"stateId"`
}

type PostOrderDto struct {
	Items          []ItemQuantity `json:"items"`
	ConversationID int64          `json:"conversationId"`
}

type PatchOrderDto struct {
	Items   []ItemQuantity `json:"items,omitempty"`
	StateID OrderState     `json:"stateId,omitempty"`
}
