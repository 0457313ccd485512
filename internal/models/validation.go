package models

import (
	"strings"
	"unicode"

	"github.com/saeid-a/tradechat/internal/validator"
)

func ValidateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be an email")
}

// ValidatePasswordPlaintext requires 8 to 72 characters with a digit, an
// upper and a lower case letter and a symbol.
func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(strongPassword(password), "password",
		"must be at least 8 chars, have a special symbol, number, lower and upper case letter")
}

func ValidatePostUser(v *validator.Validator, dto PostUserDto) {
	ValidateEmail(v, dto.Email)
	ValidatePasswordPlaintext(v, dto.Password)
	v.Check(dto.Type.Valid(), "type", "must be a valid user type")
	v.Check(strings.TrimSpace(dto.Name) != "", "name", "must be provided")
	v.Check(dto.ImageID != "", "imageId", "must be provided")
}

func ValidatePostItem(v *validator.Validator, dto PostItemDto) {
	v.Check(strings.TrimSpace(dto.Name) != "", "name", "must be provided")
	v.Check(strings.TrimSpace(dto.Unit) != "", "unit", "must be provided")
	v.Check(dto.Size > 0, "size", "must be positive number")
}

func ValidatePostOrder(v *validator.Validator, dto PostOrderDto) {
	v.Check(dto.ConversationID > 0, "conversationId", "must be provided")
	v.Check(len(dto.Items) > 0, "items", "must have at least 1 item")
	validateItems(v, dto.Items)
}

// ValidatePatchOrder accepts a change of items or a change of state, never
// both and never neither.
func ValidatePatchOrder(v *validator.Validator, dto PatchOrderDto) {
	hasItems := len(dto.Items) > 0
	hasState := dto.StateID != 0

	validateItems(v, dto.Items)
	if hasState {
		v.Check(dto.StateID.Valid(), "stateId", "unknown order state")
	}
	if hasItems && hasState {
		v.AddError("items", "can't change both items and state")
		v.AddError("stateId", "can't change both items and state")
	}
	if !hasItems && !hasState {
		v.AddError("items", "valid items or state change is required")
		v.AddError("stateId", "valid items or state change is required")
	}
}

func validateItems(v *validator.Validator, items []ItemQuantity) {
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		v.Check(item.ItemID > 0, "items", "item id must be provided")
		v.Check(item.Quantity > 0, "items", "quantity must be > 0")
		v.Check(!seen[item.ItemID], "items", "duplicate item")
		seen[item.ItemID] = true
	}
}

func strongPassword(s string) bool {
	var number, upper, lower, special bool
	letters := 0
	for _, c := range s {
		switch {
		case unicode.IsNumber(c):
			number = true
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			special = true
		case unicode.IsLetter(c):
			lower = true
		default:
			return false
		}
		letters++
	}
	// bcrypt ignores input past 72 bytes.
	return number && upper && lower && special && letters >= 8 && letters <= 72
}
