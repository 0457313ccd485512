package models

import (
	"fmt"
	"strings"
)

type UserType int

const (
	UserTypeSupplier UserType = 1
	UserTypeBusiness UserType = 2
)

func (t UserType) String() string {
	switch t {
	case UserTypeSupplier:
		return "supplier"
	case UserTypeBusiness:
		return "business"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

func (t UserType) Valid() bool {
	return t == UserTypeSupplier || t == UserTypeBusiness
}

func ParseUserType(value string) (UserType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "supplier", "1":
		return UserTypeSupplier, nil
	case "business", "client", "2":
		return UserTypeBusiness, nil
	default:
		return 0, fmt.Errorf("unknown user type %q", value)
	}
}

type User struct {
	ID      int64    `json:"id"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Type    UserType `json:"type"`
	ImageID string   `json:"imageId"`
}

type PostUserDto struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Type     UserType `json:"type"`
	ImageID  string   `json:"imageId"`
}
