package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is fixed at registration and never changes afterwards.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleBuyer, RoleFarmer, RoleAdmin}

func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleFarmer:
		return RoleFarmer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// UnmarshalJSON rejects roles outside the closed set so a bad payload never
// reaches role-gated code.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*r = ""
		return nil
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// DeliveryAddress is the buyer's shipping destination.
type DeliveryAddress struct {
	Address  string `json:"address" bson:"address" validate:"required"`
	City     string `json:"city" bson:"city" validate:"required"`
	State    string `json:"state" bson:"state" validate:"required"`
	ZipCode  string `json:"zipCode" bson:"zipCode" validate:"required,pincode"`
	Landmark string `json:"landmark,omitempty" bson:"landmark,omitempty"`
}

// FarmDetails are collected when a farmer registers.
type FarmDetails struct {
	FarmName     string `json:"farmName,omitempty" validate:"required"`
	FarmLocation string `json:"farmLocation,omitempty" validate:"required"`
	FarmAddress  string `json:"farmAddress,omitempty" validate:"required"`
	FarmCity     string `json:"farmCity,omitempty" validate:"required"`
	FarmState    string `json:"farmState,omitempty" validate:"required"`
	FarmZipCode  string `json:"farmZipCode,omitempty" validate:"required,pincode"`
	FarmPhone    string `json:"farmPhone,omitempty" validate:"required"`
}

// AdminDetails are collected when an admin registers.
type AdminDetails struct {
	AdminOrgName        string `json:"adminOrgName,omitempty" validate:"required"`
	AdminOfficeLocation string `json:"adminOfficeLocation,omitempty" validate:"required"`
	AdminOfficeAddress  string `json:"adminOfficeAddress,omitempty" validate:"required"`
	AdminOfficeCity     string `json:"adminOfficeCity,omitempty" validate:"required"`
	AdminOfficeState    string `json:"adminOfficeState,omitempty" validate:"required"`
	AdminOfficeZipCode  string `json:"adminOfficeZipCode,omitempty" validate:"required"`
	AdminOfficePhone    string `json:"adminOfficePhone,omitempty" validate:"required"`
}

// User is the account as returned by the upstream API.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	IsActive  *bool     `json:"isActive,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	DeliveryAddress
	FarmDetails
	AdminDetails
}

func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MissingDeliveryFields returns the json names of the delivery fields that
// must be filled in before checkout.
func (u User) MissingDeliveryFields() []string {
	missing := make([]string, 0)
	fields := []struct {
		name  string
		value string
	}{
		{"address", u.Address},
		{"city", u.City},
		{"state", u.State},
		{"zipCode", u.ZipCode},
		{"phone", u.Phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
