package types

import (
	"fmt"
	"strings"
)

// Address is the shipping contact snapshot stored as jsonb on orders and as
// the payload of saved customer addresses.
type Address struct {
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Validate checks the fields an order snapshot cannot do without.
func (a Address) Validate() error {
	if strings.TrimSpace(a.FullName) == "" {
		return fmt.Errorf("address: missing full_name")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("address: missing phone")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("address: missing state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address: missing postal_code")
	}
	return nil
}

// Normalized returns a copy with whitespace trimmed and the country defaulted.
func (a Address) Normalized() Address {
	out := a
	out.FullName = strings.TrimSpace(a.FullName)
	out.Email = strings.TrimSpace(a.Email)
	out.Phone = strings.TrimSpace(a.Phone)
	out.Line1 = strings.TrimSpace(a.Line1)
	if a.Line2 != nil {
		line2 := strings.TrimSpace(*a.Line2)
		if line2 == "" {
			out.Line2 = nil
		} else {
			out.Line2 = &line2
		}
	}
	out.City = strings.TrimSpace(a.City)
	out.State = strings.TrimSpace(a.State)
	out.PostalCode = strings.TrimSpace(a.PostalCode)
	out.Country = strings.TrimSpace(a.Country)
	if out.Country == "" {
		out.Country = "IN"
	}
	return out
}
