package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/revittco/storeadmin/internal/validate"
)

// Cart is a user's shopping cart.
type Cart struct {
	ID       ID         `json:"id"`
	UserID   ID         `json:"userId"`
	Date     string     `json:"date"`
	Products []CartLine `json:"products"`
}

// CartLine is one product/quantity pair, kept in order.
type CartLine struct {
	ProductID ID  `json:"productId"`
	Quantity  int `json:"quantity"`
}

// EntityID implements resource.Entity.
func (c Cart) EntityID() int { return int(c.ID) }

// CartDraft holds the editable fields of a cart.
type CartDraft struct {
	UserID   ID         `json:"userId"`
	Date     string     `json:"date"`
	Products []CartLine `json:"products"`
}

// DraftFromCart prefills an editor from an existing cart. Lines are copied.
func DraftFromCart(c Cart) CartDraft {
	lines := make([]CartLine, len(c.Products))
	copy(lines, c.Products)
	return CartDraft{UserID: c.UserID, Date: c.Date, Products: lines}
}

// Validate checks every field and returns *validate.Errors on failure.
func (d CartDraft) Validate() error {
	var c validate.Checker
	c.Check(d.UserID > 0, "userId", "User ID is required")
	if strings.TrimSpace(d.Date) == "" {
		c.Check(false, "date", "Date is required")
	} else {
		c.Check(isISODate(d.Date), "date", "Date must be an ISO date")
	}
	for i, line := range d.Products {
		c.Check(line.ProductID > 0, fmt.Sprintf("products[%d].productId", i), "Product ID is required")
		c.Check(line.Quantity > 0, fmt.Sprintf("products[%d].quantity", i), "Quantity must be positive")
	}
	return c.Err()
}

func isISODate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
