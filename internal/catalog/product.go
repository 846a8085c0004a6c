package catalog

import (
	"encoding/json"
	"regexp"

	"github.com/revittco/storeadmin/internal/validate"
	"github.com/shopspring/decimal"
)

var (
	productTitleRe       = regexp.MustCompile(`^[A-Za-z0-9 &,.'-]+$`)
	productDescriptionRe = regexp.MustCompile(`^[A-Za-z0-9 &,.'()-]+$`)
	productImageRe       = regexp.MustCompile(`^(https?:)([/|.\w\s-])*\.(?:jpg|gif|png)$`)
	productCategoryRe    = regexp.MustCompile(`^[A-Za-z0-9 ,.'()-]+$`)
)

// Product is a store catalog item.
type Product struct {
	ID          ID              `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Rating      *Rating         `json:"rating,omitempty"`
}

// Rating is the read-only review summary returned by the products API.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// EntityID implements resource.Entity.
func (p Product) EntityID() int { return int(p.ID) }

// MarshalJSON writes the price as a JSON number, which is what the remote
// API sends and expects.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(p), json.Number(p.Price.String())})
}

// ProductDraft holds the editable fields of a product.
type ProductDraft struct {
	Title       string              `json:"title"`
	Price       decimal.NullDecimal `json:"price"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Category    string              `json:"category"`
}

// MarshalJSON writes the price as a JSON number, or null when unset.
func (d ProductDraft) MarshalJSON() ([]byte, error) {
	type plain ProductDraft
	var price *json.Number
	if d.Price.Valid {
		n := json.Number(d.Price.Decimal.String())
		price = &n
	}
	return json.Marshal(struct {
		plain
		Price *json.Number `json:"price"`
	}{plain(d), price})
}

// DraftFromProduct prefills an editor from an existing product.
func DraftFromProduct(p Product) ProductDraft {
	return ProductDraft{
		Title:       p.Title,
		Price:       decimal.NewNullDecimal(p.Price),
		Description: p.Description,
		Image:       p.Image,
		Category:    p.Category,
	}
}

// Validate checks every field and returns *validate.Errors on failure.
func (d ProductDraft) Validate() error {
	var c validate.Checker
	c.Field("title", d.Title).
		Required("Title is required").
		Pattern(productTitleRe, "Title must be alphanumeric characters, comma, apostrophe, period, and hyphen only")
	switch {
	case !d.Price.Valid:
		c.Check(false, "price", "Price is required")
	case d.Price.Decimal.IsNegative() || !d.Price.Decimal.Equal(d.Price.Decimal.Round(2)):
		c.Check(false, "price", "Price must be a non-negative amount with at most two decimals")
	}
	c.Field("description", d.Description).
		Required("Description is required").
		Pattern(productDescriptionRe, "Description must be alphanumeric characters, comma, apostrophe, period, hyphen, and parentheses only")
	c.Field("image", d.Image).
		Required("Image is required").
		Pattern(productImageRe, "Image must be a valid URL")
	c.Field("category", d.Category).
		Required("Category is required").
		Pattern(productCategoryRe, "Category must be alphanumeric characters, comma, apostrophe, period, hyphen, and parentheses only")
	return c.Err()
}
