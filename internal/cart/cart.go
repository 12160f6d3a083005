package cart

import (
	"fmt"
	"strconv"

	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/images"
	"github.com/shopspring/decimal"
)

const noSize = "no-size"

// MaxQuantity caps a single line.
const MaxQuantity = 99

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"Name"`
}

// ProductSnapshot is the product as it looked when it was added.
type ProductSnapshot struct {
	ID       int64          `json:"id"`
	Slug     string         `json:"slug"`
	Title    string         `json:"title"`
	Price    string         `json:"price"`
	Images   []images.Image `json:"images"`
	Category *Category      `json:"catagory,omitempty"`
}

// SnapshotOf captures the cart-relevant fields of a catalog product.
func SnapshotOf(p catalog.Product) ProductSnapshot {
	snap := ProductSnapshot{
		ID:     p.ID,
		Slug:   p.Slug,
		Title:  p.Title,
		Price:  p.Price,
		Images: p.Images,
	}
	if snap.Images == nil {
		snap.Images = []images.Image{}
	}
	if p.Category != nil {
		snap.Category = &Category{ID: p.Category.ID, Name: p.Category.Name}
	}
	return snap
}

type LineItem struct {
	ID           string          `json:"id"`
	Product      ProductSnapshot `json:"product"`
	SelectedSize *string         `json:"selectedSize,omitempty"`
	Quantity     int             `json:"quantity"`
}

// LineTotal is price x quantity.
func (li LineItem) LineTotal() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(li.Product.Price)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("line item %s has an invalid price", li.ID)).
			WithDetails(map[string]any{"item_id": li.ID, "price": li.Product.Price})
	}
	return price.Mul(decimal.NewFromInt(int64(li.Quantity))), nil
}

// LineItemID is the merge key of a product/size pair.
func LineItemID(productID int64, size *string) string {
	s := noSize
	if size != nil && *size != "" {
		s = *size
	}
	return strconv.FormatInt(productID, 10) + "-" + s
}

// Cart is an ordered list of line items with at most one item per id.
// Insertion order is display order.
type Cart struct {
	Items []LineItem
}

// Add merges into an existing line or appends a new one. Quantities below 1 count as 1
// and a merged line never exceeds MaxQuantity.
func (c *Cart) Add(product ProductSnapshot, size *string, quantity int) LineItem {
	quantity = clampQuantity(quantity)
	if size != nil && *size == "" {
		size = nil
	}
	id := LineItemID(product.ID, size)
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = min(clampQuantity(c.Items[i].Quantity)+quantity, MaxQuantity)
			return c.Items[i]
		}
	}
	item := LineItem{ID: id, Product: product, SelectedSize: size, Quantity: quantity}
	c.Items = append(c.Items, item)
	return item
}

// Remove drops the line with id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets an absolute quantity capped at MaxQuantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.Remove(id)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = clampQuantity(quantity)
			return
		}
	}
}

func clampQuantity(quantity int) int {
	return max(1, min(quantity, MaxQuantity))
}

func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// Find returns the line with id.
func (c *Cart) Find(id string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return LineItem{}, false
}

// Total sums price x quantity. A price that is not a decimal number fails the
// whole total with a validation error naming the line.
func (c *Cart) Total() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range c.Items {
		line, err := item.LineTotal()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(line)
	}
	return total, nil
}

// ItemsCount sums quantities across lines.
func (c *Cart) ItemsCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}
