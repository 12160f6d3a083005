package cart

import "github.com/angelmondragon/storefront/pkg/images"

// LineItemView is a line as rendered in the cart drawer.
type LineItemView struct {
	ID           string          `json:"id"`
	Product      ProductSnapshot `json:"product"`
	SelectedSize *string         `json:"selectedSize,omitempty"`
	Quantity     int             `json:"quantity"`
	ImageURL     string          `json:"imageUrl"`
	LineTotal    string          `json:"lineTotal"`
}

type View struct {
	Items      []LineItemView `json:"items"`
	ItemsCount int            `json:"itemsCount"`
	Total      string         `json:"total"`
}

// BuildView renders c for the cart drawer. Amounts are fixed to cents.
func BuildView(c *Cart, mediaBase string) (View, error) {
	return BuildViewFor(c, images.ViewList, mediaBase)
}

// BuildViewFor renders c with line images resolved for view.
func BuildViewFor(c *Cart, view images.View, mediaBase string) (View, error) {
	total, err := c.Total()
	if err != nil {
		return View{}, err
	}
	items := make([]LineItemView, 0, len(c.Items))
	for _, item := range c.Items {
		line, err := item.LineTotal()
		if err != nil {
			return View{}, err
		}
		items = append(items, LineItemView{
			ID:           item.ID,
			Product:      item.Product,
			SelectedSize: item.SelectedSize,
			Quantity:     item.Quantity,
			ImageURL:     images.URLOrPlaceholder(item.Product.Images, view, mediaBase),
			LineTotal:    line.StringFixed(2),
		})
	}
	return View{
		Items:      items,
		ItemsCount: c.ItemsCount(),
		Total:      total.StringFixed(2),
	}, nil
}
