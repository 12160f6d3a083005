package product

import (
	"net/url"
	"strings"
)

// BuyNowURL links straight to checkout for one unit of the product.
func BuyNowURL(slug string, size *string) string {
	q := url.Values{}
	q.Set("product", slug)
	q.Set("quantity", "1")
	if size != nil && strings.TrimSpace(*size) != "" {
		q.Set("size", strings.TrimSpace(*size))
	}
	return "/checkout?" + q.Encode()
}

func DetailURL(slug string) string {
	return "/product/" + url.PathEscape(slug)
}
