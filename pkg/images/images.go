// Package images picks the rendition of a catalog image to show for a view.
package images

import "strings"

// Placeholder is served when a product has no usable image.
const Placeholder = "/placeholder.png"

type Format struct {
	URL string `json:"url"`
}

type Formats struct {
	Thumbnail *Format `json:"thumbnail,omitempty"`
	Small     *Format `json:"small,omitempty"`
	Medium    *Format `json:"medium,omitempty"`
	Large     *Format `json:"large,omitempty"`
}

type Image struct {
	ID      int64    `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	URL     string   `json:"url"`
	Formats *Formats `json:"formats,omitempty"`
}

type View string

const (
	// ViewDetail is the product detail page.
	ViewDetail View = "detail"
	// ViewList is a line item inside a list (cart drawer).
	ViewList View = "list"
	// ViewCart is the checkout order summary.
	ViewCart View = "cart"
	// ViewCard is a product card in the listing grid.
	ViewCard View = "card"
)

type rendition int

const (
	thumbnail rendition = iota
	small
	medium
	large
)

var preference = map[View][]rendition{
	ViewDetail: {large, medium, small, thumbnail},
	ViewCard:   {medium, small, thumbnail},
	ViewList:   {small, thumbnail},
	ViewCart:   {small, thumbnail},
}

// Resolve returns the first non-empty rendition URL for view, falling back
// to the raw upload URL. Relative URLs are prefixed with baseURL. The
// second result is false when img carries no URL at all.
func Resolve(img *Image, view View, baseURL string) (string, bool) {
	if img == nil {
		return "", false
	}
	order, ok := preference[view]
	if !ok {
		order = preference[ViewDetail]
	}
	for _, r := range order {
		if u := img.Formats.pick(r); u != "" {
			return Absolute(u, baseURL), true
		}
	}
	if img.URL == "" {
		return "", false
	}
	return Absolute(img.URL, baseURL), true
}

// ResolveFirst resolves the first image of list.
func ResolveFirst(list []Image, view View, baseURL string) (string, bool) {
	if len(list) == 0 {
		return "", false
	}
	return Resolve(&list[0], view, baseURL)
}

// URLOrPlaceholder is ResolveFirst with the placeholder substituted on a miss.
func URLOrPlaceholder(list []Image, view View, baseURL string) string {
	if u, ok := ResolveFirst(list, view, baseURL); ok {
		return u
	}
	return Placeholder
}

// Absolute prefixes u with baseURL unless it already starts with "http".
func Absolute(u, baseURL string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	return strings.TrimRight(baseURL, "/") + u
}

func (f *Formats) pick(r rendition) string {
	if f == nil {
		return ""
	}
	var format *Format
	switch r {
	case thumbnail:
		format = f.Thumbnail
	case small:
		format = f.Small
	case medium:
		format = f.Medium
	case large:
		format = f.Large
	}
	if format == nil {
		return ""
	}
	return format.URL
}
