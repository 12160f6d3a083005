package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/angelmondragon/storefront/pkg/images"
)

type TextNode struct {
	Text string `json:"text"`
}

// DescriptionBlock is one rich-text block of a product description.
type DescriptionBlock struct {
	Type     string     `json:"type"`
	Children []TextNode `json:"children"`
}

type Size struct {
	ID   int64  `json:"id"`
	Size string `json:"size"`
}

type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"Name"`
}

type Product struct {
	ID          int64              `json:"id"`
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Price       string             `json:"price"`
	Description []DescriptionBlock `json:"Description"`
	Images      []images.Image     `json:"images"`
	Category    *CategoryRef       `json:"catagory,omitempty"`
	Sizes       []Size             `json:"size"`
	Series      string             `json:"series,omitempty"`
	IsNew       bool               `json:"isNew,omitempty"`
	ReleaseDate string             `json:"releaseDate,omitempty"`
}

// HasSize reports whether size is one of the product's size options.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s.Size == size {
			return true
		}
	}
	return false
}

type Category struct {
	ID       int64     `json:"id"`
	Name     string    `json:"Name"`
	Slug     string    `json:"slug"`
	Products []Product `json:"products"`
}

// GalleryImage is a carousel slide with an absolute URL.
type GalleryImage struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// FindBySlug returns the product whose slug matches, or nil.
func FindBySlug(products []Product, slug string) *Product {
	for i := range products {
		if products[i].Slug == slug {
			p := products[i]
			return &p
		}
	}
	return nil
}

// flexString accepts both JSON strings and numbers; the CMS has served prices as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type productFields struct {
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Price       flexString         `json:"price"`
	Description []DescriptionBlock `json:"Description"`
	Images      []images.Image     `json:"images"`
	Category    *CategoryRef       `json:"catagory"`
	Sizes       []Size             `json:"size"`
	Series      string             `json:"series"`
	IsNew       bool               `json:"isNew"`
	ReleaseDate string             `json:"releaseDate"`
}

// rawProduct covers both the nested {id, attributes:{...}} and the flat entry shapes.
type rawProduct struct {
	ID         int64          `json:"id"`
	Attributes *productFields `json:"attributes"`
	productFields
}

func (r rawProduct) normalize() Product {
	fields := r.productFields
	if r.Attributes != nil {
		fields = *r.Attributes
	}
	price := strings.TrimSpace(string(fields.Price))
	if price == "" {
		price = "0"
	}
	p := Product{
		ID:          r.ID,
		Slug:        fields.Slug,
		Title:       fields.Title,
		Price:       price,
		Description: fields.Description,
		Images:      fields.Images,
		Category:    fields.Category,
		Sizes:       fields.Sizes,
		Series:      fields.Series,
		IsNew:       fields.IsNew,
		ReleaseDate: fields.ReleaseDate,
	}
	if p.Description == nil {
		p.Description = []DescriptionBlock{}
	}
	if p.Images == nil {
		p.Images = []images.Image{}
	}
	if p.Sizes == nil {
		p.Sizes = []Size{}
	}
	return p
}

type rawCategory struct {
	ID       int64        `json:"id"`
	Name     string       `json:"Name"`
	Slug     string       `json:"slug"`
	Products []rawProduct `json:"products"`
}

func (r rawCategory) normalize() Category {
	c := Category{ID: r.ID, Name: r.Name, Slug: r.Slug, Products: make([]Product, 0, len(r.Products))}
	for _, rp := range r.Products {
		p := rp.normalize()
		if p.Category == nil {
			p.Category = &CategoryRef{ID: r.ID, Name: r.Name}
		}
		c.Products = append(c.Products, p)
	}
	return c
}

type rawGallery struct {
	Carosel []GalleryImage `json:"carosel"`
}
