package product

// ProductCardDTO is one tile of the product grid.
type ProductCardDTO struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	ImageURL  string `json:"imageUrl"`
	IsNew     bool   `json:"isNew"`
	Hearted   bool   `json:"hearted"`
	DetailURL string `json:"detailUrl"`
	BuyNowURL string `json:"buyNowUrl"`
}

// CategoryFilterDTO is a category chip of the listing filter bar.
type CategoryFilterDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	Selected bool   `json:"selected"`
}

type ListingDTO struct {
	Categories          []CategoryFilterDTO `json:"categories"`
	AllSelected         bool                `json:"allSelected"`
	SelectedCategoryIDs []int64             `json:"selectedCategoryIds"`
	Products            []ProductCardDTO    `json:"products"`
}

type SizeDTO struct {
	ID   int64  `json:"id"`
	Size string `json:"size"`
}

// ProductDetailDTO is the product page payload.
type ProductDetailDTO struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Price        string    `json:"price"`
	CategoryName string    `json:"categoryName"`
	Series       string    `json:"series,omitempty"`
	Badges       []string  `json:"badges"`
	Sizes        []SizeDTO `json:"sizes"`
	Paragraphs   []string  `json:"paragraphs"`
	ImageURLs    []string  `json:"imageUrls"`
	Hearted      bool      `json:"hearted"`
	BuyNowURL    string    `json:"buyNowUrl"`
}
