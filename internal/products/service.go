package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/catalog"
	"github.com/angelmondragon/storefront/pkg/images"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type heartReader interface {
	IDs(ctx context.Context, sessionID string) ([]int64, error)
}

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	Source    catalog.Source
	Hearts    heartReader
	MediaBase string
	Logger    *logger.Logger
}

// Service shapes catalog data into listing and detail views.
type Service interface {
	List(ctx context.Context, sessionID string, filters ListFilters) (ListingDTO, error)
	Detail(ctx context.Context, sessionID, slug string, selectedSize *string) (ProductDetailDTO, error)
}

type service struct {
	source    catalog.Source
	hearts    heartReader
	mediaBase string
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		source:    params.Source,
		hearts:    params.Hearts,
		mediaBase: params.MediaBase,
		logg:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, sessionID string, filters ListFilters) (ListingDTO, error) {
	categories, err := s.source.Categories(ctx)
	if err != nil {
		return ListingDTO{}, err
	}
	hearted := s.heartedSet(ctx, sessionID)

	out := ListingDTO{
		Categories:          make([]CategoryFilterDTO, 0, len(categories)),
		AllSelected:         filters.All(),
		SelectedCategoryIDs: append([]int64{}, filters.CategoryIDs...),
		Products:            []ProductCardDTO{},
	}
	for _, cat := range categories {
		out.Categories = append(out.Categories, CategoryFilterDTO{
			ID:       cat.ID,
			Name:     cat.Name,
			Slug:     cat.Slug,
			Selected: containsID(filters.CategoryIDs, cat.ID),
		})
	}
	for _, p := range filters.Filter(categories) {
		out.Products = append(out.Products, ProductCardDTO{
			ID:        p.ID,
			Slug:      p.Slug,
			Title:     p.Title,
			Price:     p.Price,
			ImageURL:  images.URLOrPlaceholder(p.Images, images.ViewCard, s.mediaBase),
			IsNew:     p.IsNew,
			Hearted:   hearted[p.ID],
			DetailURL: DetailURL(p.Slug),
			BuyNowURL: BuyNowURL(p.Slug, nil),
		})
	}
	return out, nil
}

func (s *service) Detail(ctx context.Context, sessionID, slug string, selectedSize *string) (ProductDetailDTO, error) {
	p, err := s.source.ProductBySlug(ctx, slug)
	if err != nil {
		return ProductDetailDTO{}, err
	}

	out := ProductDetailDTO{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title,
		Price:      p.Price,
		Series:     strings.ToUpper(p.Series),
		Badges:     Badges(*p),
		Sizes:      make([]SizeDTO, 0, len(p.Sizes)),
		Paragraphs: Paragraphs(p.Description),
		ImageURLs:  make([]string, 0, len(p.Images)),
		Hearted:    s.heartedSet(ctx, sessionID)[p.ID],
		BuyNowURL:  BuyNowURL(p.Slug, selectedSize),
	}
	if p.Category != nil {
		out.CategoryName = strings.ToUpper(p.Category.Name)
	}
	for _, size := range p.Sizes {
		out.Sizes = append(out.Sizes, SizeDTO{ID: size.ID, Size: size.Size})
	}
	for i := range p.Images {
		if u, ok := images.Resolve(&p.Images[i], images.ViewDetail, s.mediaBase); ok {
			out.ImageURLs = append(out.ImageURLs, u)
		}
	}
	if len(out.ImageURLs) == 0 {
		out.ImageURLs = append(out.ImageURLs, images.Placeholder)
	}
	return out, nil
}

// Badges lists the NEW and release date badges in display order.
func Badges(p catalog.Product) []string {
	badges := []string{}
	if p.IsNew {
		badges = append(badges, "NEW")
	}
	if p.ReleaseDate != "" {
		badges = append(badges, p.ReleaseDate)
	}
	return badges
}

// Paragraphs flattens rich-text blocks into one paragraph per child text node.
func Paragraphs(blocks []catalog.DescriptionBlock) []string {
	out := []string{}
	for _, block := range blocks {
		for _, child := range block.Children {
			out = append(out, child.Text)
		}
	}
	return out
}

// heartedSet degrades to no hearts when the wishlist cannot be read.
func (s *service) heartedSet(ctx context.Context, sessionID string) map[int64]bool {
	set := map[int64]bool{}
	if s.hearts == nil || sessionID == "" {
		return set
	}
	ids, err := s.hearts.IDs(ctx, sessionID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "wishlist unavailable for product view")
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}
