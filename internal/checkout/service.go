package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/images"
)

type Mode string

const (
	ModeDirect Mode = "direct"
	ModeCart   Mode = "cart"
	ModeEmpty  Mode = "empty"
)

type cartReader interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
}

type productLoader interface {
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Cart      cartReader
	Products  productLoader
	Pricing   Pricing
	MediaBase string
}

// PrepareInput mirrors the checkout page query: a product slug switches to
// direct ("buy now") mode on that single product.
type PrepareInput struct {
	ProductSlug string
	Quantity    int
	Size        *string
}

type EmptyNotice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Checkout struct {
	Mode       Mode                `json:"mode"`
	Items      []cart.LineItemView `json:"items"`
	ItemsCount int                 `json:"itemsCount"`
	Summary    *SummaryView        `json:"summary,omitempty"`
	Notice     *EmptyNotice        `json:"notice,omitempty"`
	Flow       *Flow               `json:"flow"`
}

type Service struct {
	cart      cartReader
	products  productLoader
	pricing   Pricing
	mediaBase string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &Service{
		cart:      params.Cart,
		products:  params.Products,
		pricing:   params.Pricing,
		mediaBase: params.MediaBase,
	}, nil
}

// Prepare builds the checkout page state for the session.
func (s *Service) Prepare(ctx context.Context, sessionID string, input PrepareInput) (*Checkout, error) {
	slug := strings.TrimSpace(input.ProductSlug)
	if slug != "" {
		return s.prepareDirect(ctx, slug, input)
	}

	c, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return &Checkout{
			Mode:  ModeEmpty,
			Items: []cart.LineItemView{},
			Notice: &EmptyNotice{
				Title:   "Your cart is empty",
				Message: "Add some items to your cart before checking out.",
			},
			Flow: NewFlow(),
		}, nil
	}
	return s.build(ModeCart, c)
}

func (s *Service) prepareDirect(ctx context.Context, slug string, input PrepareInput) (*Checkout, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}
	product, err := s.products.ProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	var size *string
	if input.Size != nil && strings.TrimSpace(*input.Size) != "" {
		trimmed := strings.TrimSpace(*input.Size)
		size = &trimmed
	}
	direct := &cart.Cart{}
	direct.Add(cart.SnapshotOf(*product), size, input.Quantity)
	return s.build(ModeDirect, direct)
}

func (s *Service) build(mode Mode, c *cart.Cart) (*Checkout, error) {
	view, err := cart.BuildViewFor(c, images.ViewCart, s.mediaBase)
	if err != nil {
		return nil, err
	}
	summary, err := s.pricing.Summarize(c.Items)
	if err != nil {
		return nil, err
	}
	sv := summary.View()
	return &Checkout{
		Mode:       mode,
		Items:      view.Items,
		ItemsCount: view.ItemsCount,
		Summary:    &sv,
		Flow:       NewFlow(),
	}, nil
}
