package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type productLoader interface {
	ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
}

// AddItemInput identifies the product by slug; the snapshot is taken from the catalog.
type AddItemInput struct {
	ProductSlug  string
	SelectedSize *string
	Quantity     int
}

// Service owns the session-scoped cart. Every mutation for one session runs
// under that session's lock and rewrites the whole cart.
type Service struct {
	store    session.Store
	locker   session.Guard
	products productLoader
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
}

// NewService builds a cart service backed by the provided stack.
func NewService(store session.Store, locker session.Guard, products productLoader, logg *logger.Logger, m *metrics.CartMetrics) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if locker == nil {
		return nil, fmt.Errorf("session locker required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		store:    store,
		locker:   locker,
		products: products,
		logg:     logg,
		metrics:  m,
	}, nil
}

// Get restores the session's cart; a missing or unreadable cart is empty.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.load(ctx, sessionID)
}

// AddItem snapshots the product and merges it into the cart.
func (s *Service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	slug := strings.TrimSpace(input.ProductSlug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}

	product, err := s.products.ProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	size := input.SelectedSize
	if size != nil {
		trimmed := strings.TrimSpace(*size)
		if trimmed == "" {
			size = nil
		} else {
			if len(product.Sizes) > 0 && !product.HasSize(trimmed) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected size is not offered for this product").
					WithDetails(map[string]any{"size": trimmed})
			}
			size = &trimmed
		}
	}

	return s.mutate(ctx, sessionID, "add", func(c *Cart) {
		c.Add(SnapshotOf(*product), size, input.Quantity)
	})
}

// RemoveItem drops a line; unknown ids leave the cart unchanged.
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, "remove", func(c *Cart) {
		c.Remove(itemID)
	})
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, "update_quantity", func(c *Cart) {
		c.UpdateQuantity(itemID, quantity)
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, sessionID string) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, "clear", func(c *Cart) {
		c.Clear()
	})
}

func (s *Service) mutate(ctx context.Context, sessionID, op string, fn func(*Cart)) (*Cart, error) {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fn(c)
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	s.metrics.IncMutation(op)
	return c, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.store.Load(ctx, sessionID, session.EntryCart)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return &Cart{Items: []LineItem{}}, nil
		}
		s.metrics.IncStoreError("load")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.metrics.IncRestoreDiscarded()
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stored cart could not be decoded; starting empty")
		return &Cart{Items: []LineItem{}}, nil
	}
	if items == nil {
		items = []LineItem{}
	}
	return &Cart{Items: items}, nil
}

func (s *Service) save(ctx context.Context, sessionID string, c *Cart) error {
	items := c.Items
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Save(ctx, sessionID, session.EntryCart, payload); err != nil {
		s.metrics.IncStoreError("save")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
