package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// CartService is the session-scoped cart surface used by the handlers.
type CartService interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	AddItem(ctx context.Context, sessionID string, input cart.AddItemInput) (*cart.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) (*cart.Cart, error)
}

type addCartItemPayload struct {
	ProductSlug  string  `json:"productSlug" validate:"required,max=200"`
	SelectedSize *string `json:"selectedSize,omitempty" validate:"omitempty,max=50"`
	Quantity     int     `json:"quantity" validate:"lte=99"`
}

type updateCartItemPayload struct {
	Quantity *int `json:"quantity" validate:"required,lte=99"`
}

// CartGet returns the cart drawer view.
func CartGet(svc CartService, mediaBase string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c, err := svc.Get(ctx, middleware.SessionIDFromContext(ctx))
		writeCart(ctx, w, logg, c, err, mediaBase, http.StatusOK)
	}
}

// CartAddItem merges a product into the cart and returns the drawer view.
func CartAddItem(svc CartService, mediaBase string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		c, err := svc.AddItem(ctx, middleware.SessionIDFromContext(ctx), cart.AddItemInput{
			ProductSlug:  payload.ProductSlug,
			SelectedSize: payload.SelectedSize,
			Quantity:     payload.Quantity,
		})
		writeCart(ctx, w, logg, c, err, mediaBase, http.StatusCreated)
	}
}

// CartUpdateItem sets an absolute quantity; zero or less removes the line.
func CartUpdateItem(svc CartService, mediaBase string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID := chi.URLParam(r, "itemId")
		if itemID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}
		c, err := svc.UpdateQuantity(ctx, middleware.SessionIDFromContext(ctx), itemID, *payload.Quantity)
		writeCart(ctx, w, logg, c, err, mediaBase, http.StatusOK)
	}
}

func CartRemoveItem(svc CartService, mediaBase string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c, err := svc.RemoveItem(ctx, middleware.SessionIDFromContext(ctx), chi.URLParam(r, "itemId"))
		writeCart(ctx, w, logg, c, err, mediaBase, http.StatusOK)
	}
}

func CartClear(svc CartService, mediaBase string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c, err := svc.Clear(ctx, middleware.SessionIDFromContext(ctx))
		writeCart(ctx, w, logg, c, err, mediaBase, http.StatusOK)
	}
}

func writeCart(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, c *cart.Cart, err error, mediaBase string, status int) {
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	view, err := cart.BuildView(c, mediaBase)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, view)
}
