package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// CheckoutPreparer builds the checkout page state for a session.
type CheckoutPreparer interface {
	Prepare(ctx context.Context, sessionID string, input checkout.PrepareInput) (*checkout.Checkout, error)
}

type checkoutInputPayload struct {
	Flow  *checkout.Flow `json:"flow"`
	Field string         `json:"field" validate:"required,max=50"`
	Value string         `json:"value" validate:"max=200"`
}

type checkoutFlowPayload struct {
	Flow *checkout.Flow `json:"flow"`
}

type checkoutStepResponse struct {
	Flow  *checkout.Flow `json:"flow"`
	Valid bool           `json:"valid"`
}

// CheckoutGet returns the checkout page: direct mode when ?product= is set,
// otherwise the session cart.
func CheckoutGet(svc CheckoutPreparer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, cart.MaxQuantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := checkout.PrepareInput{
			ProductSlug: validators.QueryString(r, "product", maxSlugLen),
			Quantity:    quantity,
		}
		if size := validators.QueryString(r, "size", maxSlugLen); size != "" {
			input.Size = &size
		}

		resp, err := svc.Prepare(ctx, middleware.SessionIDFromContext(ctx), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// CheckoutInput applies one field change (masked) to the posted flow.
func CheckoutInput(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload checkoutInputPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		flow := flowOrNew(payload.Flow)
		if err := flow.SetField(payload.Field, payload.Value); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

// CheckoutNext validates the current step and advances when it is valid.
// Field errors come back on the flow, not as a request error.
func CheckoutNext(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		flow, ok := decodeFlow(ctx, w, r, logg)
		if !ok {
			return
		}
		valid := flow.Next()
		responses.WriteSuccess(w, checkoutStepResponse{Flow: flow, Valid: valid})
	}
}

func CheckoutPrevious(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		flow, ok := decodeFlow(ctx, w, r, logg)
		if !ok {
			return
		}
		flow.Previous()
		responses.WriteSuccess(w, flow)
	}
}

// CheckoutSubmit never places an order.
func CheckoutSubmit(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		flow, ok := decodeFlow(ctx, w, r, logg)
		if !ok {
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "step", int(flow.Step)), "checkout.submit_disabled")
		}
		responses.WriteSuccess(w, flow.Submit())
	}
}

func decodeFlow(ctx context.Context, w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*checkout.Flow, bool) {
	var payload checkoutFlowPayload
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(ctx, logg, w, err)
		return nil, false
	}
	return flowOrNew(payload.Flow), true
}

func flowOrNew(flow *checkout.Flow) *checkout.Flow {
	if flow == nil {
		return checkout.NewFlow()
	}
	flow.Normalize()
	return flow
}
