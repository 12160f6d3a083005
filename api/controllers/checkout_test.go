package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/checkout"
	pkgcheckout "github.com/angelmondragon/storefront/pkg/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type stubPreparer struct {
	input checkout.PrepareInput
	resp  *checkout.Checkout
	err   error
}

func (s *stubPreparer) Prepare(ctx context.Context, sessionID string, input checkout.PrepareInput) (*checkout.Checkout, error) {
	s.input = input
	return s.resp, s.err
}

func TestCheckoutGetParsesDirectQuery(t *testing.T) {
	svc := &stubPreparer{resp: &checkout.Checkout{Mode: checkout.ModeDirect, Flow: checkout.NewFlow()}}
	handler := CheckoutGet(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodGet, "/api/v1/checkout?product=tee&quantity=3&size=L", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.ProductSlug != "tee" || svc.input.Quantity != 3 {
		t.Fatalf("unexpected input: %+v", svc.input)
	}
	if svc.input.Size == nil || *svc.input.Size != "L" {
		t.Fatalf("expected size L, got %v", svc.input.Size)
	}
}

func TestCheckoutGetDefaultsQuantity(t *testing.T) {
	svc := &stubPreparer{resp: &checkout.Checkout{Mode: checkout.ModeCart, Flow: checkout.NewFlow()}}
	handler := CheckoutGet(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodGet, "/api/v1/checkout", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.input.Quantity != 1 || svc.input.ProductSlug != "" || svc.input.Size != nil {
		t.Fatalf("unexpected input: %+v", svc.input)
	}
}

func TestCheckoutGetRejectsBadQuantity(t *testing.T) {
	handler := CheckoutGet(&stubPreparer{}, nil)

	for _, target := range []string{"/api/v1/checkout?product=tee&quantity=abc", "/api/v1/checkout?product=tee&quantity=0"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, newSessionRequest(http.MethodGet, target, ""))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, resp.Code)
		}
	}
}

func TestCheckoutGetProductNotFound(t *testing.T) {
	handler := CheckoutGet(&stubPreparer{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodGet, "/api/v1/checkout?product=ghost", ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCheckoutInputAppliesMask(t *testing.T) {
	handler := CheckoutInput(nil)

	body := `{"flow":{"step":2,"errors":{"cardNumber":"Please enter a valid card number"}},"field":"cardNumber","value":"4242424242424242"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodPost, "/api/v1/checkout/input", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var flow checkout.Flow
	decodeData(t, resp.Body, &flow)
	if flow.Payment.CardNumber != "4242 4242 4242 4242" {
		t.Fatalf("unexpected masked card: %q", flow.Payment.CardNumber)
	}
	if _, ok := flow.Errors[pkgcheckout.FieldCardNumber]; ok {
		t.Fatal("expected card error to be cleared")
	}
}

func TestCheckoutInputUnknownField(t *testing.T) {
	handler := CheckoutInput(nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodPost, "/api/v1/checkout/input", `{"field":"coupon","value":"x"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutNextReportsFieldErrors(t *testing.T) {
	handler := CheckoutNext(nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodPost, "/api/v1/checkout/next", `{"flow":{"step":1}}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var out checkoutStepResponse
	decodeData(t, resp.Body, &out)
	if out.Valid || out.Flow.Step != pkgcheckout.StepShipping {
		t.Fatalf("expected to stay on shipping, got %+v", out)
	}
	if out.Flow.Errors[pkgcheckout.FieldFirstName] != "First name is required" {
		t.Fatalf("unexpected errors: %v", out.Flow.Errors)
	}
}

func TestCheckoutNextAdvances(t *testing.T) {
	handler := CheckoutNext(nil)

	body := `{"flow":{"step":1,"shipping":{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","phone":"555-0100","address":"1 Main St","city":"Springfield","state":"IL","zipCode":"62701","country":"US"}}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodPost, "/api/v1/checkout/next", body))

	var out checkoutStepResponse
	decodeData(t, resp.Body, &out)
	if !out.Valid || out.Flow.Step != pkgcheckout.StepPayment {
		t.Fatalf("expected payment step, got %+v", out.Flow)
	}
}

func TestCheckoutPreviousNeverBelowShipping(t *testing.T) {
	handler := CheckoutPrevious(nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodPost, "/api/v1/checkout/previous", `{"flow":{"step":1}}`))

	var flow checkout.Flow
	decodeData(t, resp.Body, &flow)
	if flow.Step != pkgcheckout.StepShipping {
		t.Fatalf("expected shipping step, got %d", flow.Step)
	}
}

func TestCheckoutSubmitIsDisabled(t *testing.T) {
	handler := CheckoutSubmit(nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newSessionRequest(http.MethodPost, "/api/v1/checkout/submit", `{"flow":{"step":2}}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var out checkout.SubmitResult
	decodeData(t, resp.Body, &out)
	if out.Status != checkout.SubmissionDisabled || out.Submitted {
		t.Fatalf("unexpected submit result: %+v", out)
	}
}
