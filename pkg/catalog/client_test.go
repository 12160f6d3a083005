package catalog

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	testBase = "http://cms.test"

	categoriesBody = `{"data":[
		{"id":1,"Name":"Digital","slug":"digital","products":[
			{"id":10,"slug":"dw-5600","title":"DW-5600","price":"99.00","Description":[],"images":[{"url":"/uploads/dw.png"}]}
		]},
		{"id":2,"Name":"Analog","slug":"analog","products":[
			{"id":20,"slug":"ga-2100","title":"GA-2100","price":"120.50","images":[]}
		]}
	]}`

	productsBody = `{"data":[
		{"id":10,"attributes":{"slug":"dw-5600","title":"DW-5600","price":"99.00","size":[{"id":1,"size":"M"}],"catagory":{"id":1,"Name":"Digital"}}},
		{"id":20,"slug":"ga-2100","title":"GA-2100","price":120.5,"isNew":true,"series":"CasiOak","releaseDate":"2025-06"},
		{"id":30,"slug":"no-price","title":"Missing"}
	]}`

	galleryBody = `{"data":[{"id":1,"carosel":[
		{"id":7,"url":"/uploads/slide1.png","name":"slide1"},
		{"id":8,"url":"https://cdn.test/slide2.png","name":"slide2"}
	]}]}`
)

func TestClientCategoriesRequest(t *testing.T) {
	var capturedURL string
	var capturedHeaders http.Header
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		return jsonResponse(http.StatusOK, categoriesBody), nil
	})

	categories, err := client.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if capturedURL != testBase+"/api/catagories?populate[products][populate]=images" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Accept") != "application/json" {
		t.Fatalf("accept header missing")
	}
	if len(categories) != 2 || len(categories[0].Products) != 1 {
		t.Fatalf("unexpected categories %+v", categories)
	}
	p := categories[0].Products[0]
	if p.Category == nil || p.Category.ID != 1 || p.Category.Name != "Digital" {
		t.Fatalf("expected product to inherit its category, got %+v", p.Category)
	}
	if p.Price != "99.00" || len(p.Images) != 1 {
		t.Fatalf("unexpected product %+v", p)
	}
}

func TestClientProductsNormalizesShapes(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != testBase+"/api/products?populate=*" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		return jsonResponse(http.StatusOK, productsBody), nil
	})

	products, err := client.Products(context.Background())
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}

	nested := products[0]
	if nested.ID != 10 || nested.Slug != "dw-5600" || !nested.HasSize("M") || nested.Category.Name != "Digital" {
		t.Fatalf("nested attributes not normalized: %+v", nested)
	}

	flat := products[1]
	if flat.Price != "120.5" || !flat.IsNew || flat.Series != "CasiOak" || flat.ReleaseDate != "2025-06" {
		t.Fatalf("flat product not normalized: %+v", flat)
	}

	missing := products[2]
	if missing.Price != "0" || missing.Images == nil || missing.Sizes == nil || missing.Description == nil {
		t.Fatalf("expected defaults on sparse product: %+v", missing)
	}
}

func TestClientProductBySlug(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, productsBody), nil
	})

	product, err := client.ProductBySlug(context.Background(), "ga-2100")
	if err != nil {
		t.Fatalf("product by slug: %v", err)
	}
	if product.ID != 20 {
		t.Fatalf("unexpected product %+v", product)
	}

	_, err = client.ProductBySlug(context.Background(), "unknown")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = client.ProductBySlug(context.Background(), "  ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientGalleryAbsolutifiesURLs(t *testing.T) {
	client, err := NewClient(testBase,
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.String() != testBase+"/api/galleries/?populate=*" {
				t.Fatalf("unexpected URL %q", req.URL.String())
			}
			return jsonResponse(http.StatusOK, galleryBody), nil
		})}),
		WithMediaBase("https://media.test/"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	slides, err := client.Gallery(context.Background())
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(slides))
	}
	if slides[0].URL != "https://media.test/uploads/slide1.png" {
		t.Fatalf("relative url not prefixed: %q", slides[0].URL)
	}
	if slides[1].URL != "https://cdn.test/slide2.png" {
		t.Fatalf("absolute url changed: %q", slides[1].URL)
	}
}

func TestClientGalleryEmpty(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[]}`), nil
	})
	slides, err := client.Gallery(context.Background())
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if len(slides) != 0 {
		t.Fatalf("expected no slides, got %d", len(slides))
	}
}

func TestClientNon2xxIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `upstream down`), nil
	})

	_, err := client.Categories(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(pkgerrors.Dump(err).Chain[len(pkgerrors.Dump(err).Chain)-1], "status 502") {
		t.Fatalf("expected status in error chain, got %+v", pkgerrors.Dump(err).Chain)
	}
}

func TestClientCapsResponseBody(t *testing.T) {
	client, err := NewClient(testBase,
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, galleryBody), nil
		})}),
		WithMaxBodyBytes(32),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Gallery(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency || typed.Message() != "catalog response too large" {
		t.Fatalf("expected oversized body to fail, got %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	client, err := NewClient(testBase,
		WithTimeout(20*time.Millisecond),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Products(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if typed.Message() != "catalog request timed out" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestClientBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	client, err := NewClient(testBase,
		WithBreaker(2, time.Minute, 1),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			calls.Add(1)
			return jsonResponse(http.StatusInternalServerError, "boom"), nil
		})}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := client.Gallery(context.Background()); err == nil {
			t.Fatalf("expected failure %d", i)
		}
	}
	if client.BreakerState() != "open" {
		t.Fatalf("expected open breaker, got %s", client.BreakerState())
	}

	_, err = client.Gallery(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "catalog temporarily unavailable" {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open breaker should short-circuit, transport saw %d calls", calls.Load())
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(testBase, WithHTTPClient(&http.Client{Transport: fn}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
