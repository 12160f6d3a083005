// Package catalog reads categories, products and the gallery from the headless CMS.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/images"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout             = 10 * time.Second
	responseBodyReadLimit int64 = 1024
	defaultMaxBodyBytes   int64 = 8 << 20

	categoriesPath = "/api/catagories?populate[products][populate]=images"
	productsPath   = "/api/products?populate=*"
	galleryPath    = "/api/galleries/?populate=*"

	ResourceCategories = "categories"
	ResourceProducts   = "products"
	ResourceGallery    = "gallery"
)

var errBaseURLRequired = errors.New("catalog base url is required")

// Source is the read surface shared by Client and CachedSource.
type Source interface {
	Categories(ctx context.Context) ([]Category, error)
	Products(ctx context.Context) ([]Product, error)
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
	Gallery(ctx context.Context) ([]GalleryImage, error)
}

// Client talks to the CMS REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	mediaBase  string
	timeout    time.Duration
	settings   gobreaker.Settings
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *metrics.CatalogMetrics
	maxBody    int64
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMediaBase sets the prefix for relative gallery URLs. Defaults to the base URL.
func WithMediaBase(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(base); trimmed != "" {
			c.mediaBase = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout overrides the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreaker tunes the circuit breaker: consecutive failures before opening,
// how long it stays open and how many probes pass while half-open.
func WithBreaker(maxFailures uint32, openTimeout time.Duration, halfOpenProbes uint32) Option {
	return func(c *Client) {
		if maxFailures > 0 {
			c.settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			}
		}
		if openTimeout > 0 {
			c.settings.Timeout = openTimeout
		}
		if halfOpenProbes > 0 {
			c.settings.MaxRequests = halfOpenProbes
		}
	}
}

// WithMaxBodyBytes caps how much of a successful response is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the CMS client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		timeout:    defaultTimeout,
		maxBody:    defaultMaxBodyBytes,
		settings: gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.mediaBase == "" {
		client.mediaBase = client.baseURL
	}
	client.settings.OnStateChange = func(name string, _, to gobreaker.State) {
		client.metrics.SetBreakerState(name, int(to))
	}
	client.breaker = gobreaker.NewCircuitBreaker[[]byte](client.settings)
	return client, nil
}

// BreakerState reports the circuit breaker state for readiness checks.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Categories returns every category with its products and their images.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var resp struct {
		Data []rawCategory `json:"data"`
	}
	if err := c.get(ctx, ResourceCategories, categoriesPath, &resp); err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(resp.Data))
	for _, rc := range resp.Data {
		out = append(out, rc.normalize())
	}
	return out, nil
}

// Products returns the fully populated product list.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var resp struct {
		Data []rawProduct `json:"data"`
	}
	if err := c.get(ctx, ResourceProducts, productsPath, &resp); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(resp.Data))
	for _, rp := range resp.Data {
		out = append(out, rp.normalize())
	}
	return out, nil
}

// ProductBySlug lists products and returns the one matching slug.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	return productBySlug(ctx, c, slug)
}

// Gallery returns the slides of the first gallery with absolute URLs.
func (c *Client) Gallery(ctx context.Context) ([]GalleryImage, error) {
	var resp struct {
		Data []rawGallery `json:"data"`
	}
	if err := c.get(ctx, ResourceGallery, galleryPath, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return []GalleryImage{}, nil
	}
	out := make([]GalleryImage, 0, len(resp.Data[0].Carosel))
	for _, img := range resp.Data[0].Carosel {
		img.URL = images.Absolute(img.URL, c.mediaBase)
		out = append(out, img)
	}
	return out, nil
}

func productBySlug(ctx context.Context, src Source, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	products, err := src.Products(ctx)
	if err != nil {
		return nil, err
	}
	product := FindBySlug(products, slug)
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"slug": slug})
	}
	return product, nil
}

func (c *Client) get(ctx context.Context, resource, path string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path)
	})
	c.metrics.ObserveRequest(resource, time.Since(start), err)
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog temporarily unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog request timed out")
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", resource))
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read catalog response")
	}
	if int64(len(body)) > c.maxBody {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog response too large").
			WithDetails(map[string]any{"limit_bytes": c.maxBody})
	}
	return body, nil
}
