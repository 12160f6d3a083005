package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/carousel"
	products "github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/catalog"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

type breakerReporter interface {
	BreakerState() string
}

// NewRouter wires the storefront HTTP surface. redisClient may be nil, in
// which case mutating requests are not rate limited. metricsHandler may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessionStore controllers.Pinger,
	redisClient *redis.Client,
	catalogSource catalog.Source,
	catalogBreaker breakerReporter,
	productService products.Service,
	cartService controllers.CartService,
	wishlistService wishlist.Service,
	checkoutService controllers.CheckoutPreparer,
	carousels *carousel.Registry,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	mediaBase := cfg.Catalog.MediaBase()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, sessionStore, catalogBreaker))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))
		if redisClient != nil {
			policy := middleware.NewRateLimitPolicy(
				"storefront",
				cfg.RateLimit.Window,
				cfg.RateLimit.IPLimit,
				cfg.RateLimit.SessionLimit,
			)
			r.Use(middleware.RateLimit(policy, redisClient, logg))
		}

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CatalogCategories(catalogSource, logg))
			r.Get("/products", controllers.CatalogProducts(productService, logg))
			r.Get("/products/{slug}", controllers.CatalogProduct(productService, logg))
			r.Get("/gallery", controllers.CatalogGallery(catalogSource, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, mediaBase, logg))
			r.Delete("/", controllers.CartClear(cartService, mediaBase, logg))
			r.Post("/items", controllers.CartAddItem(cartService, mediaBase, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, mediaBase, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, mediaBase, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistGet(wishlistService, logg))
			r.Post("/{productId}/toggle", controllers.WishlistToggle(wishlistService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutGet(checkoutService, logg))
			r.Post("/input", controllers.CheckoutInput(logg))
			r.Post("/next", controllers.CheckoutNext(logg))
			r.Post("/previous", controllers.CheckoutPrevious(logg))
			r.Post("/submit", controllers.CheckoutSubmit(logg))
		})

		r.Route("/carousel", func(r chi.Router) {
			r.Get("/stream", controllers.CarouselStream(catalogSource, carousels, logg))
			r.Post("/select/{index}", controllers.CarouselSelect(carousels, logg))
			r.Post("/{action}", controllers.CarouselAction(carousels, logg))
		})
	})

	return r
}
