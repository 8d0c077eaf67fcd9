package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/aquadrop/api/controllers"
	cartcontrollers "github.com/angelmondragon/aquadrop/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/aquadrop/api/controllers/orders"
	"github.com/angelmondragon/aquadrop/api/middleware"
	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/internal/orders"
	"github.com/angelmondragon/aquadrop/pkg/config"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

// Catalog is the full *catalog.Service surface used by the routes.
type Catalog interface {
	controllers.CatalogReader
	controllers.CatalogWriter
}

var _ Catalog = (*catalog.Service)(nil)

// Params groups the services mounted by NewRouter.
type Params struct {
	Config       *config.Config
	Logger       *logger.Logger
	Identities   middleware.IdentityResolver
	Carts        middleware.CartBinder
	Catalog      Catalog
	Discovery    controllers.Discoverer
	Orders       orders.Service
	Gatherer     prometheus.Gatherer
	Dependencies []controllers.Dependency
	CORSOrigins  []string
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(p.CORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Dependencies...))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", controllers.SessionStart(cfg.Session, logg, nil))

		r.Get("/vendors/{vendorId}", controllers.VendorDetail(p.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(p.Catalog, logg))

		r.Route("/discovery", func(r chi.Router) {
			r.Get("/products", controllers.DiscoverProducts(p.Discovery, logg))
			r.Get("/vendors", controllers.DiscoverVendors(p.Discovery, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg))
			r.Use(middleware.Auth(p.Identities, p.Carts, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(logg))
				r.Delete("/", cartcontrollers.CartClear(logg))
				r.Post("/items", cartcontrollers.CartAddItem(p.Catalog, logg))
				r.Patch("/items/{productId}", cartcontrollers.CartUpdateQuantity(logg))
				r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Get("/", ordercontrollers.List(p.Orders, logg))
				r.Post("/", ordercontrollers.PlaceOrder(p.Orders, logg))
			})

			r.Route("/vendor", func(r chi.Router) {
				r.Use(middleware.RequireVendor(logg))
				r.Get("/dashboard", ordercontrollers.VendorDashboard(p.Orders, logg))
				r.Get("/orders", ordercontrollers.VendorList(p.Orders, logg))
				r.Patch("/orders/{orderId}/status", ordercontrollers.VendorUpdateStatus(p.Orders, logg))
				r.Post("/products", controllers.VendorCreateProduct(p.Catalog, logg))
				r.Patch("/products/{productId}/stock", controllers.VendorUpdateStock(p.Catalog, logg))
			})
		})
	})

	return r
}
