package controller

import (
	"net/http"

	"camgrocer/model"
	"camgrocer/pkg/metrics"
	"camgrocer/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	Users        *usecase.UserUsecase
	Stores       *usecase.StoreUsecase
	Products     *usecase.ProductUsecase
	Orders       *usecase.OrderUsecase
	Negotiations *usecase.NegotiationUsecase

	Metrics *metrics.Metrics
	Logger  *zap.Logger

	CORSOrigin     string
	UploadDir      string
	MaxUploadBytes int64
}

// NewRouter wires every HTTP route of the marketplace API.
func NewRouter(o Options) http.Handler {
	logger := o.Logger.Named("http")

	users := NewUserController(o.Users, logger)
	stores := NewStoreController(o.Stores, logger)
	products := NewProductController(o.Products, logger)
	orders := NewOrderController(o.Orders, logger)
	negotiations := NewNegotiationController(o.Negotiations, logger)
	uploads := NewUploadController(o.UploadDir, o.MaxUploadBytes, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors(o.CORSOrigin))
	r.Use(observe(logger, o.Metrics))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate(o.Users, logger))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":              "ok",
				"service":             "camgrocer",
				"negotiations_active": o.Negotiations.Active(),
			})
		})

		r.Post("/auth/register", users.Register)
		r.Post("/auth/login", users.Login)

		r.Get("/stores", stores.ListPublic)
		r.Get("/stores/{id}", stores.Get)
		r.Get("/products", products.ListPublic)
		r.Get("/products/{id}", products.Get)

		r.Post("/products/{id}/negotiations", negotiations.Open)
		r.Get("/negotiations/{id}", negotiations.Get)
		r.Delete("/negotiations/{id}", negotiations.Close)
		r.Post("/negotiations/{id}/offers", negotiations.Submit)
		r.Put("/negotiations/{id}/language", negotiations.SetLanguage)
		r.Post("/negotiations/{id}/commit", negotiations.Commit)

		r.Group(func(r chi.Router) {
			r.Use(requireRole())
			r.Get("/auth/me", users.Me)
			r.Post("/orders", orders.Place)
			r.Get("/orders/mine", orders.ListMine)
			r.Get("/orders/{id}", orders.Get)
			r.Put("/orders/{id}/status", orders.UpdateStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.RoleStoreOwner, model.RoleAdmin))
			r.Post("/stores", stores.Create)
			r.Get("/stores/mine", stores.ListMine)
			r.Put("/stores/{id}", stores.Update)
			r.Delete("/stores/{id}", stores.Delete)
			r.Get("/stores/{id}/products", products.ListByStore)
			r.Get("/stores/{id}/orders", orders.ListForStore)
			r.Post("/products", products.Create)
			r.Put("/products/{id}", products.Update)
			r.Delete("/products/{id}", products.Delete)
			r.Post("/uploads", uploads.Upload)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(model.RoleAdmin))
			r.Get("/users", users.List)
			r.Put("/users/{id}/role", users.SetRole)
			r.Delete("/users/{id}", users.Delete)
			r.Get("/stores", stores.ListAll)
			r.Post("/stores/{id}/approve", stores.Approve)
			r.Post("/stores/{id}/reject", stores.Reject)
			r.Get("/products", products.ListAll)
			r.Post("/products/{id}/approve", products.Approve)
			r.Post("/products/{id}/reject", products.Reject)
			r.Get("/orders", orders.ListAll)
		})
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(o.UploadDir))))
	r.Handle("/metrics", o.Metrics.Handler())

	return r
}
