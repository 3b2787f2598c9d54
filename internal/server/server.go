// Package server exposes the restaurant platform over HTTP: accounts,
// owner management pages, the ordering flow and the advisor pages.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/doralyyyyy/Restaurant-Platform/internal/advisor"
	"github.com/doralyyyyy/Restaurant-Platform/internal/auth"
	"github.com/doralyyyyy/Restaurant-Platform/internal/cart"
	"github.com/doralyyyyy/Restaurant-Platform/internal/db"
	"github.com/doralyyyyy/Restaurant-Platform/internal/imaging"
	"github.com/doralyyyyy/Restaurant-Platform/internal/metrics"
)

type Options struct {
	Store     *db.Store
	Sessions  *auth.Sessions
	Cart      *cart.Service
	Advisor   *advisor.Advisor
	Uploads   *imaging.Uploads
	Metrics   *metrics.Metrics // nil disables /metrics
	Log       *slog.Logger
	StaticDir string
	MaxBody   int64
}

// Server holds the handlers' dependencies.
type Server struct {
	store    *db.Store
	sessions *auth.Sessions
	cart     *cart.Service
	advisor  *advisor.Advisor
	uploads  *imaging.Uploads
	metrics  *metrics.Metrics
	log      *slog.Logger
	static   string
	maxBody  int64
}

func New(o Options) *Server {
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.MaxBody <= 0 {
		o.MaxBody = 10 << 20
	}
	return &Server{
		store:    o.Store,
		sessions: o.Sessions,
		cart:     o.Cart,
		advisor:  o.Advisor,
		uploads:  o.Uploads,
		metrics:  o.Metrics,
		log:      o.Log,
		static:   o.StaticDir,
		maxBody:  o.MaxBody,
	}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(securityHeaders)
	r.Use(s.limitBody)
	r.Use(auth.Middleware(s.sessions)) // soft: RequireAuth enforces below

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	if s.static != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.static))))
	}

	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/logout", s.handleLogout)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/manage", func(r chi.Router) {
			r.Get("/restaurant", s.handleGetRestaurant)
			r.Post("/restaurant", s.handleCreateRestaurant)
			r.Get("/dishes", s.handleManageDishes)
			r.Post("/dish/add/{categoryID}", s.handleAddDish)
			r.Get("/dish/{dishID}", s.handleDishDetail)
			r.Post("/dish/{dishID}/edit", s.handleEditDish)
			r.Post("/dish/{dishID}/delete", s.handleDeleteDish)
			r.Get("/customers", s.handleCustomers)
			r.Get("/customer/{userID}", s.handleCustomerHistory)
			r.Post("/customer/{userID}/toggle_blacklist", s.handleToggleBlacklist)
			r.Get("/reports", s.handleReports)
			r.Get("/advisor", s.handleOwnerAdvisor)
			r.Post("/advisor", s.handleOwnerAdvisor)
		})

		r.Get("/restaurants", s.handleRestaurants)
		r.Route("/restaurant/{restaurantID}", func(r chi.Router) {
			r.Get("/", s.handleMenu)
			r.Get("/dish/{dishID}", s.handleCustomerAdvisor)
			r.Post("/dish/{dishID}", s.handleCustomerAdvisor)
			r.Get("/my_table", s.handleMyTable)
			r.Post("/checkout", s.handleCheckout)
		})
		r.Post("/add_to_cart/{dishID}", s.handleAddToCart)
		r.Post("/update_cart/{restaurantID}/{dishID}", s.handleUpdateCart)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if auth.GetClaims(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// accessLog writes one structured line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request bodies at the configured upload size.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		}
		next.ServeHTTP(w, r)
	})
}
