package app

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/santurist/santurist/internal/apperrors"
	"github.com/santurist/santurist/internal/audit"
	"github.com/santurist/santurist/internal/auth"
	"github.com/santurist/santurist/internal/bookings"
	"github.com/santurist/santurist/internal/config"
	"github.com/santurist/santurist/internal/earnings"
	"github.com/santurist/santurist/internal/invitations"
	"github.com/santurist/santurist/internal/leads"
	"github.com/santurist/santurist/internal/notify"
	"github.com/santurist/santurist/internal/onboarding"
	"github.com/santurist/santurist/internal/orders"
	"github.com/santurist/santurist/internal/payments"
	"github.com/santurist/santurist/internal/providers"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(pool *pgxpool.Pool, cfg *config.Config, gateway payments.Gateway, mailer *notify.Mailer) *chi.Mux {
	r := chi.NewRouter()

	isProduction := !cfg.IsDev()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.AuthMiddleware(cfg.JWTSecret))

	auditor := audit.NewWriter(pool)
	reconciler := payments.NewReconciler(
		gateway,
		orders.NewService(pool),
		bookings.NewService(pool),
		earnings.NewService(pool),
		mailer,
	)

	// Health check routes (no authentication required)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool))

	// Payment gateway webhook. Signature verification happens inside the
	// handler; the rate limit only guards against redelivery storms.
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(WebhookRateLimitMiddleware(cfg.WebhookRateLimitRPM))
		webhook := payments.HandleWebhook(reconciler, cfg.MercadoPagoWebhookSecret)
		r.Get("/webhook", webhook)
		r.Post("/webhook", webhook)
	})

	// API routes - Authentication
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware())

		r.With(LoginRateLimitMiddleware()).Post("/login", auth.HandleLogin(pool, cfg.JWTSecret, cfg.SessionDays, isProduction))
		r.With(auth.RequireAdmin).Post("/logout", auth.HandleLogout())
	})

	// Public routes - customer and prospective-provider facing
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(PublicRateLimitMiddleware(cfg.RateLimitRPM))

		// Invitation code check during signup
		r.Post("/api/v1/invitations/validate", invitations.HandleValidate(pool))

		// Onboarding flow
		r.Post("/api/v1/onboarding", onboarding.HandleStart(pool))
		r.Get("/api/v1/onboarding/{id}", onboarding.HandleGet(pool))
		r.Post("/api/v1/onboarding/{id}/steps", onboarding.HandleSubmitStep(pool))
		r.Post("/api/v1/onboarding/{id}/finalize", onboarding.HandleFinalize(pool))

		// Catalog and checkout
		r.Get("/api/v1/providers", providers.HandleList(pool))
		r.Get("/api/v1/providers/{id}", providers.HandleGet(pool))
		r.Post("/api/v1/orders", orders.HandleCreate(pool))
		r.Get("/api/v1/orders/{id}", orders.HandleGet(pool))

		// Direct bookings
		r.Post("/api/v1/bookings/tours", bookings.HandleCreateTourBooking(pool))
		r.Get("/api/v1/bookings/tours/{id}", bookings.HandleGetTourBooking(pool))
		r.Post("/api/v1/bookings/deliveries", bookings.HandleCreateDeliveryOrder(pool))
		r.Get("/api/v1/bookings/deliveries/{id}", bookings.HandleGetDeliveryOrder(pool))
	})

	// Admin routes - require an authenticated admin session
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware())
		r.Use(auth.RequireAdmin)

		// Invitations
		r.Route("/api/v1/invitations", func(r chi.Router) {
			r.Post("/", invitations.HandleCreate(pool, auditor))
			r.Get("/", invitations.HandleList(pool))
			r.Get("/stats", invitations.HandleStats(pool))
			r.Post("/{id}/send", invitations.HandleSend(pool, auditor, mailer))
			r.Post("/{id}/cancel", invitations.HandleCancel(pool, auditor))
			r.Patch("/{id}/status", invitations.HandleUpdateStatus(pool))
		})

		// Provider leads CRM
		r.Route("/api/v1/leads", func(r chi.Router) {
			r.Post("/", leads.HandleCreate(pool, auditor))
			r.Get("/", leads.HandleList(pool))
			r.Post("/{id}/contacts", leads.HandleRecordContact(pool, auditor))
			r.Get("/{id}/contacts", leads.HandleListContacts(pool))
			r.Post("/{id}/deactivate", leads.HandleDeactivate(pool))
		})

		// Provider and order management
		r.Post("/api/v1/providers/mock", providers.HandleCreateMock(pool))
		r.Post("/api/v1/orders/{id}/cancel", orders.HandleCancel(pool, auditor))
		r.Patch("/api/v1/orders/sub/{id}/status", orders.HandleUpdateSubOrderStatus(pool))

		// Earnings and payouts
		r.Route("/api/v1/earnings", func(r chi.Router) {
			r.Get("/payouts", earnings.HandleListPayouts(pool))
			r.Post("/payouts", earnings.HandleRequestPayout(pool, auditor))
			r.Post("/payouts/{id}/process", earnings.HandleProcessPayout(pool, auditor))
			r.Post("/payouts/{id}/reject", earnings.HandleRejectPayout(pool))
			r.Get("/{providerID}", earnings.HandleGetByProvider(pool))
			r.Get("/{providerID}/transactions", earnings.HandleListTransactions(pool))
		})

		// Seed data and audit trail
		r.Post("/api/v1/admin/seed", providers.HandleSeed(pool, auditor))
		r.Post("/api/v1/admin/cleanup", providers.HandleCleanup(pool, auditor))
		r.Get("/api/v1/admin/audit", handleAuditLog(pool))
	})

	return r
}

// handleHealthz returns a simple liveness check
// Always returns 200 OK if the service is running
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz returns a readiness check that includes database connectivity
// Returns 200 OK if service is ready to accept traffic, 503 if not
func handleReadyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database connection failed")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
			"db":     "ok",
		})
	}
}

// handleAuditLog lists recent audit entries for the admin console.
func handleAuditLog(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		entries, err := audit.NewReader(pool).List(r.Context(), action, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list audit log")
			apperrors.WriteInternalError(w, r, "Failed to list audit log")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"entries": entries,
		})
	}
}
