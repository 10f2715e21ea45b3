package handler

import (
	"net/http"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/infra/observability"
	"github.com/fisapp/receipt-bff-go/internal/service"
	"github.com/fisapp/receipt-bff-go/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups everything the router needs.
type Services struct {
	Auth     *service.AuthService
	Receipts *service.ReceiptService
	ZReports *service.ZReportService
	Export   *service.ExportService
	Sessions *session.Store
	Metrics  *observability.Metrics
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract the mobile client speaks.
func NewRouter(svcs Services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Sessions))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(svcs.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {

		// Public routes
		r.Post("/auth/login", authLoginHandler(svcs.Auth, logger))
		r.Post("/auth/register", authRegisterHandler(svcs.Auth, logger))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(SessionGuard(svcs.Auth, logger))

			r.Get("/auth/me", authMeHandler())
			r.Post("/auth/logout", authLogoutHandler(svcs.Auth))

			// Receipts
			r.Get("/receipts", listReceiptsHandler(svcs.Receipts, logger))
			r.Post("/receipts/upload", uploadReceiptHandler(svcs.Receipts, logger))
			r.Get("/receipts/stats", receiptStatsHandler(svcs.Receipts, logger))
			r.Put("/receipts/{id}", updateReceiptHandler(svcs.Receipts, logger))
			r.Delete("/receipts/{id}", deleteReceiptHandler(svcs.Receipts, logger))

			// Z-reports
			r.Get("/z-reports", listZReportsHandler(svcs.ZReports, logger))
			r.Post("/z-reports/upload", uploadZReportHandler(svcs.ZReports, logger))
			r.Delete("/z-reports/{id}", deleteZReportHandler(svcs.ZReports, logger))

			// Dashboard, export, metrics snapshot
			r.Get("/dashboard", dashboardHandler(svcs.Receipts, logger))
			r.Post("/export-excel", exportExcelHandler(svcs.Receipts, svcs.Export, logger))
			r.Get("/metrics/uploads", uploadMetricsHandler(svcs.Metrics))
		})
	})

	return r
}

func healthzHandler(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"sessions":  sessions.Len(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
