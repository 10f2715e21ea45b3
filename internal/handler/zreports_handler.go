package handler

import (
	"net/http"

	"github.com/fisapp/receipt-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func listZReportsHandler(svc *service.ZReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/z-reports")
		defer span.End()

		reports, err := svc.List(ctx, tokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"reports": reports,
		})
	}
}

func uploadZReportHandler(svc *service.ZReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/z-reports/upload")
		defer span.End()

		image, enhance, err := readUpload(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := svc.Upload(ctx, tokenFromContext(ctx), image, enhance)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"report":  result.Report,
			"preview": result.Preview,
		})
	}
}

func deleteZReportHandler(svc *service.ZReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/z-reports/{id}")
		defer span.End()

		if err := svc.Delete(ctx, tokenFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
