package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/infra/observability"
	"github.com/fisapp/receipt-bff-go/internal/service"

	"go.uber.org/zap"
)

func dashboardHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()

		overview, err := svc.Overview(ctx, tokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"stats":           overview.Stats,
			"recent_receipts": overview.RecentReceipts,
		})
	}
}

// exportExcelHandler builds the bookkeeper workbook. The client may POST
// its already-loaded receipt list; an empty body or empty list falls back
// to fetching the caller's receipts.
func exportExcelHandler(receiptSvc *service.ReceiptService, exportSvc *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/export-excel")
		defer span.End()

		var req struct {
			Receipts []domain.Receipt `json:"receipts"`
		}
		if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		receipts := req.Receipts
		if len(receipts) == 0 {
			var err error
			receipts, err = receiptSvc.List(ctx, tokenFromContext(ctx))
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}

		data, filename, err := exportSvc.Build(receipts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func uploadMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"metrics": metrics.GetUploadSnapshot(),
		})
	}
}
