package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadBytes bounds the raw multipart body before processing. Phone
// camera originals run up to about 12 MB; 20 gives headroom.
const maxUploadBytes = 20 << 20

func listReceiptsHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/receipts")
		defer span.End()

		receipts, err := svc.List(ctx, tokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"receipts": receipts,
		})
	}
}

func uploadReceiptHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/receipts/upload")
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
			"success":       true,
			"receipt":       result.Receipt,
			"needs_review":  result.NeedsReview,
			"review_reason": result.ReviewReason,
			"preview":       result.Preview,
		})
	}
}

func updateReceiptHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/receipts/{id}")
		defer span.End()

		var upd domain.ReceiptUpdate
		if err := decodeBody(r, &upd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		receipt, err := svc.Update(ctx, tokenFromContext(ctx), chi.URLParam(r, "id"), &upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"receipt": receipt,
		})
	}
}

func deleteReceiptHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/receipts/{id}")
		defer span.End()

		if err := svc.Delete(ctx, tokenFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func receiptStatsHandler(svc *service.ReceiptService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/receipts/stats")
		defer span.End()

		stats, err := svc.Stats(ctx, tokenFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"stats":   stats,
		})
	}
}

// readUpload pulls the image and the enhance flag out of a multipart
// form. The file field is named "receipt" for both upload kinds.
func readUpload(r *http.Request) ([]byte, bool, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, false, &domain.ErrValidation{Field: "receipt", Message: "invalid multipart form"}
	}

	file, _, err := r.FormFile("receipt")
	if err != nil {
		// older client builds named the field "image"
		file, _, err = r.FormFile("image")
	}
	if err != nil {
		return nil, false, &domain.ErrValidation{Field: "receipt", Message: "image file is required"}
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, false, &domain.ErrValidation{Field: "receipt", Message: "could not read image file"}
	}

	enhance, _ := strconv.ParseBool(r.FormValue("enhance"))
	return image, enhance, nil
}
