package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/imaging"
	"github.com/fisapp/receipt-bff-go/internal/infra/observability"
	"github.com/fisapp/receipt-bff-go/internal/infra/resilience"
	"github.com/fisapp/receipt-bff-go/internal/port"
	"github.com/fisapp/receipt-bff-go/internal/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var receiptTracer = otel.Tracer("service/receipts")

// Review messages surfaced with the upload result.
const (
	reviewTotalUnreadable  = "total amount could not be read; check the record manually"
	reviewFieldsIncomplete = "some fields could not be read; check the record manually"
)

// ReceiptService orchestrates the receipt flows: pre-process the image,
// delegate OCR/persistence upstream, and normalize what comes back.
type ReceiptService struct {
	store      port.ReceiptStore
	sessions   *session.Store
	statsCache port.Cache[*domain.Stats]
	bulkhead   *resilience.Bulkhead
	imgOpts    imaging.Options
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewReceiptService creates the receipt service.
func NewReceiptService(
	store port.ReceiptStore,
	sessions *session.Store,
	statsCache port.Cache[*domain.Stats],
	bulkhead *resilience.Bulkhead,
	imgOpts imaging.Options,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		store:      store,
		sessions:   sessions,
		statsCache: statsCache,
		bulkhead:   bulkhead,
		imgOpts:    imgOpts,
		metrics:    metrics,
		logger:     logger,
	}
}

// List fetches the caller's receipts, newest first. Ordering is computed
// here after the fetch; backend order is not trusted.
func (s *ReceiptService) List(ctx context.Context, token string) ([]domain.Receipt, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.List")
	defer span.End()

	receipts, err := s.store.ListReceipts(ctx, token)
	if err != nil {
		s.metrics.IncrExternalError("receipts")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	sortReceiptsNewestFirst(receipts)
	return receipts, nil
}

// Upload runs the pre-processing pipeline and submits the result for
// OCR. The returned record carries the manual-review flag when the
// extraction looks incomplete.
func (s *ReceiptService) Upload(ctx context.Context, token string, image []byte, enhance bool) (*domain.ReceiptUploadResult, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Upload")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("receipt_upload", time.Since(start))
	}()

	processed, err := s.preprocess(ctx, image, enhance)
	if err != nil {
		s.metrics.IncrUpload("receipt", "error")
		return nil, err
	}

	filename := uuid.New().String() + ".jpg"
	receipt, err := s.store.UploadReceipt(ctx, token, filename, processed.Data)
	if err != nil {
		s.metrics.IncrUpload("receipt", "error")
		s.metrics.IncrExternalError("receipts")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return nil, fmt.Errorf("upload receipt: %w", err)
	}

	s.metrics.IncrUpload("receipt", "success")
	s.invalidateStats(token)

	result := &domain.ReceiptUploadResult{
		Receipt: receipt,
		Preview: processed.PreviewURL(),
	}
	result.NeedsReview, result.ReviewReason = reviewVerdict(receipt)
	if result.NeedsReview {
		s.logger.Info("receipt saved but flagged for review",
			zap.String("receipt_id", receipt.ID),
			zap.String("reason", result.ReviewReason),
		)
	}
	return result, nil
}

// Update submits a wholesale edit and invalidates the stats cache.
func (s *ReceiptService) Update(ctx context.Context, token, id string, upd *domain.ReceiptUpdate) (*domain.Receipt, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Update")
	defer span.End()

	if id == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "receipt id is required"}
	}

	receipt, err := s.store.UpdateReceipt(ctx, token, id, upd)
	if err != nil {
		s.metrics.IncrExternalError("receipts")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return nil, fmt.Errorf("update receipt: %w", err)
	}

	s.invalidateStats(token)
	return receipt, nil
}

// Delete removes a record and invalidates the stats cache. The caller
// refetches the list afterwards; nothing is removed optimistically.
func (s *ReceiptService) Delete(ctx context.Context, token, id string) error {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Delete")
	defer span.End()

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "receipt id is required"}
	}

	if err := s.store.DeleteReceipt(ctx, token, id); err != nil {
		s.metrics.IncrExternalError("receipts")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return fmt.Errorf("delete receipt: %w", err)
	}

	s.invalidateStats(token)
	return nil
}

// Stats returns the backend aggregate, briefly cached per caller.
func (s *ReceiptService) Stats(ctx context.Context, token string) (*domain.Stats, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Stats")
	defer span.End()

	key := statsKey(token)
	if cached, ok := s.statsCache.Get(key); ok {
		s.metrics.IncrCacheHit("stats")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("stats")

	stats, err := s.store.GetStats(ctx, token)
	if err != nil {
		s.metrics.IncrExternalError("receipts")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	s.statsCache.Set(key, stats)
	return stats, nil
}

// Overview fetches the receipts list and the stats aggregate
// concurrently and merges them for the home screen.
func (s *ReceiptService) Overview(ctx context.Context, token string) (*domain.DashboardOverview, error) {
	ctx, span := receiptTracer.Start(ctx, "ReceiptService.Overview")
	defer span.End()

	var (
		receipts []domain.Receipt
		stats    *domain.Stats
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := s.List(gCtx, token)
		if err != nil {
			return err
		}
		receipts = r
		return nil
	})

	g.Go(func() error {
		st, err := s.Stats(gCtx, token)
		if err != nil {
			return err
		}
		stats = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	const recentLimit = 5
	if len(receipts) > recentLimit {
		receipts = receipts[:recentLimit]
	}

	return &domain.DashboardOverview{
		Stats:          stats,
		RecentReceipts: receipts,
	}, nil
}

// preprocess runs the imaging pipeline under the bulkhead so pixel work
// cannot monopolize the process.
func (s *ReceiptService) preprocess(ctx context.Context, image []byte, enhance bool) (*imaging.Result, error) {
	if len(image) == 0 {
		return nil, &domain.ErrValidation{Field: "image", Message: "image file is required"}
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	opts := s.imgOpts
	opts.Enhance = enhance

	result, err := imaging.Process(image, opts)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordImageBytes(result.InputBytes, len(result.Data))
	return result, nil
}

func (s *ReceiptService) invalidateStats(token string) {
	s.statsCache.Delete(statsKey(token))
}

// reviewVerdict mirrors the client heuristic: a zero total means the OCR
// could not read the amount; missing company or date means an incomplete
// extraction. Either way the record is saved and the user is told to
// check it manually.
func reviewVerdict(r *domain.Receipt) (bool, string) {
	if r.Total == 0 {
		return true, reviewTotalUnreadable
	}
	if r.CompanyName == "" || r.Date == "" {
		return true, reviewFieldsIncomplete
	}
	return false, ""
}

func sortReceiptsNewestFirst(receipts []domain.Receipt) {
	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := receipts[i], receipts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		// fall back to the OCR date string; equal stays stable
		return a.Date > b.Date
	})
}

// statsKey derives a cache key from the token without storing it raw.
func statsKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "stats:" + hex.EncodeToString(sum[:8])
}
