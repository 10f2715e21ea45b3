package service

import (
	"context"
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
)

var zReportTracer = otel.Tracer("service/zreports")

// ZReportService handles the register-summary flows. It shares the
// imaging pipeline with receipts but skips the review heuristic since
// Z-report fields are either extracted or left zero.
type ZReportService struct {
	store    port.ZReportStore
	sessions *session.Store
	bulkhead *resilience.Bulkhead
	imgOpts  imaging.Options
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewZReportService creates the Z-report service.
func NewZReportService(
	store port.ZReportStore,
	sessions *session.Store,
	bulkhead *resilience.Bulkhead,
	imgOpts imaging.Options,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ZReportService {
	return &ZReportService{
		store:    store,
		sessions: sessions,
		bulkhead: bulkhead,
		imgOpts:  imgOpts,
		metrics:  metrics,
		logger:   logger,
	}
}

// List fetches the caller's Z-reports, newest report date first.
func (s *ZReportService) List(ctx context.Context, token string) ([]domain.ZReport, error) {
	ctx, span := zReportTracer.Start(ctx, "ZReportService.List")
	defer span.End()

	reports, err := s.store.ListZReports(ctx, token)
	if err != nil {
		s.metrics.IncrExternalError("z-reports")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return nil, fmt.Errorf("list z-reports: %w", err)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ReportDate > b.ReportDate
	})
	return reports, nil
}

// Upload pre-processes the summary image and submits it for OCR.
func (s *ZReportService) Upload(ctx context.Context, token string, image []byte, enhance bool) (*domain.ZReportUploadResult, error) {
	ctx, span := zReportTracer.Start(ctx, "ZReportService.Upload")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("z_report_upload", time.Since(start))
	}()

	if len(image) == 0 {
		return nil, &domain.ErrValidation{Field: "image", Message: "image file is required"}
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	processed, err := func() (*imaging.Result, error) {
		defer s.bulkhead.Release()

		opts := s.imgOpts
		opts.Enhance = enhance
		return imaging.Process(image, opts)
	}()
	if err != nil {
		s.metrics.IncrUpload("z_report", "error")
		return nil, err
	}
	s.metrics.RecordImageBytes(processed.InputBytes, len(processed.Data))

	filename := uuid.New().String() + ".jpg"
	report, err := s.store.UploadZReport(ctx, token, filename, processed.Data)
	if err != nil {
		s.metrics.IncrUpload("z_report", "error")
		s.metrics.IncrExternalError("z-reports")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return nil, fmt.Errorf("upload z-report: %w", err)
	}

	s.metrics.IncrUpload("z_report", "success")
	s.logger.Info("z-report saved",
		zap.String("z_report_id", report.ID),
		zap.String("report_date", report.ReportDate),
	)

	return &domain.ZReportUploadResult{
		Report:  report,
		Preview: processed.PreviewURL(),
	}, nil
}

// Delete removes a record.
func (s *ZReportService) Delete(ctx context.Context, token, id string) error {
	ctx, span := zReportTracer.Start(ctx, "ZReportService.Delete")
	defer span.End()

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "z-report id is required"}
	}

	if err := s.store.DeleteZReport(ctx, token, id); err != nil {
		s.metrics.IncrExternalError("z-reports")
		clearSessionOnUnauthorized(s.sessions, s.logger, token, err)
		return fmt.Errorf("delete z-report: %w", err)
	}
	return nil
}
