package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fisapp/receipt-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// --- Z-Reports API (implements port.ZReportStore) ---

// ListZReports fetches the caller's Z-reports.
func (c *Client) ListZReports(ctx context.Context, token string) ([]domain.ZReport, error) {
	ctx, span := tracer.Start(ctx, "Backend.ListZReports")
	defer span.End()

	var reports []domain.ZReport

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodGet, "/api/z-reports", token, nil)
		if err != nil {
			return err
		}
		list, err := decodeZReportList(body)
		if err != nil {
			return err
		}
		reports = list
		return nil
	})
	if err != nil {
		return nil, wrapErr("z-reports/list", err)
	}

	return reports, nil
}

// UploadZReport submits a pre-processed register summary image for OCR.
func (c *Client) UploadZReport(ctx context.Context, token, filename string, image []byte) (*domain.ZReport, error) {
	ctx, span := tracer.Start(ctx, "Backend.UploadZReport")
	defer span.End()
	span.SetAttributes(attribute.Int("image.bytes", len(image)))

	var report *domain.ZReport

	err := c.run(ctx, func() error {
		body, err := c.doMultipart(ctx, "/api/z-reports/upload", token, "receipt", filename, image)
		if err != nil {
			return err
		}
		rep, err := decodeZReport(body)
		if err != nil {
			return err
		}
		report = rep
		return nil
	})
	if err != nil {
		return nil, wrapErr("z-reports/upload", err)
	}

	return report, nil
}

// DeleteZReport removes the record.
func (c *Client) DeleteZReport(ctx context.Context, token, id string) error {
	ctx, span := tracer.Start(ctx, "Backend.DeleteZReport")
	defer span.End()
	span.SetAttributes(attribute.String("z_report.id", id))

	err := c.run(ctx, func() error {
		_, err := c.doJSON(ctx, http.MethodDelete, pathID("/api/z-reports/%s", id), token, nil)
		return err
	})
	if err != nil {
		return wrapErr("z-reports/delete", err)
	}
	return nil
}

func decodeZReportList(body []byte) ([]domain.ZReport, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []domain.ZReport
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode z-reports: %w", err)
		}
		return list, nil
	}

	var env struct {
		Reports []domain.ZReport `json:"reports"`
		Data    []domain.ZReport `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode z-reports envelope: %w", err)
	}
	if env.Reports != nil {
		return env.Reports, nil
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return []domain.ZReport{}, nil
}

func decodeZReport(body []byte) (*domain.ZReport, error) {
	var env struct {
		Report *domain.ZReport `json:"report"`
		// older revisions used zReport
		ZReport *domain.ZReport `json:"zReport"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Report != nil {
			return env.Report, nil
		}
		if env.ZReport != nil {
			return env.ZReport, nil
		}
	}
	var flat domain.ZReport
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode z-report: %w", err)
	}
	if flat.ID == "" {
		return nil, fmt.Errorf("z-report response missing record")
	}
	return &flat, nil
}
