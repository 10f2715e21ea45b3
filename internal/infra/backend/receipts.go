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

// --- Receipts API (implements port.ReceiptStore) ---

// ListReceipts fetches the caller's receipts.
func (c *Client) ListReceipts(ctx context.Context, token string) ([]domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Backend.ListReceipts")
	defer span.End()

	var receipts []domain.Receipt

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodGet, "/api/receipts", token, nil)
		if err != nil {
			return err
		}
		list, err := decodeReceiptList(body)
		if err != nil {
			return err
		}
		receipts = list
		return nil
	})
	if err != nil {
		return nil, wrapErr("receipts/list", err)
	}

	return receipts, nil
}

// UploadReceipt submits a pre-processed image for OCR extraction and
// persistence, returning the extracted record.
func (c *Client) UploadReceipt(ctx context.Context, token, filename string, image []byte) (*domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Backend.UploadReceipt")
	defer span.End()
	span.SetAttributes(attribute.Int("image.bytes", len(image)))

	var receipt *domain.Receipt

	err := c.run(ctx, func() error {
		body, err := c.doMultipart(ctx, "/api/receipts/upload", token, "receipt", filename, image)
		if err != nil {
			return err
		}
		rec, err := decodeReceipt(body)
		if err != nil {
			return err
		}
		receipt = rec
		return nil
	})
	if err != nil {
		return nil, wrapErr("receipts/upload", err)
	}

	return receipt, nil
}

// UpdateReceipt submits a wholesale edit for the given record.
func (c *Client) UpdateReceipt(ctx context.Context, token, id string, upd *domain.ReceiptUpdate) (*domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Backend.UpdateReceipt")
	defer span.End()
	span.SetAttributes(attribute.String("receipt.id", id))

	var receipt *domain.Receipt

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodPut, pathID("/api/receipts/%s", id), token, upd)
		if err != nil {
			return err
		}
		rec, err := decodeReceipt(body)
		if err != nil {
			return err
		}
		receipt = rec
		return nil
	})
	if err != nil {
		return nil, wrapErr("receipts/update", err)
	}

	return receipt, nil
}

// DeleteReceipt removes the record.
func (c *Client) DeleteReceipt(ctx context.Context, token, id string) error {
	ctx, span := tracer.Start(ctx, "Backend.DeleteReceipt")
	defer span.End()
	span.SetAttributes(attribute.String("receipt.id", id))

	err := c.run(ctx, func() error {
		_, err := c.doJSON(ctx, http.MethodDelete, pathID("/api/receipts/%s", id), token, nil)
		return err
	})
	if err != nil {
		return wrapErr("receipts/delete", err)
	}
	return nil
}

// GetStats fetches the backend-computed aggregate.
func (c *Client) GetStats(ctx context.Context, token string) (*domain.Stats, error) {
	ctx, span := tracer.Start(ctx, "Backend.GetStats")
	defer span.End()

	var stats *domain.Stats

	err := c.run(ctx, func() error {
		body, err := c.doJSON(ctx, http.MethodGet, "/api/receipts/stats", token, nil)
		if err != nil {
			return err
		}

		var env struct {
			Stats *domain.Stats `json:"stats"`
		}
		if err := json.Unmarshal(body, &env); err == nil && env.Stats != nil {
			stats = env.Stats
			return nil
		}
		var flat domain.Stats
		if err := json.Unmarshal(body, &flat); err != nil {
			return fmt.Errorf("decode stats: %w", err)
		}
		stats = &flat
		return nil
	})
	if err != nil {
		return nil, wrapErr("receipts/stats", err)
	}

	return stats, nil
}

// decodeReceiptList accepts both a flat array and the {success, receipts}
// / {success, data} envelopes seen across backend revisions.
func decodeReceiptList(body []byte) ([]domain.Receipt, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []domain.Receipt
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode receipts: %w", err)
		}
		return list, nil
	}

	var env struct {
		Receipts []domain.Receipt `json:"receipts"`
		Data     []domain.Receipt `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode receipts envelope: %w", err)
	}
	if env.Receipts != nil {
		return env.Receipts, nil
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return []domain.Receipt{}, nil
}

func decodeReceipt(body []byte) (*domain.Receipt, error) {
	var env struct {
		Receipt *domain.Receipt `json:"receipt"`
		Data    *domain.Receipt `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Receipt != nil {
			return env.Receipt, nil
		}
		if env.Data != nil {
			return env.Data, nil
		}
	}
	var flat domain.Receipt
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	if flat.ID == "" {
		return nil, fmt.Errorf("receipt response missing record")
	}
	return &flat, nil
}
