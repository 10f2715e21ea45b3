// Package port defines the interfaces between services and the upstream
// backend client, so services can be tested against fakes.
package port

import (
	"context"

	"github.com/fisapp/receipt-bff-go/internal/domain"
)

// Authenticator talks to the accounts side of the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, name, email, password string) (*domain.Session, error)
	Me(ctx context.Context, token string) (*domain.User, error)
}

// ReceiptStore covers the receipt lifecycle. Every call carries the
// session's bearer token; the backend scopes records to its owner.
type ReceiptStore interface {
	ListReceipts(ctx context.Context, token string) ([]domain.Receipt, error)
	UploadReceipt(ctx context.Context, token, filename string, image []byte) (*domain.Receipt, error)
	UpdateReceipt(ctx context.Context, token, id string, upd *domain.ReceiptUpdate) (*domain.Receipt, error)
	DeleteReceipt(ctx context.Context, token, id string) error
	GetStats(ctx context.Context, token string) (*domain.Stats, error)
}

// ZReportStore covers the Z-report lifecycle.
type ZReportStore interface {
	ListZReports(ctx context.Context, token string) ([]domain.ZReport, error)
	UploadZReport(ctx context.Context, token, filename string, image []byte) (*domain.ZReport, error)
	DeleteZReport(ctx context.Context, token, id string) error
}

// Cache is a generic cache abstraction.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
