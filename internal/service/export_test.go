package service_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/service"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExportBuild_HeaderAndTotals(t *testing.T) {
	svc := service.NewExportService(zap.NewNop())

	receipts := []domain.Receipt{
		{CompanyName: "Alpha", Date: "2026-03-01", Total: 100, VAT20: 16.67},
		{CompanyName: "Beta", Date: "2026-03-02", Total: 50, VAT10: 4.55},
	}

	data, filename, err := svc.Build(receipts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(filename, "receipts-") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("unexpected filename %q", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}

	// header + 2 data rows + totals row
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "Company" || rows[0][4] != "Total" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "Alpha" {
		t.Errorf("expected first data row Alpha, got %v", rows[1])
	}
	if rows[3][0] != "Total" {
		t.Errorf("expected totals row label, got %v", rows[3])
	}
	if rows[3][4] != "150" {
		t.Errorf("expected summed total 150, got %q", rows[3][4])
	}
}

func TestExportBuild_EmptyList(t *testing.T) {
	svc := service.NewExportService(zap.NewNop())

	data, _, err := svc.Build(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and totals rows only, got %d rows", len(rows))
	}
}
