package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService renders the receipt list as an Excel workbook for the
// bookkeeper handoff.
type ExportService struct {
	logger *zap.Logger
}

// NewExportService creates the export service.
func NewExportService(logger *zap.Logger) *ExportService {
	return &ExportService{logger: logger}
}

const exportSheet = "Receipts"

var exportHeader = []string{
	"Company", "Date", "Receipt No", "Category", "Total", "VAT 1%", "VAT 10%", "VAT 20%",
}

// Build writes the receipts into a single-sheet workbook. Rows keep the
// caller's ordering; a totals row is appended at the bottom.
func (s *ExportService) Build(receipts []domain.Receipt) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), exportSheet)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("export header cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return nil, "", fmt.Errorf("export header: %w", err)
		}
	}

	var sumTotal, sumVAT1, sumVAT10, sumVAT20 float64
	for i, r := range receipts {
		row := i + 2
		values := []any{
			r.CompanyName, r.Date, r.ReceiptNumber, r.Category,
			r.Total, r.VAT1, r.VAT10, r.VAT20,
		}
		if err := setRow(f, row, values); err != nil {
			return nil, "", err
		}
		sumTotal += r.Total
		sumVAT1 += r.VAT1
		sumVAT10 += r.VAT10
		sumVAT20 += r.VAT20
	}

	totalsRow := len(receipts) + 2
	if err := setRow(f, totalsRow, []any{
		"Total", "", "", "", sumTotal, sumVAT1, sumVAT10, sumVAT20,
	}); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("receipts-%s.xlsx", time.Now().Format("2006-01-02"))
	s.logger.Info("export built",
		zap.Int("receipts", len(receipts)),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), filename, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("export cell: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return fmt.Errorf("export row %d: %w", row, err)
		}
	}
	return nil
}
