package domain

import "time"

// ============================================================
// Core entities (authoritative storage lives in the backend;
// these are the shapes this tier consumes and produces)
// ============================================================

// User is the authenticated account as returned by the accounts backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session pairs a bearer token with its user record. It is what the
// session store persists between requests.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Receipt is a single scanned expense receipt. VAT is tracked in the
// three fixed rate buckets (1%, 10%, 20%).
type Receipt struct {
	ID            string    `json:"id"`
	CompanyName   string    `json:"company_name"`
	Date          string    `json:"date"`
	ReceiptNumber string    `json:"receipt_number"`
	Category      string    `json:"category"`
	Total         float64   `json:"total"`
	VAT1          float64   `json:"vat1"`
	VAT10         float64   `json:"vat10"`
	VAT20         float64   `json:"vat20"`
	ImagePath     string    `json:"image_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TotalVAT sums the per-rate buckets.
func (r *Receipt) TotalVAT() float64 {
	return r.VAT1 + r.VAT10 + r.VAT20
}

// ReceiptUpdate is the wholesale edit payload for PUT /api/receipts/{id}.
// Every editable field is submitted; there is no partial-field diffing.
type ReceiptUpdate struct {
	CompanyName   string  `json:"company_name"`
	Date          string  `json:"date"`
	ReceiptNumber string  `json:"receipt_number"`
	Category      string  `json:"category"`
	Total         float64 `json:"total"`
	VAT1          float64 `json:"vat1"`
	VAT10         float64 `json:"vat10"`
	VAT20         float64 `json:"vat20"`
}

// ZReport is an end-of-day cash-register closing summary.
type ZReport struct {
	ID                string    `json:"id"`
	ReportDate        string    `json:"report_date"`
	FiscalNumber      string    `json:"fiscal_number"`
	TotalSales        float64   `json:"total_sales"`
	TotalVAT          float64   `json:"total_vat"`
	CashAmount        float64   `json:"cash_amount"`
	CardAmount        float64   `json:"card_amount"`
	CreditSalesAmount float64   `json:"credit_sales_amount"`
	ReceiptCount      int       `json:"receipt_count"`
	VAT1              float64   `json:"vat1,omitempty"`
	VAT10             float64   `json:"vat10,omitempty"`
	VAT20             float64   `json:"vat20,omitempty"`
	ImagePath         string    `json:"image_path,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Stats is the backend-computed aggregate shown on the dashboard.
// Derived and read-only; never mutated on this side.
type Stats struct {
	TotalCount     int            `json:"total_count"`
	TotalAmount    float64        `json:"total_amount"`
	TotalVAT       float64        `json:"total_vat"`
	MonthCount     int            `json:"month_count"`
	MonthAmount    float64        `json:"month_amount"`
	CategoryCounts map[string]int `json:"category_counts,omitempty"`
}

// ============================================================
// Composite results
// ============================================================

// ReceiptUploadResult is what an upload-and-OCR call produces: the saved
// record plus the manual-review flag derived from the extracted fields.
type ReceiptUploadResult struct {
	Receipt      *Receipt `json:"receipt"`
	NeedsReview  bool     `json:"needs_review"`
	ReviewReason string   `json:"review_reason,omitempty"`
	Preview      string   `json:"preview,omitempty"`
}

// ZReportUploadResult is the Z-report counterpart.
type ZReportUploadResult struct {
	Report  *ZReport `json:"report"`
	Preview string   `json:"preview,omitempty"`
}

// DashboardOverview merges the stats aggregate with the most recent
// receipts for the home screen.
type DashboardOverview struct {
	Stats          *Stats    `json:"stats"`
	RecentReceipts []Receipt `json:"recent_receipts"`
}

// UploadMetrics is the snapshot served by GET /api/metrics/uploads.
type UploadMetrics struct {
	TotalUploads     int64   `json:"total_uploads"`
	ErrorRate        float64 `json:"error_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	CompressionRatio float64 `json:"compression_ratio"`
	Period           string  `json:"period"`
}
