package entity

import (
	"time"

	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Report aggregates transactions visible to one actor over a period
type Report struct {
	GeneratedAt           time.Time       `json:"generatedAt"`
	From                  *time.Time      `json:"from,omitempty"`
	To                    *time.Time      `json:"to,omitempty"`
	TotalTransactions     int             `json:"totalTransactions"`
	CompletedTransactions int             `json:"completedTransactions"`
	PendingTransactions   int             `json:"pendingTransactions"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	AverageProcessingDays float64         `json:"averageProcessingDays"`
	TopVendors            []VendorTotal   `json:"topVendors"`
	StatusDistribution    []StatusShare   `json:"statusDistribution"`
	MonthlyTrends         []MonthlyTrend  `json:"monthlyTrends"`
}

// VendorTotal is the transaction count and amount for one vendor
type VendorTotal struct {
	VendorName string          `json:"vendorName"`
	Count      int             `json:"count"`
	Amount     decimal.Decimal `json:"amount"`
}

// StatusShare is the share of transactions in one status
type StatusShare struct {
	Status     workflow.State `json:"status"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// MonthlyTrend groups transactions by creation month (YYYY-MM)
type MonthlyTrend struct {
	Month  string          `json:"month"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}
