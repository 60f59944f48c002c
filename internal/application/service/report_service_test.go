package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	svc := NewReportService(newSeededStore(t), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor entity.Actor
		want  DashboardStats
	}{
		{
			name:  "admin",
			actor: adminActor,
			want: DashboardStats{
				"totalSocieties":      2,
				"totalUsers":          5,
				"totalTransactions":   3,
				"pendingTransactions": 2,
			},
		},
		{
			name:  "society user",
			actor: managerActor,
			want: DashboardStats{
				"myTransactions":        3,
				"pendingTransactions":   2,
				"completedTransactions": 1,
				"pendingClarifications": 1,
			},
		},
		{
			name:  "society user elsewhere",
			actor: otherManager,
			want: DashboardStats{
				"myTransactions":        0,
				"pendingTransactions":   0,
				"completedTransactions": 0,
				"pendingClarifications": 0,
			},
		},
		{
			name:  "unknown role",
			actor: entity.Actor{ID: "x", Role: "auditor"},
			want:  DashboardStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := svc.DashboardStats(ctx, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats)
		})
	}
}

func TestDashboardStats_Agent(t *testing.T) {
	svc := NewReportService(newSeededStore(t), nil, nil)

	stats, err := svc.DashboardStats(context.Background(), agentActor)
	require.NoError(t, err)
	assert.Equal(t, 3, stats["assignedTransactions"])
	assert.Equal(t, 1, stats["pendingReview"])
	// txn2 took exactly one day from creation to completion
	assert.Equal(t, "1.0 days", stats["avgProcessingTime"])
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	svc := NewReportService(newSeededStore(t), nil, nil)

	report, err := svc.Report(ctx, adminActor, ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalTransactions)
	assert.Equal(t, 1, report.CompletedTransactions)
	assert.Equal(t, 2, report.PendingTransactions)
	assert.True(t, decimal.NewFromInt(48500).Equal(report.TotalAmount))
	assert.InDelta(t, 1.0, report.AverageProcessingDays, 0.01)

	require.Len(t, report.TopVendors, 3)
	assert.Equal(t, "ABC Maintenance Services", report.TopVendors[0].VendorName)
	assert.Equal(t, "DEF Electrical Works", report.TopVendors[2].VendorName)

	require.Len(t, report.StatusDistribution, len(workflow.AllStates()))
	shares := map[workflow.State]entity.StatusShare{}
	for _, s := range report.StatusDistribution {
		shares[s.Status] = s
	}
	assert.Equal(t, 0, shares[workflow.StatePendingOnSociety].Count)
	assert.Equal(t, 1, shares[workflow.StateCompleted].Count)
	assert.InDelta(t, 33.3, shares[workflow.StateCompleted].Percentage, 0.01)

	var monthly int
	for _, m := range report.MonthlyTrends {
		monthly += m.Count
	}
	assert.Equal(t, 3, monthly)
}

func TestReport_Scoping(t *testing.T) {
	ctx := context.Background()
	svc := NewReportService(newSeededStore(t), nil, nil)

	tests := []struct {
		name      string
		actor     entity.Actor
		filter    ReportFilter
		wantTotal int
		wantErr   error
	}{
		{"admin all", adminActor, ReportFilter{}, 3, nil},
		{"admin other society", adminActor, ReportFilter{SocietyID: "society2"}, 0, nil},
		{"status filter", adminActor, ReportFilter{Status: "completed"}, 1, nil},
		{"society user cannot widen scope", otherManager, ReportFilter{SocietyID: "society1"}, 0, nil},
		{"agent sees assigned", agentActor, ReportFilter{}, 3, nil},
		{"bad status", adminActor, ReportFilter{Status: "archived"}, 0, errs.ErrInvalidArgument},
		{"unknown role", entity.Actor{ID: "x", Role: "auditor"}, ReportFilter{}, 0, errs.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.Report(ctx, tt.actor, tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, report.TotalTransactions)
		})
	}
}

func TestReport_DateRange(t *testing.T) {
	ctx := context.Background()
	svc := NewReportService(newSeededStore(t), nil, nil)

	from := time.Now().Add(-36 * time.Hour)
	report, err := svc.Report(ctx, adminActor, ReportFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTransactions)

	to := from.Add(-time.Hour)
	_, err = svc.Report(ctx, adminActor, ReportFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestSummarize_TopVendorsCapped(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	var txns []*entity.Transaction
	for i, vendor := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		amount := decimal.NewFromInt(int64(100 * (i + 1)))
		txns = append(txns, &entity.Transaction{
			ID:         vendor,
			VendorName: vendor,
			Amount:     &amount,
			Status:     workflow.StatePendingOnSociety,
			CreatedAt:  now.AddDate(0, -i%2, 0),
		})
	}
	// no amount still counts
	txns = append(txns, &entity.Transaction{ID: "H", VendorName: "H", Status: workflow.StatePendingOnAgent, CreatedAt: now})

	report := summarize(txns, ReportFilter{}, now)

	require.Len(t, report.TopVendors, topVendorCount)
	assert.Equal(t, "G", report.TopVendors[0].VendorName)
	assert.Equal(t, "C", report.TopVendors[4].VendorName)
	assert.Zero(t, report.AverageProcessingDays)

	require.Len(t, report.MonthlyTrends, 2)
	assert.Equal(t, "2024-02", report.MonthlyTrends[0].Month)
	assert.Equal(t, "2024-03", report.MonthlyTrends[1].Month)
	assert.Equal(t, 5, report.MonthlyTrends[1].Count)
}

func TestExportReport(t *testing.T) {
	ctx := context.Background()

	t.Run("renders through exporter", func(t *testing.T) {
		exporter := &mockExporter{}
		svc := NewReportService(newSeededStore(t), exporter, nil)

		var buf bytes.Buffer
		meta, err := svc.ExportReport(ctx, managerActor, ReportFilter{}, &buf)
		require.NoError(t, err)
		assert.Equal(t, "exported", buf.String())
		assert.Equal(t, "text/plain", meta.ContentType)
		assert.True(t, strings.HasSuffix(meta.FileName, ".txt"))
		assert.Len(t, exporter.rows, 3)
		assert.Equal(t, 3, exporter.report.TotalTransactions)
	})

	t.Run("exporter failure", func(t *testing.T) {
		svc := NewReportService(newSeededStore(t), &mockExporter{err: errors.New("disk full")}, nil)
		_, err := svc.ExportReport(ctx, adminActor, ReportFilter{}, &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("no exporter", func(t *testing.T) {
		svc := NewReportService(newSeededStore(t), nil, nil)
		_, err := svc.ExportReport(ctx, adminActor, ReportFilter{}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errs.ErrUnavailable)
	})
}
