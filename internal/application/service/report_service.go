package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

const topVendorCount = 5

// DashboardStats holds the role-specific counters shown on the dashboard
type DashboardStats map[string]interface{}

// ReportFilter narrows a report. Zero values mean "any".
type ReportFilter struct {
	From      *time.Time
	To        *time.Time
	Status    string
	SocietyID string
}

// ExportMeta describes a rendered export
type ExportMeta struct {
	ContentType string
	FileName    string
}

// ReportService computes dashboard counters and transaction reports
type ReportService interface {
	DashboardStats(ctx context.Context, actor entity.Actor) (DashboardStats, error)
	Report(ctx context.Context, actor entity.Actor, filter ReportFilter) (*entity.Report, error)

	// ExportReport renders the report and its rows into w
	ExportReport(ctx context.Context, actor entity.Actor, filter ReportFilter, w io.Writer) (*ExportMeta, error)
}

type reportServiceImpl struct {
	store    port.Store
	exporter port.ReportExporter
	logger   Logger
	now      func() time.Time
}

// NewReportService creates a new ReportService. exporter may be nil, which disables exports.
func NewReportService(store port.Store, exporter port.ReportExporter, logger Logger) ReportService {
	return &reportServiceImpl{
		store:    store,
		exporter: exporter,
		logger:   orNop(logger),
		now:      time.Now,
	}
}

// DashboardStats returns the counters for the actor's role
func (s *reportServiceImpl) DashboardStats(ctx context.Context, actor entity.Actor) (DashboardStats, error) {
	switch actor.Role {
	case entity.RoleAdmin:
		return s.adminStats(ctx)
	case entity.RoleSocietyUser:
		return s.societyStats(ctx, actor)
	case entity.RoleAgent:
		return s.agentStats(ctx, actor)
	default:
		return DashboardStats{}, nil
	}
}

func (s *reportServiceImpl) adminStats(ctx context.Context) (DashboardStats, error) {
	societies, err := s.store.Societies().List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list societies: %w", err)
	}
	users, err := s.store.Users().List(ctx, port.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	txns, err := s.transactions(ctx, port.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	return DashboardStats{
		"totalSocieties":      len(societies),
		"totalUsers":          len(users),
		"totalTransactions":   len(txns),
		"pendingTransactions": count(txns, func(t *entity.Transaction) bool { return !t.IsCompleted() }),
	}, nil
}

func (s *reportServiceImpl) societyStats(ctx context.Context, actor entity.Actor) (DashboardStats, error) {
	if actor.SocietyID == "" {
		return DashboardStats{}, nil
	}
	txns, err := s.transactions(ctx, port.TransactionFilter{SocietyID: actor.SocietyID})
	if err != nil {
		return nil, err
	}

	return DashboardStats{
		"myTransactions":        count(txns, func(t *entity.Transaction) bool { return t.CreatedBy == actor.ID }),
		"pendingTransactions":   count(txns, func(t *entity.Transaction) bool { return !t.IsCompleted() }),
		"completedTransactions": count(txns, func(t *entity.Transaction) bool { return t.IsCompleted() }),
		"pendingClarifications": count(txns, func(t *entity.Transaction) bool {
			return t.Status == workflow.StatePendingForClarification
		}),
	}, nil
}

func (s *reportServiceImpl) agentStats(ctx context.Context, actor entity.Actor) (DashboardStats, error) {
	txns, err := s.transactions(ctx, port.TransactionFilter{AssignedTo: actor.ID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	avg := "N/A"
	if days, ok := averageProcessingDays(txns); ok {
		avg = fmt.Sprintf("%.1f days", days)
	}

	return DashboardStats{
		"assignedTransactions": len(txns),
		"pendingReview": count(txns, func(t *entity.Transaction) bool {
			return t.Status == workflow.StatePendingOnAgent
		}),
		"completedToday": count(txns, func(t *entity.Transaction) bool {
			return t.IsCompleted() && t.CompletedAt != nil && !t.CompletedAt.Before(today)
		}),
		"avgProcessingTime": avg,
	}, nil
}

// Report aggregates the transactions the actor can see
func (s *reportServiceImpl) Report(ctx context.Context, actor entity.Actor, filter ReportFilter) (*entity.Report, error) {
	report, _, err := s.build(ctx, actor, filter)
	return report, err
}

// ExportReport renders the report through the configured exporter
func (s *reportServiceImpl) ExportReport(ctx context.Context, actor entity.Actor, filter ReportFilter, w io.Writer) (*ExportMeta, error) {
	if s.exporter == nil {
		return nil, errs.Unavailable("export report", fmt.Errorf("no exporter configured"))
	}

	report, rows, err := s.build(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	if err := s.exporter.Export(w, report, rows); err != nil {
		s.logger.Error("Failed to export report", "error", err, "actor_id", actor.ID)
		return nil, fmt.Errorf("export report: %w", err)
	}

	s.logger.Info("Report exported", "actor_id", actor.ID, "rows", len(rows))
	return &ExportMeta{
		ContentType: s.exporter.ContentType(),
		FileName:    fmt.Sprintf("societyhub-report-%s%s", report.GeneratedAt.Format("20060102-150405"), s.exporter.FileExtension()),
	}, nil
}

func (s *reportServiceImpl) build(ctx context.Context, actor entity.Actor, filter ReportFilter) (*entity.Report, []*entity.Transaction, error) {
	query, err := reportScope(actor, filter)
	if err != nil {
		return nil, nil, err
	}
	txns, err := s.transactions(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	return summarize(txns, filter, s.now().UTC()), txns, nil
}

func (s *reportServiceImpl) transactions(ctx context.Context, filter port.TransactionFilter) ([]*entity.Transaction, error) {
	filter.Limit = 0
	txns, _, err := s.store.Transactions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// reportScope restricts the query to what the actor is allowed to see
func reportScope(actor entity.Actor, filter ReportFilter) (port.TransactionFilter, error) {
	query := port.TransactionFilter{From: filter.From, To: filter.To}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return query, errs.InvalidArgument("report end date is before its start date")
	}
	if filter.Status != "" {
		status, err := workflow.ParseState(filter.Status)
		if err != nil {
			return query, errs.InvalidArgument("invalid status %q", filter.Status)
		}
		query.Status = status
	}

	switch actor.Role {
	case entity.RoleAdmin:
		query.SocietyID = filter.SocietyID
	case entity.RoleSocietyUser:
		if actor.SocietyID == "" {
			return query, errs.Forbidden("user is not affiliated with a society")
		}
		query.SocietyID = actor.SocietyID
	case entity.RoleAgent:
		query.AssignedTo = actor.ID
	default:
		return query, errs.Forbidden("role %q cannot view reports", actor.Role)
	}
	return query, nil
}

func summarize(txns []*entity.Transaction, filter ReportFilter, now time.Time) *entity.Report {
	report := &entity.Report{
		GeneratedAt:        now,
		From:               filter.From,
		To:                 filter.To,
		TotalTransactions:  len(txns),
		TotalAmount:        decimal.Zero,
		TopVendors:         []entity.VendorTotal{},
		StatusDistribution: make([]entity.StatusShare, 0, len(workflow.AllStates())),
		MonthlyTrends:      []entity.MonthlyTrend{},
	}

	byStatus := make(map[workflow.State]int)
	vendors := make(map[string]*entity.VendorTotal)
	months := make(map[string]*entity.MonthlyTrend)

	for _, txn := range txns {
		amount := decimal.Zero
		if txn.Amount != nil {
			amount = *txn.Amount
		}
		report.TotalAmount = report.TotalAmount.Add(amount)
		byStatus[txn.Status]++

		v, ok := vendors[txn.VendorName]
		if !ok {
			v = &entity.VendorTotal{VendorName: txn.VendorName, Amount: decimal.Zero}
			vendors[txn.VendorName] = v
		}
		v.Count++
		v.Amount = v.Amount.Add(amount)

		key := txn.CreatedAt.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &entity.MonthlyTrend{Month: key, Amount: decimal.Zero}
			months[key] = m
		}
		m.Count++
		m.Amount = m.Amount.Add(amount)
	}

	report.CompletedTransactions = byStatus[workflow.StateCompleted]
	report.PendingTransactions = report.TotalTransactions - report.CompletedTransactions
	if days, ok := averageProcessingDays(txns); ok {
		report.AverageProcessingDays = days
	}

	for _, state := range workflow.AllStates() {
		share := entity.StatusShare{Status: state, Count: byStatus[state]}
		if report.TotalTransactions > 0 {
			share.Percentage = round(float64(share.Count)*100/float64(report.TotalTransactions), 1)
		}
		report.StatusDistribution = append(report.StatusDistribution, share)
	}

	for _, v := range vendors {
		report.TopVendors = append(report.TopVendors, *v)
	}
	sort.Slice(report.TopVendors, func(i, j int) bool {
		a, b := report.TopVendors[i], report.TopVendors[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.VendorName < b.VendorName
	})
	if len(report.TopVendors) > topVendorCount {
		report.TopVendors = report.TopVendors[:topVendorCount]
	}

	for _, m := range months {
		report.MonthlyTrends = append(report.MonthlyTrends, *m)
	}
	sort.Slice(report.MonthlyTrends, func(i, j int) bool {
		return report.MonthlyTrends[i].Month < report.MonthlyTrends[j].Month
	})

	return report
}

// averageProcessingDays is the mean creation-to-completion time of completed transactions
func averageProcessingDays(txns []*entity.Transaction) (float64, bool) {
	var total time.Duration
	var n int
	for _, txn := range txns {
		if d, ok := txn.ProcessingTime(); ok {
			total += d
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return round(total.Hours()/24/float64(n), 2), true
}

func count(txns []*entity.Transaction, match func(*entity.Transaction) bool) int {
	n := 0
	for _, txn := range txns {
		if match(txn) {
			n++
		}
	}
	return n
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
