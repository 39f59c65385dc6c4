package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gastroflow/api/internal/billing"
	"github.com/gastroflow/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportStore defines the DB methods needed by the report service.
// Satisfied by *database.Queries.
type ReportStore interface {
	ListBillSummaryRows(ctx context.Context, arg database.DateRangeParams) ([]database.BillSummaryRow, error)
	CountBillStatuses(ctx context.Context, arg database.DateRangeParams) (database.CountBillStatusesRow, error)
	SumItemsSold(ctx context.Context, arg database.DateRangeParams) (database.ItemsSoldRow, error)
	AvgKitchenPrepSeconds(ctx context.Context, arg database.DateRangeParams) (pgtype.Float8, error)
}

// ReportService feeds the billing aggregation engine from the store.
type ReportService struct {
	store ReportStore
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// ReportSummary is the full revenue report for a date range.
type ReportSummary struct {
	Summary        billing.Summary
	Warnings       []string
	Counts         database.CountBillStatusesRow
	ItemsSold      database.ItemsSoldRow
	AvgPrepSeconds float64
}

// Summary runs the aggregation over all bills opened in the inclusive range.
// A revenue split mismatch from the engine propagates to the caller; a
// silently wrong financial report is worse than a visible failure.
func (s *ReportService) Summary(ctx context.Context, from, to time.Time) (ReportSummary, error) {
	arg := database.DateRangeParams{From: from, To: to}

	dbRows, err := s.store.ListBillSummaryRows(ctx, arg)
	if err != nil {
		return ReportSummary{}, fmt.Errorf("list summary rows: %w", err)
	}
	parsed := billing.Parse(toBillingRows(dbRows))
	summary, err := parsed.Summarize()
	if err != nil {
		return ReportSummary{}, err
	}

	counts, err := s.store.CountBillStatuses(ctx, arg)
	if err != nil {
		return ReportSummary{}, fmt.Errorf("count bill statuses: %w", err)
	}
	sold, err := s.store.SumItemsSold(ctx, arg)
	if err != nil {
		return ReportSummary{}, fmt.Errorf("sum items sold: %w", err)
	}
	avg, err := s.store.AvgKitchenPrepSeconds(ctx, arg)
	if err != nil {
		return ReportSummary{}, fmt.Errorf("avg prep seconds: %w", err)
	}

	return ReportSummary{
		Summary:        summary,
		Warnings:       parsed.Warnings,
		Counts:         counts,
		ItemsSold:      sold,
		AvgPrepSeconds: avg.Float64,
	}, nil
}

// Daily reports on one calendar day, midnight to midnight exclusive of the
// next day's first instant.
func (s *ReportService) Daily(ctx context.Context, day time.Time) (ReportSummary, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24*time.Hour - time.Nanosecond)
	return s.Summary(ctx, from, to)
}

// toBillingRows converts store rows into the engine's input shape.
func toBillingRows(dbRows []database.BillSummaryRow) []billing.Row {
	rows := make([]billing.Row, 0, len(dbRows))
	for _, r := range dbRows {
		row := billing.Row{
			BillID:        r.BillID,
			PaymentMethod: r.PaymentMethod,
			Discount:      r.Discount,
			GuestCount:    r.GuestCount,
			Waiter:        r.Waiter.String,
			ItemPrice:     numericToDecimal(r.PriceSnapshot),
			ItemQuantity:  r.Quantity.Int32,
			AdditionPrice: numericToDecimal(r.AdditionPrice),
		}
		if r.OrderItemID.Valid {
			row.ItemID = uuid.NullUUID{UUID: uuid.UUID(r.OrderItemID.Bytes), Valid: true}
		}
		if r.AdditionID.Valid {
			row.AdditionID = uuid.NullUUID{UUID: uuid.UUID(r.AdditionID.Bytes), Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}
