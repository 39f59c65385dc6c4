package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gastroflow/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.ReportService; narrow interface for testability.
type ReportServicer interface {
	Summary(ctx context.Context, from, to time.Time) (service.ReportSummary, error)
	Daily(ctx context.Context, day time.Time) (service.ReportSummary, error)
}

// ReportHandler serves revenue and kitchen performance reports.
type ReportHandler struct {
	svc ReportServicer
}

func NewReportHandler(svc ReportServicer) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/summary", h.Summary)
	r.Get("/reports/daily", h.Daily)
}

type reportResponse struct {
	Revenue        string                         `json:"revenue"`
	RevenueCard    string                         `json:"revenue_card"`
	RevenueCash    string                         `json:"revenue_cash"`
	AvgPerPlate    string                         `json:"avg_per_plate"`
	Guests         int64                          `json:"guests"`
	Waiters        map[string]waiterStatsResponse `json:"waiters"`
	Warnings       []string                       `json:"warnings"`
	BillsOpen      int64                          `json:"bills_open"`
	BillsClosed    int64                          `json:"bills_closed"`
	ItemsSold      int64                          `json:"items_sold"`
	ItemsKitchen   int64                          `json:"items_kitchen"`
	ItemsBar       int64                          `json:"items_bar"`
	AvgPrepSeconds float64                        `json:"avg_prep_seconds"`
}

type waiterStatsResponse struct {
	Bills   int    `json:"bills"`
	Revenue string `json:"revenue"`
}

// Summary aggregates bills opened in the inclusive [from, to] range.
// Accepts RFC 3339 timestamps or plain dates.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, ok := parseReportTime(r.URL.Query().Get("from"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from parameter"})
		return
	}
	to, ok := parseReportTime(r.URL.Query().Get("to"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to parameter"})
		return
	}
	if to.Before(from) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must not precede from"})
		return
	}

	summary, err := h.svc.Summary(r.Context(), from, to)
	if err != nil {
		log.Printf("ERROR: report summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(summary))
}

// Daily aggregates one calendar day.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	day := time.Now()
	if raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date parameter"})
			return
		}
		day = parsed
	}

	summary, err := h.svc.Daily(r.Context(), day)
	if err != nil {
		log.Printf("ERROR: daily report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(summary))
}

func parseReportTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func toReportResponse(summary service.ReportSummary) reportResponse {
	resp := reportResponse{
		Revenue:        summary.Summary.Revenue.StringFixed(2),
		RevenueCard:    summary.Summary.RevenueCard.StringFixed(2),
		RevenueCash:    summary.Summary.RevenueCash.StringFixed(2),
		AvgPerPlate:    summary.Summary.AvgPerPlate.StringFixed(2),
		Guests:         summary.Summary.Guests,
		Waiters:        map[string]waiterStatsResponse{},
		Warnings:       summary.Warnings,
		BillsOpen:      summary.Counts.Opened,
		BillsClosed:    summary.Counts.Closed,
		ItemsSold:      summary.ItemsSold.Total,
		ItemsKitchen:   summary.ItemsSold.Kitchen,
		ItemsBar:       summary.ItemsSold.Bar,
		AvgPrepSeconds: summary.AvgPrepSeconds,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for name, stats := range summary.Summary.Waiters {
		resp.Waiters[name] = waiterStatsResponse{
			Bills:   stats.Bills,
			Revenue: stats.Revenue.StringFixed(2),
		}
	}
	return resp
}
