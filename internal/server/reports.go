package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/meteoright00/diary-quest-sub001/internal/report"
)

type createReportRequest struct {
	CharacterID string `json:"characterId"`
	Type        string `json:"type"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
}

// handleCreateReport generates a report over the requested period and
// persists it. When start and end are omitted the period is a rolling
// window ending today: 7 days for weekly, 30 for monthly, 365 for yearly.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CharacterID == "" {
		writeError(w, http.StatusBadRequest, "characterId is required")
		return
	}
	rt := report.ReportType(req.Type)
	if !rt.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown report type %q", req.Type))
		return
	}
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "no llm provider configured")
		return
	}

	start, end, err := resolvePeriod(rt, req.Start, req.End)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	ch, err := s.stores.Characters.Get(ctx, req.CharacterID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	diaries, err := s.stores.Diaries.ListByPeriod(ctx, ch.ID, start, end)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	quests, err := s.stores.Quests.ListByCharacter(ctx, ch.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rp, err := s.agg.Generate(ctx, report.Request{
		Type:      rt,
		Start:     start,
		End:       end,
		Character: ch,
		Diaries:   diaries,
		Quests:    quests,
	})
	if err != nil {
		s.metrics.RecordReport(ctx, string(rt), "error")
		s.fail(w, r, err)
		return
	}
	if err := s.stores.Reports.Create(ctx, rp); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordReport(ctx, string(rt), "ok")

	writeJSON(w, http.StatusCreated, rp)
}

// resolvePeriod returns the inclusive report window. Explicit bounds must
// come as a pair; with neither given the window is derived from the report
// type, ending today.
func resolvePeriod(rt report.ReportType, startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" && endStr == "" {
		p := report.DefaultPeriod(rt, time.Now())
		return p.Start, p.End, nil
	}
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("server: resolve period: start and end must be given together: %w", report.ErrInvalidPeriod)
	}
	start, err := parseDay(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("server: resolve period: %w", report.ErrInvalidPeriod)
	}
	return start, end, nil
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rp, err := s.stores.Reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rp)
}

// handleExportReport streams the report as a zstd archive download,
// restorable with [report.Restore].
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	rp, err := s.stores.Reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "report-"+rp.ID+".zst"))
	if err := report.Archive(w, []*report.Report{rp}); err != nil {
		// Headers are gone; all that is left is to log.
		slog.ErrorContext(r.Context(), "report export failed", "id", rp.ID, "error", err)
	}
}
