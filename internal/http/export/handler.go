package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jizhang-jingling/jizhang/internal/export"
	"github.com/jizhang-jingling/jizhang/internal/http/respond"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	Type      transaction.Kind `json:"type,omitempty"`
	Category  string           `json:"category,omitempty"`
	StartDate string           `json:"start_date,omitempty"`
	EndDate   string           `json:"end_date,omitempty"`
}

func (req exportRequest) filter() (transaction.ListFilter, error) {
	filter := transaction.ListFilter{Category: req.Category}

	if req.Type != "" {
		if !req.Type.Valid() {
			return filter, &intake.ValidationError{Field: "type", Reason: "must be income or expense"}
		}

		filter.Kind = new(req.Type)
	}

	if req.StartDate != "" {
		t, err := wire.ParseTime(req.StartDate)
		if err != nil {
			return filter, &intake.ValidationError{Field: "start_date", Reason: "must be a date or timestamp"}
		}

		filter.StartDate = new(t)
	}

	if req.EndDate != "" {
		t, err := wire.ParseTime(req.EndDate)
		if err != nil {
			return filter, &intake.ValidationError{Field: "end_date", Reason: "must be a date or timestamp"}
		}

		if len(req.EndDate) == len(time.DateOnly) {
			_, t = transaction.DayBounds(t)
		}

		filter.EndDate = new(t)
	}

	return filter, nil
}

type exportMetadataResponse struct {
	Transactions []wire.Transaction `json:"transactions"`
	Summary      string             `json:"summary"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) ([]*transaction.Transaction, bool) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return nil, false
	}

	var req exportRequest
	if !respond.Decode(w, r, &req) {
		return nil, false
	}

	filter, err := req.filter()
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}

	txs, err := h.svc.Export(r.Context(), uid, filter)
	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}

	return txs, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.list(w, r)
	if !ok {
		return
	}

	respond.JSON(w, http.StatusOK, exportMetadataResponse{
		Transactions: wire.FromTransactions(txs),
		Summary:      export.GenerateSummary(txs),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.list(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(time.Now())))

	// UTF-8 BOM so spreadsheet apps pick the right charset.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		slog.Error("failed to write export", "error", err)
		return
	}

	if err := export.WriteCSV(w, txs); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}
