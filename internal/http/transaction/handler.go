package transaction

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	"github.com/jizhang-jingling/jizhang/internal/http/respond"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

type Handler struct {
	intake *intake.Service
	svc    *transaction.Service
}

func NewHandler(intakeSvc *intake.Service, svc *transaction.Service) *Handler {
	return &Handler{intake: intakeSvc, svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.record)
	r.Post("/batch", h.recordBatch)
	r.Post("/check-duplicate", h.checkDuplicate)
	r.Post("/delete-batch", h.deleteBatch)
	r.Get("/", h.list)
	r.Get("/today", h.today)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req wire.Input
	if !respond.Decode(w, r, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.intake.Record(r.Context(), uid, in)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, wire.FromTransaction(tx))
}

func (h *Handler) recordBatch(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req wire.Batch
	if !respond.Decode(w, r, &req) {
		return
	}

	ins, err := wire.ToInputs(req.Transactions)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := h.intake.RecordBatch(r.Context(), uid, ins)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, wire.BatchResult{Count: len(txs), Transactions: wire.FromTransactions(txs)})
}

type checkDuplicateRequest struct {
	wire.Input
	HoursBack int    `json:"hours_back,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// checkDuplicate compares the body with recent records. scope=today (body or query) limits the
// pool to records since midnight; otherwise hours_back selects the window.
func (h *Handler) checkDuplicate(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req checkDuplicateRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if s := r.URL.Query().Get("scope"); s != "" {
		req.Scope = s
	}

	if s := r.URL.Query().Get("hours_back"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "hours_back must be an integer")
			return
		}

		req.HoursBack = n
	}

	var res duplicate.Result

	if req.Scope == "today" {
		res, err = h.intake.CheckDuplicateToday(r.Context(), uid, in)
	} else {
		res, err = h.intake.CheckDuplicate(r.Context(), uid, in, req.HoursBack)
	}

	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, wire.FromDuplicateResult(res))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := h.svc.List(r.Context(), uid, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, wire.FromTransactions(txs))
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	txs, err := h.svc.Today(r.Context(), uid)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, wire.FromTransactions(txs))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sum, err := h.svc.Summary(r.Context(), uid, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, wire.FromSummary(sum))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, wire.FromTransaction(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req wire.DeleteBatch
	if !respond.Decode(w, r, &req) {
		return
	}

	n, err := h.svc.DeleteBatch(r.Context(), uid, req.IDs)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, wire.DeleteBatchResult{Deleted: n})
}

// parseFilter reads type, category, start_date, end_date, page, limit and offset. A date-only
// end_date covers that whole day.
func parseFilter(r *http.Request) (transaction.ListFilter, error) {
	q := r.URL.Query()
	filter := transaction.ListFilter{Category: strings.TrimSpace(q.Get("category"))}

	if s := q.Get("type"); s != "" {
		kind := transaction.Kind(s)
		if !kind.Valid() {
			return filter, &intake.ValidationError{Field: "type", Reason: "must be income or expense"}
		}

		filter.Kind = &kind
	}

	if s := q.Get("start_date"); s != "" {
		t, err := wire.ParseTime(s)
		if err != nil {
			return filter, &intake.ValidationError{Field: "start_date", Reason: "must be a date or timestamp"}
		}

		filter.StartDate = new(t)
	}

	if s := q.Get("end_date"); s != "" {
		t, err := wire.ParseTime(s)
		if err != nil {
			return filter, &intake.ValidationError{Field: "end_date", Reason: "must be a date or timestamp"}
		}

		if len(s) == len(time.DateOnly) {
			_, t = transaction.DayBounds(t)
		}

		filter.EndDate = new(t)
	}

	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		return filter, err
	}

	page, err := intParam(q.Get("page"), "page")
	if err != nil {
		return filter, err
	}

	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		return filter, err
	}

	filter.Limit = limit
	filter.Offset = offset

	if offset == 0 && page > 1 && limit > 0 {
		filter.Offset = (page - 1) * limit
	}

	return filter, nil
}

func intParam(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &intake.ValidationError{Field: field, Reason: "must be a non-negative integer"}
	}

	return n, nil
}
