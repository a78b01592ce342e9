package importcsv

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/jizhang-jingling/jizhang/internal/http/respond"
	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	intake    *intake.Service
}

func NewHandler(importSvc *importer.Service, intakeSvc *intake.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		intake:    intakeSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported     int                `json:"imported"`
	Transactions []wire.Transaction `json:"transactions"`
}

type conflictDTO struct {
	Incoming wire.Input   `json:"incoming"`
	Matches  []wire.Match `json:"matches"`
}

type importConflictResponse struct {
	New       []wire.Input  `json:"new"`
	Conflicts []conflictDTO `json:"conflicts"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.Message(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	source := importer.Source(r.FormValue("source"))
	if source == "" {
		source = importer.SourceAuto
	}

	if !slices.Contains(importer.Sources, source) {
		respond.Message(w, http.StatusBadRequest, "unknown source: "+string(source))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ins, err := h.importSvc.Import(source, file)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.intake.ImportBatch(r.Context(), uid, ins)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]wire.Input, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, in := range result.New {
			resp.New = append(resp.New, wire.FromInput(in))
		}

		for _, c := range result.Conflicts {
			dto := conflictDTO{Incoming: wire.FromInput(c.Incoming), Matches: make([]wire.Match, len(c.Matches))}
			for i, m := range c.Matches {
				dto.Matches[i] = wire.Match{Transaction: wire.FromTransaction(m.Transaction), Similarity: m.Similarity}
			}

			resp.Conflicts = append(resp.Conflicts, dto)
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported:     len(result.Imported),
		Transactions: wire.FromTransactions(result.Imported),
	})
}

// confirmImport stores the rows the user kept after reviewing conflicts.
func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
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

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported:     len(txs),
		Transactions: wire.FromTransactions(txs),
	})
}
