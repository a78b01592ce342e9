package category

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jizhang-jingling/jizhang/internal/category"
	"github.com/jizhang-jingling/jizhang/internal/http/respond"
	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// Sources of a suggested category.
const (
	SourceLearned    = "learned"
	SourceClassifier = "classifier"
)

type Handler struct {
	classifier *category.Classifier
	matcher    *matching.Service
}

func NewHandler(classifier *category.Classifier, matcher *matching.Service) *Handler {
	return &Handler{classifier: classifier, matcher: matcher}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/mappings", h.learn)
}

type categoryResponse struct {
	Name     string           `json:"name"`
	Type     transaction.Kind `json:"type"`
	Keywords []string         `json:"keywords"`
	Default  bool             `json:"default,omitempty"`
}

// list returns the built-in categories of ?type=, or of both kinds when type is omitted.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kinds := []transaction.Kind{transaction.KindExpense, transaction.KindIncome}

	if s := r.URL.Query().Get("type"); s != "" {
		kind := transaction.Kind(s)
		if !kind.Valid() {
			respond.Message(w, http.StatusBadRequest, "type must be income or expense")
			return
		}

		kinds = []transaction.Kind{kind}
	}

	var resp []categoryResponse

	for _, kind := range kinds {
		for _, name := range h.classifier.Supported(kind) {
			resp = append(resp, categoryResponse{Name: name, Type: kind, Keywords: h.classifier.Keywords(name, kind)})
		}

		resp = append(resp, categoryResponse{Name: category.Default(kind), Type: kind, Keywords: []string{}, Default: true})
	}

	respond.JSON(w, http.StatusOK, resp)
}

type suggestResponse struct {
	Description string           `json:"description"`
	Type        transaction.Kind `json:"type"`
	Category    string           `json:"category"`
	Source      string           `json:"source"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	desc := strings.TrimSpace(r.URL.Query().Get("description"))
	if desc == "" {
		respond.Message(w, http.StatusBadRequest, "description query parameter is required")
		return
	}

	kind := transaction.KindExpense
	if s := r.URL.Query().Get("type"); s != "" {
		kind = transaction.Kind(s)
		if !kind.Valid() {
			respond.Message(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
	}

	resp := suggestResponse{Description: desc, Type: kind, Source: SourceLearned}

	learned, err := h.matcher.Match(r.Context(), uid, kind, desc)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp.Category = learned
	if learned == "" {
		resp.Category = h.classifier.Classify(desc, kind)
		resp.Source = SourceClassifier
	}

	respond.JSON(w, http.StatusOK, resp)
}

type learnRequest struct {
	Pattern  string           `json:"pattern"`
	Category string           `json:"category"`
	Type     transaction.Kind `json:"type"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	uid, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req learnRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	err := h.matcher.Learn(r.Context(), matching.Mapping{
		UserID:   uid,
		Kind:     req.Type,
		Pattern:  req.Pattern,
		Category: req.Category,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
