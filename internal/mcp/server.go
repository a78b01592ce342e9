// Package mcp exposes the intake operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	"github.com/jizhang-jingling/jizhang/internal/wire"
)

// Server binds the tools to one acting user, resolved once at startup.
type Server struct {
	intake *intake.Service
	txs    *transaction.Service
	userID uuid.UUID
	now    func() time.Time
}

func New(intakeSvc *intake.Service, txSvc *transaction.Service, userID uuid.UUID) *Server {
	return &Server{intake: intakeSvc, txs: txSvc, userID: userID, now: time.Now}
}

// MCPServer builds the SDK server with every tool registered.
func (s *Server) MCPServer(name, version string) *server.MCPServer {
	srv := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTools(s.Tools()...)

	return srv
}

type toolFunc func(ctx context.Context, a args) (any, error)

func (s *Server) handler(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		out, err := fn(ctx, args(req.GetArguments()))
		if err != nil {
			slog.Warn("tool call failed", "tool", name, "error", err)
			return errorResult(err), nil
		}

		body, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s result: %w", name, err)
		}

		return mcpgo.NewToolResultText(string(body)), nil
	}
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

func errorResult(err error) *mcpgo.CallToolResult {
	f := failure{Error: err.Error()}

	var (
		itemErr  *intake.BatchItemError
		validErr *intake.ValidationError
	)

	if errors.As(err, &itemErr) {
		f.Index = new(itemErr.Index)
	}

	if errors.As(err, &validErr) {
		f.Field = validErr.Field
	}

	body, _ := json.Marshal(f)

	return mcpgo.NewToolResultError(string(body))
}

func kindText(k transaction.Kind) string {
	if k == transaction.KindIncome {
		return "收入"
	}

	return "支出"
}

func reimbursable(tags []string) string {
	for _, t := range tags {
		if t == "reimbursement" || t == "可报销" {
			return "可报销"
		}
	}

	return ""
}

type recordResult struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Transaction wire.Transaction `json:"transaction"`
}

func (s *Server) record(ctx context.Context, a args) (any, error) {
	in, err := a.input()
	if err != nil {
		return nil, err
	}

	tx, err := s.intake.Record(ctx, s.userID, in)
	if err != nil {
		return nil, err
	}

	return recordResult{
		Success:     true,
		Message:     fmt.Sprintf("已记录%s%s：%s ¥%s", reimbursable(tx.Tags), kindText(tx.Kind), tx.Category, tx.Amount),
		Transaction: wire.FromTransaction(tx),
	}, nil
}

type batchResult struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Details      []string           `json:"details"`
	Transactions []wire.Transaction `json:"transactions"`
}

func (s *Server) recordBatch(ctx context.Context, a args) (any, error) {
	ins, err := a.inputs("transactions")
	if err != nil {
		return nil, err
	}

	txs, err := s.intake.RecordBatch(ctx, s.userID, ins)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero

	var expenses, incomes int

	details := make([]string, len(txs))

	for i, tx := range txs {
		total = total.Add(tx.Amount)

		if tx.Kind == transaction.KindIncome {
			incomes++
		} else {
			expenses++
		}

		details[i] = fmt.Sprintf("%s%s：%s ¥%s", reimbursable(tx.Tags), kindText(tx.Kind), tx.Category, tx.Amount)
	}

	var msg strings.Builder

	fmt.Fprintf(&msg, "已批量记录 %d 笔交易", len(txs))

	if expenses > 0 {
		fmt.Fprintf(&msg, "，支出 %d 笔", expenses)
	}

	if incomes > 0 {
		fmt.Fprintf(&msg, "，收入 %d 笔", incomes)
	}

	fmt.Fprintf(&msg, "，总金额 ¥%s", total)

	return batchResult{
		Success:      true,
		Message:      msg.String(),
		Details:      details,
		Transactions: wire.FromTransactions(txs),
	}, nil
}

type similarTransaction struct {
	wire.Transaction
	Similarity float64 `json:"similarity"`
	MinutesAgo int     `json:"time_diff_minutes"`
}

type duplicateResult struct {
	Success    bool                 `json:"success"`
	HasSimilar bool                 `json:"has_similar"`
	Level      string               `json:"level"`
	Suggestion string               `json:"suggestion"`
	Count      int                  `json:"similar_count"`
	Similar    []similarTransaction `json:"similar_transactions"`
}

func (s *Server) checkDuplicate(ctx context.Context, a args) (any, error) {
	in, err := a.input()
	if err != nil {
		return nil, err
	}

	hours, err := a.integer("hours_back", 0)
	if err != nil {
		return nil, err
	}

	var res duplicate.Result

	if a.str("scope") == "today" {
		res, err = s.intake.CheckDuplicateToday(ctx, s.userID, in)
	} else {
		res, err = s.intake.CheckDuplicate(ctx, s.userID, in, hours)
	}

	if err != nil {
		return nil, err
	}

	now := s.now()
	out := duplicateResult{
		Success:    true,
		HasSimilar: res.HasSimilar,
		Level:      string(res.Level),
		Suggestion: res.Suggestion,
		Count:      len(res.Matches),
		Similar:    make([]similarTransaction, len(res.Matches)),
	}

	for i, m := range res.Matches {
		out.Similar[i] = similarTransaction{
			Transaction: wire.FromTransaction(m.Transaction),
			Similarity:  roundTo2(m.Similarity),
			MinutesAgo:  int(now.Sub(m.Transaction.OccurredAt).Minutes()),
		}
	}

	return out, nil
}

func roundTo2(f float64) float64 {
	return math.Round(f*100) / 100
}

type listResult struct {
	Success      bool               `json:"success"`
	Count        int                `json:"count"`
	Message      string             `json:"message,omitempty"`
	Transactions []wire.Transaction `json:"transactions"`
}

func (s *Server) today(ctx context.Context, _ args) (any, error) {
	txs, err := s.txs.Today(ctx, s.userID)
	if err != nil {
		return nil, err
	}

	return listResult{
		Success:      true,
		Count:        len(txs),
		Message:      fmt.Sprintf("今天共有 %d 笔交易", len(txs)),
		Transactions: wire.FromTransactions(txs),
	}, nil
}

// filter reads the optional type, category, start_date, end_date and limit arguments.
// A date-only end_date covers the whole day.
func (a args) filter() (transaction.ListFilter, error) {
	var filter transaction.ListFilter

	if k := a.str("type"); k != "" {
		kind := transaction.Kind(k)
		if !kind.Valid() {
			return filter, &intake.ValidationError{Field: "type", Reason: "must be income or expense"}
		}

		filter.Kind = &kind
	}

	filter.Category = a.str("category")

	start, err := a.timeArg("start_date")
	if err != nil {
		return filter, err
	}

	end, err := a.timeArg("end_date")
	if err != nil {
		return filter, err
	}

	if end != nil && len(a.str("end_date")) == len(time.DateOnly) {
		_, last := transaction.DayBounds(*end)
		end = &last
	}

	filter.StartDate, filter.EndDate = start, end

	limit, err := a.integer("limit", 0)
	if err != nil {
		return filter, err
	}

	if limit < 0 {
		return filter, &intake.ValidationError{Field: "limit", Reason: "must not be negative"}
	}

	filter.Limit = limit

	return filter, nil
}

func (s *Server) byDateRange(ctx context.Context, a args) (any, error) {
	if _, err := a.requireStr("start_date"); err != nil {
		return nil, err
	}

	filter, err := a.filter()
	if err != nil {
		return nil, err
	}

	txs, err := s.txs.List(ctx, s.userID, filter)
	if err != nil {
		return nil, err
	}

	return listResult{Success: true, Count: len(txs), Transactions: wire.FromTransactions(txs)}, nil
}

type summaryResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Summary wire.Summary `json:"summary"`
}

func (s *Server) summary(ctx context.Context, a args) (any, error) {
	filter, err := a.filter()
	if err != nil {
		return nil, err
	}

	sum, err := s.txs.Summary(ctx, s.userID, filter)
	if err != nil {
		return nil, err
	}

	return summaryResult{
		Success: true,
		Message: fmt.Sprintf("总收入: ¥%s, 总支出: ¥%s, 余额: ¥%s, 记录数: %d",
			sum.TotalIncome.StringFixed(2), sum.TotalExpense.StringFixed(2), sum.Balance.StringFixed(2), sum.Count),
		Summary: wire.FromSummary(sum),
	}, nil
}

type deleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

func (s *Server) delete(ctx context.Context, a args) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}

	if err := s.txs.Delete(ctx, s.userID, id); err != nil {
		return nil, err
	}

	return deleteResult{Success: true, Message: "已删除交易 " + id, Deleted: 1}, nil
}

func (s *Server) deleteBatch(ctx context.Context, a args) (any, error) {
	ids, err := a.strs("ids")
	if err != nil {
		return nil, err
	}

	n, err := s.txs.DeleteBatch(ctx, s.userID, ids)
	if err != nil {
		return nil, err
	}

	return deleteResult{Success: true, Message: fmt.Sprintf("已删除 %d 笔交易", n), Deleted: n}, nil
}
