package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/jizhang-jingling/jizhang/internal/duplicate"
	"github.com/jizhang-jingling/jizhang/internal/reldate"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type recordState int

const (
	recordStateForm recordState = iota
	recordStateChecking
	recordStateConfirm
	recordStateResult
)

// recordFields lives on the heap so the form keeps writing to it while the model is copied.
type recordFields struct {
	Kind        string
	Amount      string
	Description string
	Category    string
	Tags        string
}

// toInput converts the form values. Relative dates in the description are resolved by intake.
func (f recordFields) toInput() (transaction.Input, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil {
		return transaction.Input{}, errors.New("金额必须是数字")
	}

	var tags []string

	for t := range strings.FieldsFuncSeq(f.Tags, func(r rune) bool { return r == ',' || r == '，' || r == ' ' }) {
		tags = append(tags, t)
	}

	return transaction.Input{
		Kind:        transaction.Kind(f.Kind),
		Amount:      amount,
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Tags:        tags,
	}, nil
}

type RecordModel struct {
	CommonModel

	state  recordState
	form   *huh.Form
	fields *recordFields

	input  transaction.Input
	check  duplicate.Result
	status string
	err    error
}

func NewRecordModel(svc Services) RecordModel {
	m := RecordModel{CommonModel: CommonModel{svc: svc}}
	m.resetForm()

	return m
}

func (m *RecordModel) resetForm() {
	m.fields = &recordFields{Kind: string(transaction.KindExpense)}
	m.state = recordStateForm
	m.err = nil
	m.status = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("type").
				Title("类型").
				Options(
					huh.NewOption("支出", string(transaction.KindExpense)),
					huh.NewOption("收入", string(transaction.KindIncome)),
				).
				Value(&m.fields.Kind),

			huh.NewInput().
				Key("amount").
				Title("金额").
				Placeholder("35.5").
				Value(&m.fields.Amount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil || !d.IsPositive() {
						return errors.New("金额必须大于 0")
					}

					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("描述").
				Placeholder("昨天中午和同事吃饭").
				Value(&m.fields.Description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("描述不能为空")
					}

					return nil
				}),

			huh.NewInput().
				Key("category").
				Title("分类 (可选)").
				Placeholder("留空自动分类").
				Value(&m.fields.Category),

			huh.NewInput().
				Key("tags").
				Title("标签 (可选)").
				Placeholder("可报销, 出差").
				Value(&m.fields.Tags),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m RecordModel) Title() string { return "记一笔" }

func (m RecordModel) ShortHelp() string {
	switch m.state {
	case recordStateConfirm:
		return "y: 仍然记录 | n/Esc: 取消"
	case recordStateResult:
		return "Enter: 再记一笔 | Esc: 返回"
	}

	return "Esc: 返回 | Enter/Tab: 下一项"
}

func (m RecordModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case duplicateCheckMsg:
		if msg.err != nil {
			m.state = recordStateResult
			m.err = msg.err

			return m, nil
		}

		if !msg.result.HasSimilar {
			return m, m.recordCmd()
		}

		m.check = msg.result
		m.state = recordStateConfirm

		return m, nil

	case recordResultMsg:
		m.state = recordStateResult
		m.err = msg.err

		if msg.err == nil {
			tx := msg.tx
			m.status = fmt.Sprintf("已记录%s：%s %s  %s  %s（%s）",
				KindLabel(tx.Kind), tx.Category, FormatAmount(tx.Kind, tx.Amount), tx.Description,
				FormatTime(tx.OccurredAt), reldate.Describe(dayOffset(tx.OccurredAt, time.Now())))
		}

		return m, nil
	}

	switch m.state {
	case recordStateForm:
		return m.updateForm(msg)
	case recordStateConfirm:
		return m.updateConfirm(msg)
	case recordStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m RecordModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	in, err := m.fields.toInput()
	if err != nil {
		m.state = recordStateResult
		m.err = err

		return m, nil
	}

	m.input = in
	m.state = recordStateChecking

	return m, m.checkCmd()
}

func (m RecordModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.state = recordStateChecking
		return m, m.recordCmd()
	case "n", "N", "esc":
		m.resetForm()
		return m, m.form.Init()
	}

	return m, nil
}

func (m RecordModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyEsc:
		return m, Back
	case tea.KeyEnter:
		m.resetForm()
		return m, m.form.Init()
	}

	return m, nil
}

func (m RecordModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch m.state {
	case recordStateForm:
		return style.Render(m.form.View())
	case recordStateChecking:
		return style.Render("保存中...")
	case recordStateConfirm:
		return style.Render(m.viewConfirm())
	case recordStateResult:
		if m.err != nil {
			return style.Render(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("错误: %v", m.err)))
		}

		return style.Render(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status))
	}

	return ""
}

func (m RecordModel) viewConfirm() string {
	var b strings.Builder

	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	b.WriteString(warn.Render(m.check.Suggestion))
	b.WriteString("\n\n")

	for _, match := range m.check.Matches {
		tx := match.Transaction
		fmt.Fprintf(&b, "  %s  %s  %s  %s  (相似度 %.0f%%)\n",
			FormatTime(tx.OccurredAt), tx.Category, FormatAmount(tx.Kind, tx.Amount), tx.Description, match.Similarity*100)
	}

	b.WriteString("\n仍然记录? (y/n)")

	return b.String()
}

// Messages

type duplicateCheckMsg struct {
	result duplicate.Result
	err    error
}

func (m RecordModel) checkCmd() tea.Cmd {
	in := m.input
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := svc.Intake.CheckDuplicate(ctx, svc.UserID, in, 0)

		return duplicateCheckMsg{result: res, err: err}
	}
}

type recordResultMsg struct {
	tx  *transaction.Transaction
	err error
}

func (m RecordModel) recordCmd() tea.Cmd {
	in := m.input
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		tx, err := svc.Intake.Record(ctx, svc.UserID, in)

		return recordResultMsg{tx: tx, err: err}
	}
}

// dayOffset counts calendar days from now to t in the local zone.
func dayOffset(t, now time.Time) int {
	day := func(x time.Time) time.Time {
		x = x.In(time.Local)
		return time.Date(x.Year(), x.Month(), x.Day(), 12, 0, 0, 0, time.UTC)
	}

	return int(day(t).Sub(day(now)).Hours() / 24)
}
