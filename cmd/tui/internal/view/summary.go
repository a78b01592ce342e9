package view

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type summaryState int

const (
	summaryStateTimeframe summaryState = iota
	summaryStateReport
)

// categoryItem wraps a category total to implement list.Item.
type categoryItem struct {
	total transaction.CategoryTotal
	share float64
}

func (i categoryItem) Title() string {
	return fmt.Sprintf("%-8s %s  %s", i.total.Category, FormatAmount(i.total.Kind, i.total.Total),
		lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("%d 笔", i.total.Count)))
}

func (i categoryItem) Description() string {
	return fmt.Sprintf("%s %.1f%%", KindLabel(i.total.Kind), i.share*100)
}

func (i categoryItem) FilterValue() string {
	return i.total.Category
}

// categoryItems pairs every category with its share of the income or expense total.
func categoryItems(sum *transaction.Summary) []list.Item {
	items := make([]list.Item, len(sum.ByCategory))

	for i, ct := range sum.ByCategory {
		whole := sum.TotalExpense
		if ct.Kind == transaction.KindIncome {
			whole = sum.TotalIncome
		}

		share := 0.0
		if whole.IsPositive() {
			share = ct.Total.Div(whole).InexactFloat64()
		}

		items[i] = categoryItem{total: ct, share: share}
	}

	return items
}

type SummaryModel struct {
	CommonModel

	state           summaryState
	timeframePicker TimeframePicker
	list            list.Model
	summary         *transaction.Summary

	label   string
	loading bool
	status  string
}

func NewSummaryModel(svc Services) SummaryModel {
	l := list.New([]list.Item{}, categoryDelegate{}, 60, 20)
	l.Title = "分类汇总"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return SummaryModel{
		CommonModel:     CommonModel{svc: svc},
		timeframePicker: NewTimeframePicker(TimeframeToday),
		list:            l,
	}
}

func (m SummaryModel) Title() string { return "汇总" }

func (m SummaryModel) ShortHelp() string {
	switch m.state {
	case summaryStateTimeframe:
		return "Esc: 返回 | Enter: 选择"
	case summaryStateReport:
		return "Esc: 重新选择时间 | /: 筛选分类"
	}

	return ""
}

func (m SummaryModel) Init() tea.Cmd {
	return nil
}

func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.label = msg.Label
		m.loading = true
		m.state = summaryStateReport

		return m, m.loadSummaryCmd(msg.Filter())

	case loadSummaryMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("错误: %v", msg.err)
			return m, nil
		}

		m.status = ""
		m.summary = msg.summary
		m.list.SetItems(categoryItems(msg.summary))

		if msg.summary.Count == 0 {
			m.status = "这段时间没有记录。"
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil
	}

	switch m.state {
	case summaryStateTimeframe:
		return m.updateTimeframe(msg)
	case summaryStateReport:
		return m.updateReport(msg)
	}

	return m, nil
}

func (m SummaryModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m SummaryModel) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)

			return m, cmd
		}

		m.state = summaryStateTimeframe
		m.timeframePicker.Reset()

		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m SummaryModel) View() string {
	switch m.state {
	case summaryStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case summaryStateReport:
		if m.loading {
			return lipgloss.NewStyle().Padding(2).Render("统计中...")
		}

		header := lipgloss.NewStyle().Bold(true).Render(m.label)
		if m.summary != nil {
			header += "\n" + totalsLine(m.summary)
		}

		if m.status != "" {
			header += "\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
		}

		return lipgloss.NewStyle().Padding(1).Render(header + "\n\n" + m.list.View())
	}

	return ""
}

// Messages

type loadSummaryMsg struct {
	summary *transaction.Summary
	err     error
}

func (m SummaryModel) loadSummaryCmd(filter transaction.ListFilter) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sum, err := svc.Transactions.Summary(ctx, svc.UserID, filter)

		return loadSummaryMsg{summary: sum, err: err}
	}
}

// categoryDelegate renders category totals in the list.
type categoryDelegate struct{}

func (d categoryDelegate) Height() int                             { return 2 }
func (d categoryDelegate) Spacing() int                            { return 0 }
func (d categoryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d categoryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(categoryItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
