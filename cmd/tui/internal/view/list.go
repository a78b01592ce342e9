package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateConfirmDelete
)

var (
	kindFilters = []struct {
		label string
		kind  transaction.Kind
	}{
		{label: "全部"},
		{label: "支出", kind: transaction.KindExpense},
		{label: "收入", kind: transaction.KindIncome},
	}

	dateFilters = []Timeframe{TimeframeToday, TimeframeThisWeek, TimeframeThisMonth, TimeframeLastMonth, TimeframeAll}
)

type ListModel struct {
	CommonModel

	state listState
	table table.Model
	txs   []*transaction.Transaction

	// Filter cycling
	kindFilterIdx int
	dateFilterIdx int

	loading bool
	err     error
	status  string
	now     func() time.Time
}

func NewListModel(svc Services) ListModel {
	columns := []table.Column{
		{Title: "时间", Width: 12},
		{Title: "类型", Width: 6},
		{Title: "分类", Width: 10},
		{Title: "金额", Width: 12},
		{Title: "描述", Width: 36},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		CommonModel:   CommonModel{svc: svc},
		table:         t,
		dateFilterIdx: 1,
		loading:       true,
		now:           time.Now,
	}
}

func (m ListModel) Title() string { return "流水" }

func (m ListModel) ShortHelp() string {
	if m.state == listStateConfirmDelete {
		return "y: 删除 | n/Esc: 取消"
	}

	return "Esc: 返回 | t: 类型 | d: 时间 | x: 删除 | r: 刷新"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

// filter builds the list filter for the current kind and date selection.
func (m ListModel) filter() transaction.ListFilter {
	filter := dateFilters[m.dateFilterIdx].Filter(m.now())

	if k := kindFilters[m.kindFilterIdx].kind; k != "" {
		filter.Kind = &k
	}

	return filter
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case listDeleteMsg:
		m.state = listStateBrowse
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("删除失败: %v", msg.err)
			return m, nil
		}

		m.status = "已删除 " + msg.id

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "t":
			m.kindFilterIdx = (m.kindFilterIdx + 1) % len(kindFilters)
			return m, m.loadTxsCmd()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(dateFilters)
			return m, m.loadTxsCmd()
		case "x":
			if m.selected() == nil {
				return m, nil
			}

			m.state = listStateConfirmDelete
			m.table.Blur()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		return m, m.deleteCmd()
	case "n", "N", "esc":
		m.state = listStateBrowse
		m.table.Focus()
	}

	return m, nil
}

func (m ListModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("加载中...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("错误: %v", m.err))
	}

	header := fmt.Sprintf(
		"筛选: [t] 类型: %s | [d] 时间: %s",
		activeStyle(kindFilters[m.kindFilterIdx].label),
		activeStyle(dateFilters[m.dateFilterIdx].String()),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		totalsLine(transaction.Summarize(m.txs)),
	)

	if m.state == listStateConfirmDelete {
		if tx := m.selected(); tx != nil {
			panel := lipgloss.NewStyle().
				Padding(1, 2).
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Width(40).
				Render(fmt.Sprintf("删除这笔交易?\n\n%s %s\n%s\n\n(y/n)",
					tx.Category, FormatAmount(tx.Kind, tx.Amount), tx.Description))

			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
		}
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func totalsLine(sum *transaction.Summary) string {
	return lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf(
		"共 %d 笔 | 收入 ¥%s | 支出 ¥%s | 结余 ¥%s",
		sum.Count, sum.TotalIncome.StringFixed(2), sum.TotalExpense.StringFixed(2), sum.Balance.StringFixed(2),
	))
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatTime(tx.OccurredAt),
			KindLabel(tx.Kind),
			tx.Category,
			FormatAmount(tx.Kind, tx.Amount),
			tx.Description,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	svc := m.svc
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := svc.Transactions.List(ctx, svc.UserID, filter)

		return loadListMsg{txs: txs, err: err}
	}
}

type listDeleteMsg struct {
	id  string
	err error
}

func (m ListModel) deleteCmd() tea.Cmd {
	tx := m.selected()
	if tx == nil {
		return nil
	}

	svc := m.svc
	id := tx.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return listDeleteMsg{id: id, err: svc.Transactions.Delete(ctx, svc.UserID, id)}
	}
}
