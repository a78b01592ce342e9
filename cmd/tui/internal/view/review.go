package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type reviewState int

const (
	reviewStateTimeframe reviewState = iota
	reviewStateReviewing
)

// ReviewModel walks through recorded transactions and teaches the matcher a category for
// each description pattern the user confirms.
type ReviewModel struct {
	CommonModel

	state           reviewState
	timeframePicker TimeframePicker

	queue      []*transaction.Transaction
	currentTx  *transaction.Transaction
	totalCount int

	patternInput  textinput.Model
	categoryInput textinput.Model
	focusIndex    int

	status  string
	loading bool
	learned int
}

func NewReviewModel(svc Services) ReviewModel {
	pi := textinput.New()
	pi.Prompt = "关键词: "
	pi.Placeholder = "瑞幸"
	pi.Width = 30

	ci := textinput.New()
	ci.Prompt = "分类:   "
	ci.Placeholder = "餐饮美食"
	ci.Width = 20

	return ReviewModel{
		CommonModel:     CommonModel{svc: svc},
		timeframePicker: NewTimeframePicker(TimeframeToday),
		patternInput:    pi,
		categoryInput:   ci,
	}
}

func (m ReviewModel) Title() string { return "分类学习" }

func (m ReviewModel) ShortHelp() string {
	if m.state == reviewStateReviewing {
		return "Enter: 学习并下一条 | Ctrl+N: 跳过 | Tab: 切换 | Esc: 返回"
	}

	return "Esc: 返回 | Enter: 选择"
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.state = reviewStateReviewing
		m.loading = true
		m.learned = 0

		return m, m.loadQueueCmd(msg.Filter())

	case loadQueueMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("加载失败: %v", msg.err)
			return m, nil
		}

		m.queue = msg.txs
		m.totalCount = len(msg.txs)
		m.nextTx()

		return m, textinput.Blink

	case learnResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("保存失败: %v", msg.err)
			return m, nil
		}

		m.learned++
		m.nextTx()

		return m, textinput.Blink
	}

	switch m.state {
	case reviewStateTimeframe:
		return m.updateTimeframe(msg)
	case reviewStateReviewing:
		return m.updateReviewing(msg)
	}

	return m, nil
}

func (m ReviewModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m ReviewModel) updateReviewing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.loading {
			return m, nil
		}

		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "tab", "shift+tab":
			m.focusIndex = (m.focusIndex + 1) % 2
			m.focusInputs()

			return m, textinput.Blink
		case "ctrl+n":
			m.nextTx()
			return m, textinput.Blink
		case "enter":
			if m.currentTx == nil {
				return m, Back
			}

			return m, m.learnCmd()
		}
	}

	var cmd1, cmd2 tea.Cmd
	m.patternInput, cmd1 = m.patternInput.Update(msg)
	m.categoryInput, cmd2 = m.categoryInput.Update(msg)

	return m, tea.Batch(cmd1, cmd2)
}

func (m *ReviewModel) focusInputs() {
	if m.focusIndex == 0 {
		m.patternInput.Focus()
		m.categoryInput.Blur()

		return
	}

	m.patternInput.Blur()
	m.categoryInput.Focus()
}

func (m *ReviewModel) nextTx() {
	if len(m.queue) == 0 {
		m.currentTx = nil
		m.status = fmt.Sprintf("完成，学习了 %d 条规则。", m.learned)
		m.patternInput.Blur()
		m.categoryInput.Blur()

		return
	}

	m.currentTx = m.queue[0]
	m.queue = m.queue[1:]

	m.status = fmt.Sprintf("第 %d/%d 条", m.totalCount-len(m.queue), m.totalCount)
	m.patternInput.SetValue(m.currentTx.Description)
	m.categoryInput.SetValue(m.currentTx.Category)
	m.focusIndex = 0
	m.focusInputs()
}

func (m ReviewModel) View() string {
	if m.state == reviewStateTimeframe {
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("加载中...")
	}

	if m.currentTx == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc 返回)")
	}

	info := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"时间: %s  |  %s  |  %s\n描述: %s\n当前分类: %s",
			FormatTime(m.currentTx.OccurredAt),
			KindLabel(m.currentTx.Kind),
			FormatAmount(m.currentTx.Kind, m.currentTx.Amount),
			m.currentTx.Description,
			m.currentTx.Category,
		))

	return lipgloss.NewStyle().Padding(1).Render(fmt.Sprintf(
		"%s\n\n%s\n\n以后描述含有关键词的%s记为:\n%s\n%s",
		m.status, info, KindLabel(m.currentTx.Kind), m.patternInput.View(), m.categoryInput.View(),
	))
}

// Messages

type loadQueueMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ReviewModel) loadQueueCmd(filter transaction.ListFilter) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := svc.Transactions.List(ctx, svc.UserID, filter)

		return loadQueueMsg{txs: txs, err: err}
	}
}

type learnResultMsg struct {
	err error
}

func (m ReviewModel) learnCmd() tea.Cmd {
	svc := m.svc
	mapping := matching.Mapping{
		UserID:   svc.UserID,
		Kind:     m.currentTx.Kind,
		Pattern:  m.patternInput.Value(),
		Category: m.categoryInput.Value(),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return learnResultMsg{err: svc.Matcher.Learn(ctx, mapping)}
	}
}
