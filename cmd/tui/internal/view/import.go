package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateSourceSelect importState = iota
	importStateFilePick
	importStateImporting
	importStateConflicts
	importStateResult
)

var sourceLabels = map[importer.Source]string{
	importer.SourceAuto:    "自动识别",
	importer.SourceWechat:  "微信支付账单",
	importer.SourceAlipay:  "支付宝账单",
	importer.SourceJizhang: "记账导出文件",
}

type ImportModel struct {
	CommonModel

	state          importState
	filePicker     filepicker.Model
	selectedSource importer.Source
	sourceCursor   int

	fresh        []transaction.Input
	conflicts    []intake.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

func NewImportModel(svc Services) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		CommonModel: CommonModel{svc: svc},
		filePicker:  fp,
		selected:    make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "导入账单" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateConflicts {
		return "Space: 勾选 | a: 全选 | n: 全不选 | Enter: 确认 | Esc: 取消"
	}

	return "Esc: 返回 | Enter: 选择"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateSourceSelect {
			return m.updateSourceSelect(msg)
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case importResultMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("错误: %v", msg.err)

			return m, nil
		}

		if len(msg.result.Conflicts) == 0 {
			m.state = importStateResult
			m.status = fmt.Sprintf("已导入 %d 笔交易。", len(msg.result.Imported))

			return m, nil
		}

		m.fresh = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.selected = make(map[int]bool)
		m.state = importStateConflicts

		items := make([]list.Item, len(m.conflicts))
		for i, c := range m.conflicts {
			items[i] = conflictItem{conflict: c, index: i}
		}

		delegate := conflictDelegate{selected: m.selected}
		m.conflictList = list.New(items, delegate, 80, 20)
		m.conflictList.Title = fmt.Sprintf("%d 笔疑似重复，勾选仍要导入的", len(m.conflicts))
		m.conflictList.SetShowStatusBar(false)
		m.conflictList.SetFilteringEnabled(false)
		m.conflictList.SetShowHelp(false)

		return m, nil

	case confirmResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("错误: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("已导入 %d 笔交易，跳过 %d 笔疑似重复。", msg.count, msg.skipped)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("正在导入 %s ...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick:
		m.state = importStateSourceSelect
		return m, nil
	case importStateResult:
		m.state = importStateSourceSelect
		m.err = nil
		m.status = ""

		return m, nil
	case importStateConflicts:
		m.state = importStateSourceSelect
		m.conflicts = nil
		m.fresh = nil
		m.selected = make(map[int]bool)

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateSourceSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.sourceCursor > 0 {
			m.sourceCursor--
		}
	case tea.KeyDown:
		if m.sourceCursor < len(importer.Sources)-1 {
			m.sourceCursor++
		}
	case tea.KeyEnter:
		m.selectedSource = importer.Sources[m.sourceCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateSourceSelect:
		return m.viewSourceSelect()
	case importStateFilePick:
		return m.viewFilePick()
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(m.conflictList.View())
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewSourceSelect() string {
	s := "选择账单来源:\n\n"

	for i, source := range importer.Sources {
		cursor := " "
		if i == m.sourceCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, sourceLabels[source])
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewFilePick() string {
	return lipgloss.NewStyle().Padding(1).Render(
		fmt.Sprintf("选择要导入的文件 (%s):\n\n%s", sourceLabels[m.selectedSource], m.filePicker.View()),
	)
}

func (m ImportModel) viewResult() string {
	color := lipgloss.Color("46")
	if m.err != nil {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Padding(2).Render(
		lipgloss.NewStyle().Foreground(color).Render(m.status) + "\n\n(Esc 返回)",
	)
}

// Messages

type importResultMsg struct {
	result *intake.ImportResult
	err    error
}

type confirmResultMsg struct {
	count   int
	skipped int
	err     error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	svc := m.svc
	source := m.selectedSource

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ins, err := svc.Importer.Import(source, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := svc.Intake.ImportBatch(ctx, svc.UserID, ins)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result}
	}
}

// chosenInputs returns the clean rows plus the conflicts the user ticked.
func chosenInputs(fresh []transaction.Input, conflicts []intake.Conflict, selected map[int]bool) []transaction.Input {
	out := append([]transaction.Input(nil), fresh...)

	for i, c := range conflicts {
		if selected[i] {
			out = append(out, c.Incoming)
		}
	}

	return out
}

func (m ImportModel) confirmCmd() tea.Cmd {
	svc := m.svc
	ins := chosenInputs(m.fresh, m.conflicts, m.selected)
	skipped := len(m.fresh) + len(m.conflicts) - len(ins)

	return func() tea.Msg {
		if len(ins) == 0 {
			return confirmResultMsg{skipped: skipped}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		txs, err := svc.Intake.RecordBatch(ctx, svc.UserID, ins)
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: len(txs), skipped: skipped}
	}
}

// Conflict list item

type conflictItem struct {
	conflict intake.Conflict
	index    int
}

func (i conflictItem) Title() string       { return "" }
func (i conflictItem) Description() string { return "" }
func (i conflictItem) FilterValue() string { return "" }

// Conflict list delegate

type conflictDelegate struct {
	selected map[int]bool
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if d.selected[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming

	when := ""
	if incoming.OccurredAt != nil {
		when = FormatTime(*incoming.OccurredAt)
	}

	line1 := fmt.Sprintf("%s%s %s  %s  %s",
		cursor, checkbox,
		when,
		FormatAmount(incoming.Kind, incoming.Amount),
		incoming.Description,
	)

	line2 := ""
	if len(item.conflict.Matches) > 0 {
		best := item.conflict.Matches[0]
		existing := best.Transaction
		line2 = fmt.Sprintf("      已有: %s  %s  %s [%s] 相似度 %.0f%%",
			FormatTime(existing.OccurredAt),
			FormatAmount(existing.Kind, existing.Amount),
			existing.Description,
			existing.Category,
			best.Similarity*100,
		)
	}

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
