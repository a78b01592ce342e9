package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// Timeframe represents a predefined or custom date range selection.
type Timeframe int

const (
	TimeframeToday Timeframe = iota
	TimeframeThisWeek
	TimeframeLastWeek
	TimeframeThisMonth
	TimeframeLastMonth
	TimeframeAll
	TimeframeCustom
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeToday:
		return "今天"
	case TimeframeThisWeek:
		return "本周"
	case TimeframeLastWeek:
		return "上周"
	case TimeframeThisMonth:
		return "本月"
	case TimeframeLastMonth:
		return "上月"
	case TimeframeAll:
		return "全部"
	case TimeframeCustom:
		return "自定义"
	}

	return "未知"
}

// Range returns the local day-aligned bounds of t as seen at now. Weeks start on Monday.
// TimeframeAll and TimeframeCustom have no fixed range and report ok=false.
func (t Timeframe) Range(now time.Time) (start, end time.Time, ok bool) {
	today, endOfToday := transaction.DayBounds(now)

	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	switch t {
	case TimeframeToday:
		return today, endOfToday, true
	case TimeframeThisWeek:
		return monday, endOfToday, true
	case TimeframeLastWeek:
		return monday.AddDate(0, 0, -7), monday.Add(-time.Second), true
	case TimeframeThisMonth:
		return firstOfMonth, endOfToday, true
	case TimeframeLastMonth:
		return firstOfMonth.AddDate(0, -1, 0), firstOfMonth.Add(-time.Second), true
	}

	return time.Time{}, time.Time{}, false
}

// Filter narrows a list filter to the range, leaving it open for TimeframeAll.
func (t Timeframe) Filter(now time.Time) transaction.ListFilter {
	var filter transaction.ListFilter

	if start, end, ok := t.Range(now); ok {
		filter.StartDate, filter.EndDate = &start, &end
	}

	return filter
}

// parseCustomRange reads two YYYY-MM-DD dates into local day bounds.
func parseCustomRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(time.DateOnly, startStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("开始日期格式应为 YYYY-MM-DD")
	}

	end, err := time.ParseInLocation(time.DateOnly, endStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("结束日期格式应为 YYYY-MM-DD")
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("结束日期早于开始日期")
	}

	_, last := transaction.DayBounds(end)

	return start, last, nil
}

// TimeframeSelectedMsg is emitted when the user has selected a valid date range.
// Start and End are zero values when All is true.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
	Label string
}

// Filter converts the selection into a list filter.
func (msg TimeframeSelectedMsg) Filter() transaction.ListFilter {
	var filter transaction.ListFilter

	if !msg.All {
		start, end := msg.Start, msg.End
		filter.StartDate, filter.EndDate = &start, &end
	}

	return filter
}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker is a reusable component for selecting a date range.
type TimeframePicker struct {
	state    timeframeState
	selected Timeframe
	minFrame Timeframe

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	now func() time.Time
	err error
}

// NewTimeframePicker creates a picker starting from the given minimum timeframe.
func NewTimeframePicker(minFrame Timeframe) TimeframePicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "开始日期: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "结束日期: "

	return TimeframePicker{
		state:      timeframeStateSelect,
		selected:   minFrame,
		minFrame:   minFrame,
		startInput: si,
		endInput:   ei,
		now:        time.Now,
	}
}

// Init returns the initial command for the picker.
func (m TimeframePicker) Init() tea.Cmd {
	return nil
}

// Update handles messages for the timeframe picker.
func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case timeframeStateSelect:
			return m.updateSelect(msg)
		case timeframeStateCustom:
			if next, cmd, handled := m.updateCustom(msg); handled {
				return next, cmd
			}
		}
	}

	if m.state == timeframeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > m.minFrame {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == TimeframeCustom {
			m.state = timeframeStateCustom
			m.startInput.Focus()
			m.focusIndex = 0

			return m, textinput.Blink
		}

		selected := m.selected
		start, end, ok := selected.Range(m.now())

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{Start: start, End: end, All: !ok, Label: selected.String()}
		}
	}

	return m, nil
}

// updateCustom handles the keys of the custom range form. Anything else goes to the inputs.
func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}

		return m, textinput.Blink, true

	case "enter":
		start, end, err := parseCustomRange(m.startInput.Value(), m.endInput.Value())
		if err != nil {
			m.err = err
			return m, nil, true
		}

		m.err = nil
		label := fmt.Sprintf("%s ~ %s", FormatDate(start), FormatDate(end))

		return m, func() tea.Msg {
			return TimeframeSelectedMsg{Start: start, End: end, Label: label}
		}, true

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

func (m TimeframePicker) updateInputs(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	var cmds []tea.Cmd
	var c tea.Cmd

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

// View renders the timeframe picker.
func (m TimeframePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("\n\n错误: %v", m.err))
	}

	if m.state == timeframeStateCustom {
		return fmt.Sprintf(
			"输入日期范围:\n\n%s\n%s\n\n(Enter 确认, Tab 切换, Esc 返回)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	s := "选择时间范围:\n\n"
	for i := m.minFrame; i <= TimeframeCustom; i++ {
		cursor := " "
		if m.selected == i {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, i.String())
	}

	s += "\n(Enter 选择, Esc 返回)"

	return s + errStr
}

// IsSelecting returns true if the picker is in the selection state (not custom input).
func (m TimeframePicker) IsSelecting() bool {
	return m.state == timeframeStateSelect
}

// Reset returns the picker to its initial selection state.
func (m *TimeframePicker) Reset() {
	m.state = timeframeStateSelect
	m.selected = m.minFrame
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
