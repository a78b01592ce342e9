package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/jizhang-jingling/jizhang/cmd/tui/internal/view"
	"github.com/jizhang-jingling/jizhang/internal/config"
	"github.com/jizhang-jingling/jizhang/internal/export"
	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/logging"
	"github.com/jizhang-jingling/jizhang/internal/storage"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

type View int

const (
	ViewMenu View = iota
	ViewRecord
	ViewList
	ViewSummary
	ViewImport
	ViewExport
	ViewReview
)

type menuEntry struct {
	key   string
	label string
	view  View
}

type model struct {
	svc     view.Services
	entries []menuEntry

	currentView View

	recordView  view.RecordModel
	listView    view.ListModel
	summaryView view.SummaryModel
	importView  view.ImportModel
	exportView  view.ExportModel
	reviewView  view.ReviewModel
}

func initialModel(svc view.Services) model {
	entries := []menuEntry{
		{key: "1", label: "记一笔", view: ViewRecord},
		{key: "2", label: "流水", view: ViewList},
		{key: "3", label: "汇总", view: ViewSummary},
		{key: "4", label: "导入账单", view: ViewImport},
		{key: "5", label: "导出", view: ViewExport},
	}

	if svc.Matcher != nil {
		entries = append(entries, menuEntry{key: "6", label: "分类学习", view: ViewReview})
	}

	return model{
		svc:         svc,
		entries:     entries,
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// open builds a fresh screen so every visit starts from its first step.
func (m model) open(v View) (model, tea.Cmd) {
	m.currentView = v

	switch v {
	case ViewRecord:
		m.recordView = view.NewRecordModel(m.svc)
		return m, m.recordView.Init()
	case ViewList:
		m.listView = view.NewListModel(m.svc)
		return m, m.listView.Init()
	case ViewSummary:
		m.summaryView = view.NewSummaryModel(m.svc)
		return m, m.summaryView.Init()
	case ViewImport:
		m.importView = view.NewImportModel(m.svc)
		return m, m.importView.Init()
	case ViewExport:
		m.exportView = view.NewExportModel(m.svc)
		return m, m.exportView.Init()
	case ViewReview:
		m.reviewView = view.NewReviewModel(m.svc)
		return m, m.reviewView.Init()
	}

	return m, nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			if msg.String() == "q" {
				return m, tea.Quit
			}

			for _, e := range m.entries {
				if msg.String() == e.key {
					return m.open(e.view)
				}
			}

			return m, nil
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewRecord:
		var newModel tea.Model
		newModel, cmd = m.recordView.Update(msg)
		m.recordView = newModel.(view.RecordModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewSummary:
		var newModel tea.Model
		newModel, cmd = m.summaryView.Update(msg)
		m.summaryView = newModel.(view.SummaryModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	}

	return m, cmd
}

func (m model) current() view.View {
	switch m.currentView {
	case ViewRecord:
		return m.recordView
	case ViewList:
		return m.listView
	case ViewSummary:
		return m.summaryView
	case ViewImport:
		return m.importView
	case ViewExport:
		return m.exportView
	case ViewReview:
		return m.reviewView
	}

	return nil
}

func (m model) View() string {
	if m.currentView == ViewMenu {
		var b strings.Builder

		b.WriteString(lipgloss.NewStyle().Bold(true).Render("记账") + "\n\n")

		for _, e := range m.entries {
			fmt.Fprintf(&b, "%s. %s\n", e.key, e.label)
		}

		b.WriteString("\nq. 退出")

		return lipgloss.NewStyle().Padding(2).Render(b.String())
	}

	v := m.current()
	if v == nil {
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Render(v.Title())
	help := lipgloss.NewStyle().Faint(true).Render(v.ShortHelp())

	return title + "\n" + v.View() + "\n" + help
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile("jizhang-tui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.SetDefault(logging.New(logFile, cfg.App.LogLevel, cfg.IsDevelopment()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	backend, err := storage.Open(ctx, cfg)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	txSvc := transaction.NewService(backend.Transactions)

	svc := view.Services{
		UserID:       backend.UserID,
		Intake:       backend.Intake(cfg),
		Transactions: txSvc,
		Importer:     importer.NewService(),
		Export:       export.NewService(txSvc),
		Matcher:      backend.Matcher,
	}

	p := tea.NewProgram(initialModel(svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
