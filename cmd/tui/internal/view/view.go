package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jizhang-jingling/jizhang/internal/export"
	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/matching"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// Services bundles what the screens call into, on behalf of one user.
type Services struct {
	UserID       uuid.UUID
	Intake       *intake.Service
	Transactions *transaction.Service
	Importer     *importer.Service
	Export       *export.Service
	// Matcher is nil when the storage backend keeps no learned mappings.
	Matcher *matching.Service
}

// CommonModel is embedded by all views.
type CommonModel struct {
	svc Services
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
