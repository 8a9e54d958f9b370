package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HistoryRow is one past best-route observation.
type HistoryRow struct {
	Timestamp  string // "15:04:05"
	Block      uint64
	Pair       string
	Venue      string
	AmountOut  string
	ImpactPct  float64
	SavingsPct float64
}

// HistoryComponent renders the best-route history, newest first.
type HistoryComponent struct {
	rows       []HistoryRow
	maxRows    int
	maxVisible int
	offset     int
}

// NewHistoryComponent creates a history component storing up to maxRows
// observations and showing maxVisible at a time.
func NewHistoryComponent(maxRows, maxVisible int) *HistoryComponent {
	if maxRows <= 0 {
		maxRows = 50
	}
	if maxVisible <= 0 {
		maxVisible = 8
	}
	return &HistoryComponent{
		rows:       make([]HistoryRow, 0, maxRows),
		maxRows:    maxRows,
		maxVisible: maxVisible,
	}
}

// Add prepends a new observation, trimming the oldest past capacity.
func (h *HistoryComponent) Add(row HistoryRow) {
	h.rows = append([]HistoryRow{row}, h.rows...)
	if len(h.rows) > h.maxRows {
		h.rows = h.rows[:h.maxRows]
	}
}

// Clear drops all history.
func (h *HistoryComponent) Clear() {
	h.rows = h.rows[:0]
	h.offset = 0
}

// ScrollUp moves the visible window toward newer rows.
func (h *HistoryComponent) ScrollUp() {
	if h.offset > 0 {
		h.offset--
	}
}

// ScrollDown moves the visible window toward older rows.
func (h *HistoryComponent) ScrollDown() {
	if h.offset < len(h.rows)-h.maxVisible {
		h.offset++
	}
}

// View renders the history component.
func (h *HistoryComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	posStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("BEST ROUTE HISTORY (%d)", len(h.rows))))
	sb.WriteString("\n\n")

	if len(h.rows) == 0 {
		sb.WriteString(dimStyle.Render("  No observations yet"))
		return sb.String()
	}

	start := h.offset
	if start > len(h.rows)-1 {
		start = len(h.rows) - 1
	}
	end := start + h.maxVisible
	if end > len(h.rows) {
		end = len(h.rows)
	}

	for _, row := range h.rows[start:end] {
		savings := ""
		if row.SavingsPct > 0 {
			savings = posStyle.Render(fmt.Sprintf("+%.2f%%", row.SavingsPct))
		}
		sb.WriteString(fmt.Sprintf("  %s  #%-9d %-10s %-20s %14s  %s\n",
			dimStyle.Render(row.Timestamp),
			row.Block,
			row.Pair,
			row.Venue,
			row.AmountOut,
			savings,
		))
	}

	if len(h.rows) > h.maxVisible {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  showing %d-%d of %d", start+1, end, len(h.rows))))
		sb.WriteString("\n")
	}

	return sb.String()
}
