package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds watch statistics for display.
type Stats struct {
	BlocksSeen int64
	Scans      int64
	Quotes     int64
	Errors     int64
}

// StatsComponent renders watch statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	quoteRate := float64(0)
	if s.stats.Scans > 0 {
		quoteRate = float64(s.stats.Quotes) / float64(s.stats.Scans) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Blocks seen: %s  │  Scans: %s  │  Quoted: %s (%.1f%%)  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.BlocksSeen)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Scans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Quotes)),
			quoteRate,
			errorsDisplay,
		)
}
