// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// QuoteRow is one venue's answer in the quote table.
type QuoteRow struct {
	Venue     string // e.g. "Uniswap V3 0.3%"
	AmountOut string // display units, pre-formatted by the domain
	Symbol    string
	ImpactPct float64
	Gas       uint64
	Best      bool
	Blocked   bool
}

// QuoteTable is a full refresh of the quote display. All values arrive
// pre-formatted; the UI renders and never recalculates.
type QuoteTable struct {
	Pair           string
	TradeSize      string // e.g. "1 WETH"
	Rows           []QuoteRow
	Savings        string // e.g. "0.20% (2 USDC)"
	Recommendation string
	Warning        string
}

// QuotesComponent renders the ranked venue quotes for the watched pair.
type QuotesComponent struct {
	table QuoteTable
	has   bool
}

// NewQuotesComponent creates a new quotes component.
func NewQuotesComponent() *QuotesComponent {
	return &QuotesComponent{}
}

// Update replaces the displayed table.
func (c *QuotesComponent) Update(table QuoteTable) {
	c.table = table
	c.has = true
}

// View renders the quotes component.
func (c *QuotesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	bestStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	blockedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if !c.has {
		return headerStyle.Render("QUOTES") + "\n\n" + dimStyle.Render("  Waiting for quotes...")
	}

	t := c.table
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(fmt.Sprintf("QUOTES (%s)", t.Pair)))
	if t.TradeSize != "" {
		sb.WriteString(dimStyle.Render("  " + t.TradeSize + " in"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-22s  %20s  %8s  %8s\n", "Venue", "Amount Out", "Impact", "Gas"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 64)) + "\n")

	for _, row := range t.Rows {
		marker := "  "
		style := dimStyle
		switch {
		case row.Blocked:
			marker = "! "
			style = blockedStyle
		case row.Best:
			marker = "> "
			style = bestStyle
		}

		line := fmt.Sprintf("%s%-22s  %20s  %7.2f%%  %8d",
			marker, row.Venue, row.AmountOut+" "+row.Symbol, row.ImpactPct, row.Gas)
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}

	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 64)) + "\n")

	if t.Savings != "" {
		sb.WriteString(fmt.Sprintf("  Savings: %s\n", bestStyle.Render(t.Savings)))
	}
	if t.Recommendation != "" {
		sb.WriteString(dimStyle.Render("  "+t.Recommendation) + "\n")
	}
	if t.Warning != "" {
		sb.WriteString(warnStyle.Render("  "+t.Warning) + "\n")
	}

	return sb.String()
}
