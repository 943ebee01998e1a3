package main

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rpggio/workefforts/internal/domain/record"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	cellStyle    = lipgloss.NewStyle().PaddingRight(2)
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))

	statusColors = map[record.Status]lipgloss.Color{
		record.StatusActive:    lipgloss.Color("#5B8DEF"),
		record.StatusPaused:    lipgloss.Color("#E5C07B"),
		record.StatusCompleted: lipgloss.Color("#98C379"),
		record.StatusArchived:  lipgloss.Color("#7F848E"),
	}
)

func styleStatus(s record.Status) string {
	color, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(s))
}

func styleMissing(s string) string {
	return missingStyle.Render(s + " (missing)")
}

// renderTable lays rows out in borderless aligned columns.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingRight(2)
			}
			return cellStyle
		})
	return t.Render() + "\n"
}

func shortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
