package tester

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

//nolint:gochecknoglobals // Fixed styles.
var (
	passedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// RenderSummary renders one row per tested package.
func RenderSummary(results []Result) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PACKAGE", "VERSION", "RESULT").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col != 2:
				return cellStyle
			case results[row].Passed():
				return passedStyle
			default:
				return failedStyle
			}
		})

	for _, res := range results {
		outcome := "PASSED"
		if !res.Passed() {
			outcome = "FAILED"
		}

		tbl.Row(res.Package, res.Version, outcome)
	}

	return tbl.String()
}
