package indexer

import (
	"encoding/json"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mip-org/mip-core/internal/manifest"
)

//nolint:gochecknoglobals // Fixed styles.
var (
	tableBorderColor = lipgloss.Color("240")
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable renders the index as a terminal table in the same order as packages.html.
func RenderTable(idx *manifest.Index) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(tableBorderColor)).
		Headers("PACKAGE", "VERSION", "PLATFORM", "SYMBOLS", "DESCRIPTION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}

			return tableCellStyle
		})

	for _, doc := range sortedDocuments(idx.Packages) {
		tbl.Row(
			doc.Text("name", "unknown"),
			doc.Text("version", "unknown"),
			doc.Text("platform_tag", "any"),
			symbolCount(doc),
			truncate(doc.Text("description", "")),
		)
	}

	return tbl.String()
}

// symbolCount returns the number of exposed symbols, or "-" when the field is missing.
func symbolCount(doc manifest.Document) string {
	raw, ok := doc["exposed_symbols"]
	if !ok {
		return "-"
	}

	var symbols []string
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return "-"
	}

	return strconv.Itoa(len(symbols))
}
