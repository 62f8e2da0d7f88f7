package indexer

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"os"
	"sort"
	"strings"

	"github.com/mip-org/mip-core/internal/manifest"
)

const (
	// descriptionLimit is the longest description shown in full.
	descriptionLimit = 80
	// truncatedLength is how much of a longer description is kept before "...".
	truncatedLength = 77
)

// row is one package of the listing.
type row struct {
	Name        string
	Version     string
	Description template.HTML
	Homepage    string
	Platform    string
	MHLURL      string
	MipJSONURL  string
}

type page struct {
	Total       int
	LastUpdated string
	Rows        []row
}

//nolint:gochecknoglobals // Parsed once.
var pageTemplate = template.Must(template.New("packages").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MIP Package Index</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
            line-height: 1.6;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            color: #333;
        }
        h1 {
            border-bottom: 2px solid #e1e4e8;
            padding-bottom: 10px;
        }
        .info {
            color: #586069;
            margin: 20px 0;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 20px 0;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border: 1px solid #e1e4e8;
        }
        th {
            background-color: #f6f8fa;
            font-weight: 600;
        }
        tr:hover {
            background-color: #f6f8fa;
        }
        a {
            color: #0366d6;
            text-decoration: none;
        }
        a:hover {
            text-decoration: underline;
        }
        .footer {
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #e1e4e8;
            color: #586069;
        }
    </style>
</head>
<body>
    <h1>MIP Package Index</h1>
    <p>Available MATLAB packages for installation via MIP.</p>
{{- if .Rows}}
    <div class="info">
        <strong>Total packages:</strong> {{.Total}}<br>
        <strong>Last updated:</strong> {{.LastUpdated}}
    </div>
    <table>
        <thead>
            <tr>
                <th>Package</th>
                <th>Version</th>
                <th>Description</th>
                <th>Platform</th>
                <th>Download</th>
            </tr>
        </thead>
        <tbody>
{{- range .Rows}}
            <tr>
                <td>{{if .Homepage}}<a href="{{.Homepage}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</td>
                <td>{{.Version}}</td>
                <td>{{.Description}}</td>
                <td>{{.Platform}}</td>
                <td>
                {{- if .MHLURL}}<a href="{{.MHLURL}}">.mhl</a>{{end}}
                {{- if and .MHLURL .MipJSONURL}} {{end}}
                {{- if .MipJSONURL}}<a href="{{.MipJSONURL}}">metadata</a>{{end}}
                {{- if not (or .MHLURL .MipJSONURL)}}N/A{{end -}}
                </td>
            </tr>
{{- end}}
        </tbody>
    </table>
{{- else}}
    <p>No packages available yet.</p>
{{- end}}
    <div class="footer">
        <p>For more information, visit the <a href="https://github.com/mip-org/mip-package-manager">MIP documentation</a>.</p>
    </div>
</body>
</html>
`))

// RenderHTML renders the package listing, sorted by name ignoring case.
func RenderHTML(idx *manifest.Index) ([]byte, error) {
	data := page{
		Total:       len(idx.Packages),
		LastUpdated: idx.LastUpdated,
		Rows:        sortedRows(idx.Packages),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render packages.html: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteHTML renders idx into path.
func WriteHTML(path string, idx *manifest.Index) error {
	contents, err := RenderHTML(idx)
	if err != nil {
		return err
	}

	if err = os.WriteFile(path, contents, manifest.FilePermissions); err != nil {
		return fmt.Errorf("write packages.html: %w", err)
	}

	return nil
}

// sortedDocuments orders packages by name ignoring case, keeping discovery order for ties.
func sortedDocuments(packages []manifest.Document) []manifest.Document {
	sorted := append([]manifest.Document(nil), packages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Text("name", "")) < strings.ToLower(sorted[j].Text("name", ""))
	})

	return sorted
}

func sortedRows(packages []manifest.Document) []row {
	sorted := sortedDocuments(packages)

	rows := make([]row, 0, len(sorted))
	for _, doc := range sorted {
		rows = append(rows, newRow(doc))
	}

	return rows
}

func newRow(doc manifest.Document) row {
	return row{
		Name:    doc.Text("name", "unknown"),
		Version: doc.Text("version", "unknown"),
		//nolint:gosec // Escaped before truncation.
		Description: template.HTML(truncate(html.EscapeString(doc.Text("description", "")))),
		Homepage:    doc.Text("homepage", ""),
		Platform:    "architecture=" + doc.Text("architecture", "any"),
		MHLURL:      doc.Text("mhl_url", ""),
		MipJSONURL:  doc.Text("mip_json_url", ""),
	}
}

// truncate shortens s to truncatedLength characters plus "..." when it exceeds descriptionLimit.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionLimit {
		return s
	}

	return string(runes[:truncatedLength]) + "..."
}
