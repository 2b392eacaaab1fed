package export

import (
	"context"
	"fmt"
	"strings"

	"poassistant/internal/types"
)

type Format string

const (
	FormatCSV      Format = "csv"
	FormatXLSX     Format = "xlsx"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatPNG      Format = "png"
)

func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatCSV, FormatXLSX, FormatHTML, FormatMarkdown, FormatPNG:
		return f, true
	case "markdown":
		return FormatMarkdown, true
	}
	return "", false
}

// Source is what an export is rendered from. A nil Stories or UICode means the
// artifact does not exist.
type Source struct {
	UICode  *string
	Stories []types.Epic
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// ErrNothingToExport is returned when the requested artifact is absent.
var ErrNothingToExport = fmt.Errorf("nothing to export")

// Exporter renders sources into files. Snapshots is only needed for PNG.
type Exporter struct {
	Snapshots *Snapshotter
}

func (e *Exporter) Render(ctx context.Context, format Format, src Source) (File, error) {
	switch format {
	case FormatPNG:
		if src.UICode == nil || strings.TrimSpace(*src.UICode) == "" {
			return File{}, ErrNothingToExport
		}
		if e.Snapshots == nil {
			return File{}, fmt.Errorf("png export is not configured")
		}
		png, err := e.Snapshots.PNG(ctx, *src.UICode)
		if err != nil {
			return File{}, err
		}
		return File{Name: "ui-prototype.png", ContentType: "image/png", Content: png}, nil
	case FormatCSV, FormatXLSX, FormatHTML, FormatMarkdown:
	default:
		return File{}, fmt.Errorf("unknown export format %q", format)
	}

	if src.Stories == nil {
		return File{}, ErrNothingToExport
	}
	switch format {
	case FormatCSV:
		data, err := StoriesCSV(src.Stories)
		return File{Name: "jira_stories.csv", ContentType: "text/csv; charset=utf-8", Content: data}, err
	case FormatXLSX:
		data, err := StoriesXLSX(src.Stories)
		return File{Name: "jira_stories.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Content: data}, err
	case FormatHTML:
		html, err := StoriesHTML(src.Stories)
		return File{Name: "jira_stories.html", ContentType: "text/html; charset=utf-8", Content: []byte(html)}, err
	default:
		return File{Name: "jira_stories.md", ContentType: "text/markdown; charset=utf-8", Content: []byte(StoriesMarkdown(src.Stories))}, nil
	}
}
