// Package render writes extracted bookmarks in the output formats the CLI
// and the HTTP service offer.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/dump"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNoOutline     = errors.New("document has no outline")
)

// ParseFormat maps a format name to a Format. The empty string selects
// the dump text format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "txt", FormatText:
		return FormatText, nil
	case "md", FormatMarkdown:
		return FormatMarkdown, nil
	case "htm", FormatHTML:
		return FormatHTML, nil
	case FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type of the rendering.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension is the usual file extension for the rendering.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ".txt"
	}
}

// Render writes res to w in format f. Text options apply to the dump
// format only. A nil res is ErrNoOutline.
func Render(w io.Writer, res *bookmarks.Result, f Format, opts dump.Options) error {
	if res == nil {
		return ErrNoOutline
	}
	switch f {
	case FormatText:
		return dump.Write(w, res.Records, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(res.Records))
		return err
	case FormatHTML:
		return HTML(w, res.Records)
	case FormatXLSX:
		return XLSX(w, res)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
