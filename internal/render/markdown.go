package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/yuin/goldmark"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`&`, `\&`,
)

// Markdown renders records as a nested bullet list. Levels that skip
// ahead are clamped to one below the previous item so the list stays
// well formed.
func Markdown(records []bookmarks.Record) string {
	var buf strings.Builder
	prev := 0
	for _, r := range records {
		level := min(r.Level, prev+1)
		prev = level

		buf.WriteString(strings.Repeat("  ", level-1))
		buf.WriteString("- ")
		title := strings.Join(strings.Fields(r.Title), " ")
		if title == "" {
			title = "(untitled)"
		} else {
			title = markdownText(title)
		}
		buf.WriteString(title)
		if r.HasPage() {
			fmt.Fprintf(&buf, " (p. %d)", r.PageNumber)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// markdownText escapes s for use as list item text.
func markdownText(s string) string {
	s = mdEscaper.Replace(s)
	// A leading list marker would open a nested list.
	switch {
	case s[0] == '-' || s[0] == '+':
		return `\` + s
	case s[0] >= '0' && s[0] <= '9':
		i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
		if i > 0 && (s[i] == '.' || s[i] == ')') {
			return s[:i] + `\` + s[i:]
		}
	}
	return s
}

// HTML renders records as nested HTML lists by converting the Markdown
// rendering with goldmark.
func HTML(w io.Writer, records []bookmarks.Record) error {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(records)), &buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
