// Package dump reads and writes bookmarks in the text format of pdftk's
// dump_data command.
package dump

import (
	"bufio"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
)

// Field labels.
const (
	LabelBegin      = "BookmarkBegin"
	LabelTitle      = "BookmarkTitle"
	LabelLevel      = "BookmarkLevel"
	LabelPageNumber = "BookmarkPageNumber"

	// Reserved for view-state destinations; never written.
	LabelZoom    = "BookmarkZoom"
	LabelYOffset = "BookmarkYOffset"
)

// DefaultNewline is the line terminator of the running platform.
var DefaultNewline = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// Options control the output format.
type Options struct {
	// Newline terminates every line. Empty means DefaultNewline.
	Newline string

	// ASCII writes `&`, `<`, `>` and all non-ASCII characters as XML
	// character references, like pdftk dump_data. Otherwise titles are
	// written as UTF-8, like pdftk dump_data_utf8.
	ASCII bool
}

// Format returns the dump of records. No records give the empty string.
func Format(records []bookmarks.Record, opts Options) string {
	var sb strings.Builder
	// Writing to a strings.Builder cannot fail.
	_ = Write(&sb, records, opts)
	return sb.String()
}

// Write writes the dump of records to w.
func Write(w io.Writer, records []bookmarks.Record, opts Options) error {
	nl := opts.Newline
	if nl == "" {
		nl = DefaultNewline
	}

	bw := bufio.NewWriter(w)
	for _, r := range records {
		title := flattenTitle(r.Title)
		if opts.ASCII {
			title = escapeASCII(title)
		}

		bw.WriteString(LabelBegin)
		bw.WriteString(nl)
		bw.WriteString(LabelTitle + ": ")
		bw.WriteString(title)
		bw.WriteString(nl)
		bw.WriteString(LabelLevel + ": ")
		bw.WriteString(strconv.Itoa(r.Level))
		bw.WriteString(nl)
		if r.HasPage() {
			bw.WriteString(LabelPageNumber + ": ")
			bw.WriteString(strconv.Itoa(r.PageNumber))
			bw.WriteString(nl)
		}
	}
	return bw.Flush()
}

// flattenTitle keeps a title on a single line.
func flattenTitle(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func escapeASCII(s string) string {
	var sb strings.Builder
	for _, c := range s {
		switch {
		case c == '&':
			sb.WriteString("&amp;")
		case c == '<':
			sb.WriteString("&lt;")
		case c == '>':
			sb.WriteString("&gt;")
		case c > 0x7e:
			sb.WriteString("&#")
			sb.WriteString(strconv.Itoa(int(c)))
			sb.WriteByte(';')
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}
