package dump

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
)

// SyntaxError reports a malformed line in a dump.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dump: line %d: %s", e.Line, e.Msg)
}

// Parse reads the bookmarks from a dump. Lines may end in "\n" or "\r\n".
// Other pdftk sections (InfoBegin, PageMediaBegin, ...) and the reserved
// zoom and offset fields are skipped. With opts.ASCII, character
// references in titles are decoded, so a dump reads back unchanged when
// parsed with the options it was written with. opts.Newline is ignored.
func Parse(r io.Reader, opts Options) ([]bookmarks.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	res := []bookmarks.Record{}
	var cur *bookmarks.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == LabelBegin {
			res = append(res, bookmarks.Record{})
			cur = &res[len(res)-1]
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.HasPrefix(key, "Bookmark") {
			// A line outside the bookmark fields ends the current block.
			cur = nil
			continue
		}
		value = strings.TrimPrefix(value, " ")

		if cur == nil {
			return nil, &SyntaxError{Line: lineNo, Msg: key + " outside of " + LabelBegin + " block"}
		}
		switch key {
		case LabelTitle:
			if opts.ASCII {
				value = html.UnescapeString(value)
			}
			cur.Title = value
		case LabelLevel:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 1 {
				return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("invalid level %q", value)}
			}
			cur.Level = n
		case LabelPageNumber:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("invalid page number %q", value)}
			}
			cur.PageNumber = n
		case LabelZoom, LabelYOffset:
			// reserved
		default:
			return nil, &SyntaxError{Line: lineNo, Msg: "unknown field " + key}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i, rec := range res {
		if rec.Level == 0 {
			return nil, fmt.Errorf("dump: bookmark %d (%q) has no %s", i+1, rec.Title, LabelLevel)
		}
	}
	return res, nil
}
