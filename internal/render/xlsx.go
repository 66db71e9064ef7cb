package render

import (
	"fmt"
	"io"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/xuri/excelize/v2"
)

const (
	bookmarksSheet = "Bookmarks"
	warningsSheet  = "Warnings"
	maxIndent      = 15
)

// XLSX writes a workbook with one row per bookmark. Titles are indented
// by level. Diagnostics, if any, go to a second sheet.
func XLSX(w io.Writer, res *bookmarks.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookmarksSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(bookmarksSheet, "A1", &[]any{"Level", "Title", "Page"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Styles are shared per indent level.
	styles := map[int]int{}
	for i, r := range res.Records {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{r.Level, r.Title, nil}
		if r.HasPage() {
			values[2] = r.PageNumber
		}
		if err := f.SetSheetRow(bookmarksSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		indent := min(r.Level-1, maxIndent)
		if indent <= 0 {
			continue
		}
		style, ok := styles[indent]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Alignment: &excelize.Alignment{Horizontal: "left", Indent: indent},
			})
			if err != nil {
				return fmt.Errorf("create style: %w", err)
			}
			styles[indent] = style
		}
		title, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStyle(bookmarksSheet, title, title, style); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if len(res.Diagnostics) > 0 {
		if _, err := f.NewSheet(warningsSheet); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := f.SetSheetRow(warningsSheet, "A1", &[]any{"Kind", "Title", "Level", "Detail"}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for i, d := range res.Diagnostics {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(warningsSheet, cell, &[]any{string(d.Kind), d.Title, d.Level, d.Detail}); err != nil {
				return fmt.Errorf("write warning %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
