// Package report exports a learner's course progress as a spreadsheet for
// parents and admins.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/heartwood-edu/heartwood/internal/progress"
)

const sheetName = "Progress"

var headers = []string{"Course", "Status", "Progress %", "Points", "Time Spent (min)", "Last Accessed"}

// Export writes one row per enrolled course to an .xlsx workbook.
func Export(w io.Writer, childName string, rows []progress.Overview) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("Progress report for %s", childName)); err != nil {
		return fmt.Errorf("writing report title: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, o := range rows {
		rowNum := i + 3
		values := []any{
			o.Title,
			o.Status().String(),
			round1(o.Percentage()),
			totalPoints(o),
			totalMinutes(o),
			lastAccessed(o),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", rowNum, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// round1 keeps the stored percentage unrounded; display rounds to one
// decimal place.
func round1(pct float64) float64 {
	return float64(int(pct*10+0.5)) / 10
}

func totalPoints(o progress.Overview) int {
	if o.Record == nil {
		return 0
	}
	return o.Record.TotalPoints()
}

func totalMinutes(o progress.Overview) int {
	if o.Record == nil {
		return 0
	}
	return o.Record.TotalTimeSeconds() / 60
}

func lastAccessed(o progress.Overview) string {
	if o.Record == nil || o.Record.LastAccessedAt.IsZero() {
		return ""
	}
	return o.Record.LastAccessedAt.Format(time.RFC3339)
}
