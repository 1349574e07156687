package attendance

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Attendance"

var exportHeaders = []string{"ID", "Login time (UTC)", "Logout time (UTC)", "Duration (minutes)"}

// Export renders check-ins as an .xlsx workbook, one row per record.
func Export(records []Attendance) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheet")
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetColWidth(exportSheet, "A", "A", 8)
	_ = f.SetColWidth(exportSheet, "B", "C", 22)
	_ = f.SetColWidth(exportSheet, "D", "D", 18)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	for i, h := range exportHeaders {
		_ = f.SetCellValue(exportSheet, cell(i, 1), h)
	}
	_ = f.SetCellStyle(exportSheet, cell(0, 1), cell(len(exportHeaders)-1, 1), headerStyle)

	for i, att := range records {
		row := i + 2
		_ = f.SetCellValue(exportSheet, cell(0, row), att.ID)
		_ = f.SetCellValue(exportSheet, cell(1, row), att.LoginTime.UTC().Format(time.DateTime))
		if att.LogoutTime.Valid {
			_ = f.SetCellValue(exportSheet, cell(2, row), att.LogoutTime.Time.UTC().Format(time.DateTime))
		} else {
			_ = f.SetCellValue(exportSheet, cell(2, row), "-")
		}
		if att.DurationMinutes.Valid {
			_ = f.SetCellValue(exportSheet, cell(3, row), att.DurationMinutes.Int)
		}
	}

	buf := new(bytes.Buffer)
	if err = f.Write(buf); err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

// ExportFilename is the download name of a student's attendance workbook.
func ExportFilename(studentID int) string {
	return fmt.Sprintf("attendance_student_%d.xlsx", studentID)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
