package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"guestlist/internal/models"
)

// The exported sheet keeps the Hebrew column headers the security staff at
// the entrance expect.
var guestHeaders = []string{"שם מלא", "תעודת זהות", "נושא נשק"}

// BuildGuestSheet renders an event's guests into a single-sheet xlsx.
func BuildGuestSheet(eventName string, guests []models.Guest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("אורחים - %s", eventName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "C", 20); err != nil {
		return nil, fmt.Errorf("failed to set column widths: %w", err)
	}

	for i, header := range guestHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, guest := range guests {
		weapon := "לא"
		if guest.Weapon {
			weapon = "כן"
		}
		row := []interface{}{guest.FullName, guest.IDNumber, weapon}
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// UserRow is one inviter parsed from an import sheet.
type UserRow struct {
	IDNumber string
	FullName string
}

// ParseUserRows reads inviters from the first sheet of an uploaded xlsx:
// column A is the id number, column B the full name. A header row is
// detected by a non-numeric first cell and skipped.
func ParseUserRows(r io.Reader) ([]UserRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	var users []UserRow
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		idNumber := strings.TrimSpace(row[0])
		fullName := strings.TrimSpace(row[1])
		if idNumber == "" || fullName == "" {
			continue
		}
		if i == 0 && !isDigits(idNumber) {
			// header row
			continue
		}
		users = append(users, UserRow{IDNumber: idNumber, FullName: fullName})
	}
	return users, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
