package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/xuri/excelize/v2"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats other than csv and xlsx
var ErrUnsupportedFormat = fmt.Errorf("invalid format: must be csv or xlsx")

// ParseFormat parses a format query value. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

var header = []string{"Section", "Position", "Text"}

// Rows flattens generated content into section/position/text rows.
// Positions are 1-based within a section.
func Rows(gc *domain.GeneratedContent) [][]string {
	var rows [][]string
	if gc.Summary != nil && *gc.Summary != "" {
		rows = append(rows, []string{"summary", "1", *gc.Summary})
	}
	sections := []struct {
		name  string
		items []string
	}{
		{"bullet_points", gc.BulletPoints},
		{"skills", gc.Skills},
		{"keywords", gc.Keywords},
		{"achievements", gc.Achievements},
	}
	for _, s := range sections {
		for i, item := range s.items {
			rows = append(rows, []string{s.name, fmt.Sprint(i + 1), item})
		}
	}
	return rows
}

func renderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write rows: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(title string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Resume"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, h := range header {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for rowIdx, row := range rows {
		r := rowIdx + 2
		for i, value := range row {
			if err := f.SetCellValue(sheetName, fmt.Sprintf("%c%d", 'A'+i, r), value); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 15)
	_ = f.SetColWidth(sheetName, "C", "C", 90)
	_ = f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "JobScout"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
