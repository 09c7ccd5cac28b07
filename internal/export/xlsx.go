// Package export renders the budget as an Excel workbook.
package export

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

// SheetName is the name of the single worksheet in the export.
const SheetName = "Budget"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExpensesXLSX writes the expenses of s, one per row, followed by the
// budget, total spent and remaining. Totals are spreadsheet formulas so
// edits made in the workbook keep them consistent.
func ExpensesXLSX(s core.Summary) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "budget",
		DocSecurity: 2,
	})

	sheet := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := xlsx.SetSheetName(sheet, SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	sheet = SheetName

	_ = xlsx.SetColWidth(sheet, "A", "A", 6)
	_ = xlsx.SetColWidth(sheet, "B", "B", 45)
	_ = xlsx.SetColWidth(sheet, "C", "C", 14)
	_ = xlsx.SetColWidth(sheet, "D", "D", 38)

	header(xlsx, sheet, 1, "#", "Description", "Amount", "ID")

	row := 2
	amountStyle, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), amountFormat()))
	for _, e := range s.Expenses {
		_ = xlsx.SetCellInt(sheet, cell('A', row), e.Index)
		_ = xlsx.SetCellValue(sheet, cell('B', row), e.Description)
		_ = xlsx.SetCellValue(sheet, cell('C', row), e.Amount.InexactFloat64())
		_ = xlsx.SetCellValue(sheet, cell('D', row), e.ID.String())
		_ = xlsx.SetCellStyle(sheet, cell('C', row), cell('C', row), amountStyle)
		row++
	}
	lastExpenseRow := row - 1

	row++
	budgetRow := row
	_ = xlsx.SetCellValue(sheet, cell('B', row), "Budget")
	_ = xlsx.SetCellValue(sheet, cell('C', row), s.Budget.InexactFloat64())
	row++

	spentRow := row
	_ = xlsx.SetCellValue(sheet, cell('B', row), "Total spent")
	if lastExpenseRow >= 2 {
		_ = xlsx.SetCellFormula(sheet, cell('C', row), fmt.Sprintf("SUM(C2:C%d)", lastExpenseRow))
	} else {
		_ = xlsx.SetCellValue(sheet, cell('C', row), 0)
	}
	row++

	_ = xlsx.SetCellValue(sheet, cell('B', row), "Remaining")
	_ = xlsx.SetCellFormula(sheet, cell('C', row), fmt.Sprintf("C%d-C%d", budgetRow, spentRow))

	totalStyle, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), amountFormat(), thinBorder("top")))
	_ = xlsx.SetCellStyle(sheet, cell('B', budgetRow), cell('C', row), totalStyle)

	_ = xlsx.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func header(xlsx *excelize.File, sheet string, row int, titles ...string) {
	col := 'A'
	for _, t := range titles {
		_ = xlsx.SetCellValue(sheet, cell(col, row), t)
		col++
	}
	style, _ := xlsx.NewStyle(mergeStyles(defaultStyle(), fontBold(), thinBorder("bottom")))
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell(col-1, row), style)
}

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}

func defaultStyle() *excelize.Style {
	return &excelize.Style{
		// solid white
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFFFFF"},
			Pattern: 1,
		},
	}
}

func amountFormat() *excelize.Style {
	numFmt := "#,##0.00"
	return &excelize.Style{
		CustomNumFmt: &numFmt,
	}
}

func fontBold() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	}
}

func thinBorder(where ...string) *excelize.Style {
	s := &excelize.Style{}
	for _, w := range where {
		s.Border = append(s.Border, excelize.Border{
			Type:  w,
			Color: "#000000",
			Style: 1,
		})
	}
	return s
}

func mergeStyles(ext ...*excelize.Style) *excelize.Style {
	if len(ext) == 0 {
		return nil
	}
	for _, e := range ext[1:] {
		_ = mergo.Merge(ext[0], e, mergo.WithOverride)
	}
	return ext[0]
}
