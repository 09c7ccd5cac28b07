package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

func TestExpensesXLSX(t *testing.T) {
	doc := core.NewDocument()
	doc.Budget = decimal.RequireFromString("100")
	coffee := doc.Append("coffee", decimal.RequireFromString("3.5"))
	doc.Append("books", decimal.RequireFromString("20"))

	data, err := ExpensesXLSX(core.Summarize(doc))
	if err != nil {
		t.Fatalf("ExpensesXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}
	checks := map[string]string{
		"A1": "#",
		"B2": "coffee",
		"C2": "3.5",
		"D2": coffee.ID.String(),
		"A3": "1",
		"B3": "books",
		"B5": "Budget",
		"C5": "100",
		"B6": "Total spent",
		"B7": "Remaining",
	}
	for ref, want := range checks {
		got, err := f.GetCellValue(SheetName, ref, raw)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", ref, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}

	if formula, _ := f.GetCellFormula(SheetName, "C6"); formula != "SUM(C2:C3)" {
		t.Errorf("total formula = %q", formula)
	}
	if formula, _ := f.GetCellFormula(SheetName, "C7"); formula != "C5-C6" {
		t.Errorf("remaining formula = %q", formula)
	}
	if v, err := f.CalcCellValue(SheetName, "C7", raw); err != nil || v != "76.5" {
		t.Errorf("remaining = %q, %v; want 76.5", v, err)
	}
}

func TestExpensesXLSXEmpty(t *testing.T) {
	data, err := ExpensesXLSX(core.Summarize(core.NewDocument()))
	if err != nil {
		t.Fatalf("ExpensesXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue(SheetName, "B3"); v != "Budget" {
		t.Errorf("B3 = %q, want Budget", v)
	}
	if v, _ := f.GetCellValue(SheetName, "C4", excelize.Options{RawCellValue: true}); v != "0" {
		t.Errorf("total spent = %q, want 0", v)
	}
}
