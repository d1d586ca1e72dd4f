package report

import (
	"bytes"
	"testing"

	"go-schoolfeeding/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestWriteBudgetAllocation(t *testing.T) {
	gov := &model.BudgetGov{
		FiscalYear: "2025/2026",
		Budget:     decimal.NewFromInt(100000),
		Version:    2,
		Districts: []model.BudgetDistrict{
			{
				District:     &model.District{Name: "Gasabo"},
				StudentCount: 300,
				Budget:       decimal.NewFromInt(30000),
				BudgetStatus: model.BudgetOnTrack,
				Schools: []model.BudgetSchool{
					{School: &model.School{Name: "GS Kacyiru"}, StudentCount: 50, Budget: decimal.NewFromInt(5000), BudgetStatus: model.BudgetOnTrack},
					{School: &model.School{Name: "GS Remera"}, StudentCount: 250, Budget: decimal.NewFromInt(25000), BudgetStatus: model.BudgetOnTrack},
				},
			},
			{
				District:     &model.District{Name: "Huye"},
				StudentCount: 700,
				Budget:       decimal.NewFromInt(70000),
				BudgetStatus: model.BudgetOnTrack,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteBudgetAllocation(&buf, gov); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	districts, err := f.GetRows(SheetDistricts)
	if err != nil {
		t.Fatalf("districts sheet: %v", err)
	}
	if len(districts) != 4 {
		t.Fatalf("expected title, header and 2 rows, got %d", len(districts))
	}
	if districts[2][0] != "Gasabo" {
		t.Fatalf("unexpected district row %v", districts[2])
	}

	schools, err := f.GetRows(SheetSchools)
	if err != nil {
		t.Fatalf("schools sheet: %v", err)
	}
	if len(schools) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(schools))
	}
	if schools[1][1] != "GS Kacyiru" {
		t.Fatalf("unexpected school row %v", schools[1])
	}

	amounts := []struct {
		sheet, cell, want string
	}{
		{SheetDistricts, "D1", "100000"},
		{SheetDistricts, "D3", "30000"},
		{SheetDistricts, "D4", "70000"},
		{SheetSchools, "E2", "5000"},
		{SheetSchools, "E3", "25000"},
	}
	for _, a := range amounts {
		raw, err := f.GetCellValue(a.sheet, a.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("%s!%s: %v", a.sheet, a.cell, err)
		}
		if got, err := decimal.NewFromString(raw); err != nil || !got.Equal(decimal.RequireFromString(a.want)) {
			t.Fatalf("%s!%s: expected %s, got %q", a.sheet, a.cell, a.want, raw)
		}
		typ, err := f.GetCellType(a.sheet, a.cell)
		if err != nil {
			t.Fatalf("%s!%s type: %v", a.sheet, a.cell, err)
		}
		if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
			t.Fatalf("%s!%s must hold a number, not text", a.sheet, a.cell)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName(&model.BudgetGov{FiscalYear: "2025/2026"})
	if got != "budget-2025-2026.xlsx" {
		t.Fatalf("expected budget-2025-2026.xlsx, got %s", got)
	}
}
