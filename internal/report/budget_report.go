package report

import (
	"fmt"
	"io"
	"strings"

	"go-schoolfeeding/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	SheetDistricts = "Districts"
	SheetSchools   = "Schools"
)

func districtName(d model.BudgetDistrict) string {
	if d.District != nil {
		return d.District.Name
	}
	return d.DistrictID.String()
}

func schoolName(s model.BudgetSchool) string {
	if s.School != nil {
		return s.School.Name
	}
	return s.SchoolID.String()
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// WriteBudgetAllocation renders the current allocation snapshot of gov as an
// xlsx workbook. gov.Districts must be loaded with District, Schools and
// Schools.School.
func WriteBudgetAllocation(w io.Writer, gov *model.BudgetGov) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDistricts); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSchools); err != nil {
		return err
	}

	// builtin format 4 is #,##0.00
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Fiscal year %s (version %d)", gov.FiscalYear, gov.Version)
	if err := setRow(f, SheetDistricts, 1, title, "", "", gov.Budget.InexactFloat64()); err != nil {
		return err
	}
	if err := setRow(f, SheetDistricts, 2, "District", "Students", "Status", "Budget"); err != nil {
		return err
	}
	if err := setRow(f, SheetSchools, 1, "District", "School", "Students", "Status", "Budget"); err != nil {
		return err
	}

	dRow, sRow := 3, 2
	for _, d := range gov.Districts {
		if err := setRow(f, SheetDistricts, dRow, districtName(d), d.StudentCount, string(d.BudgetStatus), d.Budget.InexactFloat64()); err != nil {
			return err
		}
		dRow++
		for _, s := range d.Schools {
			if err := setRow(f, SheetSchools, sRow, districtName(d), schoolName(s), s.StudentCount, string(s.BudgetStatus), s.Budget.InexactFloat64()); err != nil {
				return err
			}
			sRow++
		}
	}

	if err := f.SetCellStyle(SheetDistricts, "D1", fmt.Sprintf("D%d", dRow), money); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSchools, "E2", fmt.Sprintf("E%d", sRow), money); err != nil {
		return err
	}
	return f.Write(w)
}

// FileName is the download name of gov's allocation workbook.
func FileName(gov *model.BudgetGov) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '-'
		}
		return r
	}, gov.FiscalYear)
	return "budget-" + safe + ".xlsx"
}
