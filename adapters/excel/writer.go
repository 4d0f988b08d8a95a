package excel

import (
	"fmt"

	"abkit/internal/report"

	"github.com/xuri/excelize/v2"
)

// ResultRow is one line of a results workbook. Summary is nil when the
// experiment could not be evaluated.
type ResultRow struct {
	Name    string
	Kind    string
	Summary *report.Summary
	Err     error
}

var resultHeaders = []interface{}{
	"name", "kind", "control", "treatment", "significant", "verdict", "relative_change",
	"confidence_level", "confidence_interval", "z_statistic", "p_value", "power", "error",
}

// WriteResults writes rows to Sheet1 of a new workbook at path.
func WriteResults(path string, rows []ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &resultHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cells := []interface{}{row.Name, row.Kind}
		if s := row.Summary; s != nil {
			cells = append(cells, s.Control, s.Treatment, s.Significant, s.Verdict, s.RelativeChange,
				s.ConfidenceLevel, s.ConfidenceInterval, s.ZStatistic, s.PValue, s.Power, "")
		} else {
			cells = append(cells, "", "", "", "", "", "", "", "", "", "", errString(row.Err))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
