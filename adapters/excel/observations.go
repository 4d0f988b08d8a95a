package excel

import (
	"fmt"
	"strconv"
	"strings"

	"abkit/domain/core"
)

// ReadObservations reads one numeric column of raw per-user observations.
// An empty column selects the first header. Blank cells are skipped.
func ReadObservations(path, column string) ([]float64, error) {
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	return ParseObservations(data, column)
}

// ParseObservations extracts column from already-read sheet data.
func ParseObservations(data *ExcelData, column string) ([]float64, error) {
	column = strings.ToLower(strings.TrimSpace(column))
	if column == "" {
		if len(data.Headers) == 0 {
			return nil, core.NewInvalidInputError("observations", "sheet has no header row")
		}
		column = data.Headers[0]
	}

	found := false
	for _, h := range data.Headers {
		if h == column {
			found = true
			break
		}
	}
	if !found {
		return nil, core.NewInvalidInputError("observations", fmt.Sprintf("column %q not found", column))
	}

	values := make([]float64, 0, len(data.Rows))
	for i, row := range data.Rows {
		raw := row[column]
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// header is row 1
			return nil, core.NewInvalidInputError("observations", fmt.Sprintf("row %d: %q is not a number", i+2, raw))
		}
		values = append(values, v)
	}
	return values, nil
}
