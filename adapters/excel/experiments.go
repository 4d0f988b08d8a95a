package excel

import (
	"fmt"
	"strconv"

	"abkit/domain/core"
	"abkit/domain/experiment"
)

// ReadExperiments reads an xlsx or csv sheet of experiments. Missing alpha or
// beta cells fall back to defaults.
func ReadExperiments(path string, defaults experiment.TestParameters) ([]experiment.Experiment, error) {
	data, err := NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	return ParseExperiments(data, defaults)
}

// ParseExperiments converts sheet rows into experiments. Cells that are not
// numbers fail the whole sheet with the offending row number; value ranges
// are left to Experiment.Validate.
func ParseExperiments(data *ExcelData, defaults experiment.TestParameters) ([]experiment.Experiment, error) {
	exps := make([]experiment.Experiment, 0, len(data.Rows))
	for i, row := range data.Rows {
		exp, err := parseRow(row, defaults)
		if err != nil {
			// header is sheet row 1
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if exp.Name == "" {
			exp.Name = fmt.Sprintf("row %d", i+2)
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

func parseRow(row RawRowData, defaults experiment.TestParameters) (experiment.Experiment, error) {
	p := rowParser{row: row}

	params := defaults
	params.Alpha = p.float(ColAlpha, defaults.Alpha)
	params.Beta = p.float(ColBeta, defaults.Beta)

	kind, err := rowKind(row)
	if err != nil {
		return experiment.Experiment{}, err
	}

	name := row[ColName]
	switch kind {
	case experiment.KindMeans:
		in := experiment.MeanComparisonInput{
			Control: experiment.MeanSample{
				Mean:   p.required(ColControlMean),
				StdDev: p.required(ColControlStdDev),
				Size:   p.int(ColControlSize),
			},
			Treatment: experiment.MeanSample{
				Mean:   p.required(ColTreatmentMean),
				StdDev: p.required(ColTreatmentStdDev),
				Size:   p.int(ColTreatmentSize),
			},
		}
		if p.err != nil {
			return experiment.Experiment{}, p.err
		}
		return experiment.NewMeansExperiment(name, in, params), nil

	default:
		control, err := p.proportionSample(ColControlProportion, ColControlConversions, ColControlSize)
		if err != nil {
			return experiment.Experiment{}, err
		}
		treatment, err := p.proportionSample(ColTreatmentProportion, ColTreatmentConversion, ColTreatmentSize)
		if err != nil {
			return experiment.Experiment{}, err
		}
		in := experiment.ProportionComparisonInput{Control: control, Treatment: treatment}
		return experiment.NewProportionsExperiment(name, in, params), nil
	}
}

// rowKind uses the kind column, or infers it from which columns are filled.
func rowKind(row RawRowData) (experiment.Kind, error) {
	if k := row[ColKind]; k != "" {
		return experiment.ParseKind(k)
	}
	if row[ColControlMean] != "" || row[ColTreatmentMean] != "" {
		return experiment.KindMeans, nil
	}
	if row[ColControlProportion] != "" || row[ColControlConversions] != "" {
		return experiment.KindProportions, nil
	}
	return "", core.NewInvalidInputError(ColKind, "missing and cannot be inferred from the filled columns")
}

// rowParser keeps the first conversion error so callers can read several
// cells before checking.
type rowParser struct {
	row RawRowData
	err error
}

func (p *rowParser) float(col string, def float64) float64 {
	raw := p.row[col]
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && p.err == nil {
		p.err = core.NewInvalidInputError(col, fmt.Sprintf("is not a number: %q", raw))
	}
	return v
}

func (p *rowParser) required(col string) float64 {
	if p.row[col] == "" && p.err == nil {
		p.err = core.NewInvalidInputError(col, "is required")
		return 0
	}
	return p.float(col, 0)
}

func (p *rowParser) int(col string) int {
	raw := p.row[col]
	if raw == "" {
		if p.err == nil {
			p.err = core.NewInvalidInputError(col, "is required")
		}
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// spreadsheets often store integers as "1200.0"
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			if p.err == nil {
				p.err = core.NewInvalidInputError(col, fmt.Sprintf("is not an integer: %q", raw))
			}
			return 0
		}
		v = int(f)
	}
	return v
}

func (p *rowParser) proportionSample(propCol, convCol, sizeCol string) (experiment.ProportionSample, error) {
	size := p.int(sizeCol)
	if p.row[propCol] != "" {
		prop := p.float(propCol, 0)
		if p.err != nil {
			return experiment.ProportionSample{}, p.err
		}
		return experiment.ProportionSample{Proportion: prop, Size: size}, nil
	}
	if p.row[convCol] == "" {
		return experiment.ProportionSample{}, core.NewInvalidInputError(propCol, "or "+convCol+" is required")
	}
	conv := p.int(convCol)
	if p.err != nil {
		return experiment.ProportionSample{}, p.err
	}
	return experiment.ProportionSampleFromCounts(conv, size)
}
