package excel

// RawRowData represents a row of raw sheet data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents a sheet read from xlsx or csv
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Column names recognised in experiment sheets. Headers are matched
// case-insensitively after trimming.
const (
	ColName                = "name"
	ColKind                = "kind"
	ColAlpha               = "alpha"
	ColBeta                = "beta"
	ColControlMean         = "control_mean"
	ColControlStdDev       = "control_stddev"
	ColControlSize         = "control_size"
	ColControlProportion   = "control_proportion"
	ColControlConversions  = "control_conversions"
	ColTreatmentMean       = "treatment_mean"
	ColTreatmentStdDev     = "treatment_stddev"
	ColTreatmentSize       = "treatment_size"
	ColTreatmentProportion = "treatment_proportion"
	ColTreatmentConversion = "treatment_conversions"
)
