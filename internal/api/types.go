package api

import (
	"abkit/adapters/manifest"
	"abkit/domain/experiment"
	"abkit/internal/report"
)

// ParamsInput overrides the server's default alpha and beta.
type ParamsInput struct {
	Alpha *float64 `json:"alpha,omitempty"`
	Beta  *float64 `json:"beta,omitempty"`
}

func (p ParamsInput) resolve(defaults experiment.TestParameters) experiment.TestParameters {
	params := defaults
	if p.Alpha != nil {
		params.Alpha = *p.Alpha
	}
	if p.Beta != nil {
		params.Beta = *p.Beta
	}
	return params
}

// SampleSizeMeansRequest asks for the per-group size to detect Delta.
type SampleSizeMeansRequest struct {
	ParamsInput
	Delta  *float64 `json:"delta" binding:"required"`
	StdDev *float64 `json:"stddev" binding:"required"`
}

// SampleSizeProportionsRequest asks for the per-group size to tell P1 from P2.
type SampleSizeProportionsRequest struct {
	ParamsInput
	P1 *float64 `json:"p1" binding:"required"`
	P2 *float64 `json:"p2" binding:"required"`
}

// SampleSizeResponse echoes the parameters used.
type SampleSizeResponse struct {
	Kind     experiment.Kind           `json:"kind"`
	Params   experiment.TestParameters `json:"params"`
	PerGroup int                       `json:"per_group"`
	Total    int                       `json:"total"`
}

// CompareRequest carries two groups in the manifest group shape. Save
// persists the evaluated experiment.
type CompareRequest struct {
	ParamsInput
	Name      string         `json:"name"`
	Control   manifest.Group `json:"control"`
	Treatment manifest.Group `json:"treatment"`
	Save      bool           `json:"save"`
}

// CompareResponse is an evaluation plus its display summary.
type CompareResponse struct {
	ExperimentID string                        `json:"experiment_id,omitempty"`
	Kind         experiment.Kind               `json:"kind"`
	Params       experiment.TestParameters     `json:"params"`
	Significance experiment.SignificanceResult `json:"significance"`
	Interval     experiment.ConfidenceInterval `json:"confidence_interval"`
	Power        experiment.PowerResult        `json:"power"`
	Summary      report.Summary                `json:"summary"`
	Saved        bool                          `json:"saved"`
}

// BatchRequest evaluates many experiments at once.
type BatchRequest struct {
	ParamsInput
	Experiments []manifest.Entry `json:"experiments" binding:"required,min=1,max=1000"`
	Save        bool             `json:"save"`
}

// BatchItem is one outcome; Error is set instead of the results when the
// experiment could not be evaluated.
type BatchItem struct {
	Index        int                    `json:"index"`
	Name         string                 `json:"name"`
	ExperimentID string                 `json:"experiment_id,omitempty"`
	Kind         experiment.Kind        `json:"kind,omitempty"`
	Evaluation   *experiment.Evaluation `json:"evaluation,omitempty"`
	Summary      *report.Summary        `json:"summary,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Code         string                 `json:"code,omitempty"`
	SaveError    string                 `json:"save_error,omitempty"`
}

// BatchResponse lists outcomes in request order.
type BatchResponse struct {
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	DurationMS int64       `json:"duration_ms"`
	Results    []BatchItem `json:"results"`
}

// ExperimentView is a stored record with its summary.
type ExperimentView struct {
	experiment.Record
	Summary report.Summary `json:"summary"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
