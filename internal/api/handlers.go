package api

import (
	"net/http"
	"strconv"
	"time"

	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal/batch"
	apperrors "abkit/internal/errors"
	"abkit/internal/metrics"
	"abkit/internal/report"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) handleSampleSizeMeans(c *gin.Context) {
	var req SampleSizeMeansRequest
	if !s.bind(c, &req) {
		return
	}
	params := req.resolve(s.defaults)

	start := time.Now()
	res, err := s.engine.SampleSizeByMean(*req.Delta, *req.StdDev, params)
	metrics.Observe(metrics.OpSampleSizeMeans, start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SampleSizeResponse{
		Kind: experiment.KindMeans, Params: params, PerGroup: res.PerGroup, Total: res.Total(),
	})
}

func (s *Server) handleSampleSizeProportions(c *gin.Context) {
	var req SampleSizeProportionsRequest
	if !s.bind(c, &req) {
		return
	}
	params := req.resolve(s.defaults)

	start := time.Now()
	res, err := s.engine.SampleSizeByProportions(*req.P1, *req.P2, params)
	metrics.Observe(metrics.OpSampleSizeProportions, start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SampleSizeResponse{
		Kind: experiment.KindProportions, Params: params, PerGroup: res.PerGroup, Total: res.Total(),
	})
}

func (s *Server) handleCompareMeans(c *gin.Context) {
	var req CompareRequest
	if !s.bind(c, &req) {
		return
	}
	control, err := req.Control.MeanSample("control")
	if err != nil {
		s.respondError(c, err)
		return
	}
	treatment, err := req.Treatment.MeanSample("treatment")
	if err != nil {
		s.respondError(c, err)
		return
	}

	exp := experiment.NewMeansExperiment(req.Name,
		experiment.MeanComparisonInput{Control: control, Treatment: treatment},
		req.resolve(s.defaults))
	s.compare(c, exp, metrics.OpCompareMeans, req.Save)
}

func (s *Server) handleCompareProportions(c *gin.Context) {
	var req CompareRequest
	if !s.bind(c, &req) {
		return
	}
	control, err := req.Control.ProportionSample("control")
	if err != nil {
		s.respondError(c, err)
		return
	}
	treatment, err := req.Treatment.ProportionSample("treatment")
	if err != nil {
		s.respondError(c, err)
		return
	}

	exp := experiment.NewProportionsExperiment(req.Name,
		experiment.ProportionComparisonInput{Control: control, Treatment: treatment},
		req.resolve(s.defaults))
	s.compare(c, exp, metrics.OpCompareProportions, req.Save)
}

func (s *Server) compare(c *gin.Context, exp experiment.Experiment, op string, save bool) {
	start := time.Now()
	eval, err := s.engine.Evaluate(exp)
	metrics.Observe(op, start, err)
	if err != nil {
		s.respondError(c, err)
		return
	}

	record := experiment.Record{Experiment: exp, Evaluation: eval}
	resp := CompareResponse{
		Kind:         exp.Kind,
		Params:       exp.Params,
		Significance: eval.Significance,
		Interval:     eval.Interval,
		Power:        eval.Power,
		Summary:      report.SummarizeRecord(record),
	}

	if save {
		if err := s.repo.Save(c.Request.Context(), &record); err != nil {
			s.respondError(c, err)
			return
		}
		resp.ExperimentID = exp.ID.String()
		resp.Saved = true
		s.logger.Info("saved %s experiment %s (%q)", exp.Kind, exp.ID, exp.Name)
	}

	status := http.StatusOK
	if resp.Saved {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (s *Server) handleBatch(c *gin.Context) {
	var req BatchRequest
	if !s.bind(c, &req) {
		return
	}
	params := req.resolve(s.defaults)

	items := make([]BatchItem, len(req.Experiments))
	exps := make([]experiment.Experiment, 0, len(req.Experiments))
	slots := make([]int, 0, len(req.Experiments))
	for i, entry := range req.Experiments {
		items[i] = BatchItem{Index: i, Name: entry.Name}
		exp, err := entry.Experiment(params)
		if err != nil {
			items[i].Error = err.Error()
			items[i].Code = apperrors.GetCode(apperrors.FromDomain(err))
			continue
		}
		exps = append(exps, exp)
		slots = append(slots, i)
	}

	ev := s.evaluator
	if req.Save {
		ev = ev.WithStore(s.repo)
	}
	res, err := ev.Run(c.Request.Context(), exps)
	if err != nil && res == nil {
		s.respondError(c, err)
		return
	}

	for j, o := range res.Outcomes {
		items[slots[j]] = batchItem(slots[j], o)
	}

	resp := BatchResponse{DurationMS: res.Duration.Milliseconds(), Results: items}
	for _, it := range items {
		if it.Error == "" {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	c.JSON(http.StatusOK, resp)
}

func batchItem(index int, o batch.Outcome) BatchItem {
	item := BatchItem{
		Index:        index,
		Name:         o.Experiment.Name,
		ExperimentID: o.Experiment.ID.String(),
		Kind:         o.Experiment.Kind,
	}
	if o.Err != nil {
		item.Error = o.Err.Error()
		item.Code = apperrors.GetCode(apperrors.FromDomain(o.Err))
		return item
	}
	item.Evaluation = o.Evaluation
	summary := report.SummarizeRecord(experiment.Record{Experiment: o.Experiment, Evaluation: *o.Evaluation})
	item.Summary = &summary
	if o.SaveErr != nil {
		item.SaveError = o.SaveErr.Error()
	}
	return item
}

func (s *Server) handleListExperiments(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if limit < 1 || limit > maxListLimit {
		s.respondError(c, core.NewInvalidInputError("limit", "must be in [1, "+strconv.Itoa(maxListLimit)+"]"))
		return
	}
	if offset < 0 {
		s.respondError(c, core.NewInvalidInputError("offset", "must not be negative"))
		return
	}

	records, err := s.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	views := make([]ExperimentView, 0, len(records))
	for _, rec := range records {
		views = append(views, ExperimentView{Record: *rec, Summary: report.SummarizeRecord(*rec)})
	}
	c.JSON(http.StatusOK, gin.H{"experiments": views, "limit": limit, "offset": offset})
}

func (s *Server) handleGetExperiment(c *gin.Context) {
	id, err := core.ParseExperimentID(c.Param("id"))
	if err != nil {
		s.respondError(c, core.NewInvalidInputError("id", err.Error()))
		return
	}

	rec, err := s.repo.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExperimentView{Record: *rec, Summary: report.SummarizeRecord(*rec)})
}

// bind decodes the JSON body, answering 400 itself on failure.
func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: apperrors.CodeValidationError})
		return false
	}
	return true
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: apperrors.GetCode(apperrors.FromDomain(err))})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewInvalidInputError(key, "must be an integer")
	}
	return n, nil
}
