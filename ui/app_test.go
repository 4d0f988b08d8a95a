package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"abkit/adapters/memory"
	"abkit/domain/core"
	"abkit/domain/experiment"
	"abkit/internal"
	"abkit/internal/abtest"
	"abkit/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, repo *memory.ExperimentRepository) *App {
	t.Helper()
	app, err := NewApp(Config{Repo: repo, Logger: internal.NewLoggerTo(io.Discard, internal.LogLevelError)})
	require.NoError(t, err)
	return app
}

func saveEvaluated(t *testing.T, repo *memory.ExperimentRepository, exp experiment.Experiment) {
	t.Helper()
	eval, err := abtest.NewDefaultEngine().Evaluate(exp)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), &experiment.Record{Experiment: exp, Evaluation: eval}))
}

func get(app http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	repo := memory.NewExperimentRepository()
	saveEvaluated(t, repo, testkit.BasketSizeExperiment())
	saveEvaluated(t, repo, testkit.RetentionExperiment())

	rec := get(newApp(t, repo), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "basket size")
	assert.Contains(t, body, "day-7 retention")
	assert.Contains(t, body, "58.27%")
	assert.Contains(t, body, `class="significant"`)
	assert.NotContains(t, body, "next</a>")
}

func TestIndex_Empty(t *testing.T) {
	rec := get(newApp(t, memory.NewExperimentRepository()), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No experiments saved yet.")
}

func TestIndex_BadPage(t *testing.T) {
	rec := get(newApp(t, memory.NewExperimentRepository()), "/?page=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReport(t *testing.T) {
	repo := memory.NewExperimentRepository()
	exp := testkit.BasketSizeExperiment()
	saveEvaluated(t, repo, exp)
	app := newApp(t, repo)

	rec := get(app, "/"+exp.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h2")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "<td>-171.51</td>")
	assert.Contains(t, body, exp.Fingerprint().Short())

	rec = get(app, "/"+exp.ID.String()+"/markdown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "| z-statistic | -171.51 |")
}

func TestReport_NotFound(t *testing.T) {
	rec := get(newApp(t, memory.NewExperimentRepository()), "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport_RepositoryError(t *testing.T) {
	repo := new(testkit.MockExperimentRepository)
	repo.On("Get", mock.Anything, core.ExperimentID("x")).Return(nil, errors.New("connection reset"))
	app, err := NewApp(Config{Repo: repo, Logger: internal.NewLoggerTo(io.Discard, internal.LogLevelError)})
	require.NoError(t, err)

	rec := get(app, "/x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatic(t *testing.T) {
	rec := get(newApp(t, memory.NewExperimentRepository()), "/static/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "border-collapse")
}

func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	out := string(RenderMarkdown("## <script>alert(1)</script>title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<table>")
}

func TestNewApp_RequiresRepository(t *testing.T) {
	_, err := NewApp(Config{})
	assert.Error(t, err)
}
