package ui

import (
	"html/template"
	"net/http"

	"abkit/domain/core"
	"abkit/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

type listRow struct {
	ID        string
	CreatedAt string
	Summary   report.Summary
}

type indexPage struct {
	Rows    []listRow
	Page    int
	HasPrev bool
	HasNext bool
}

type reportPage struct {
	ID          string
	Title       string
	Fingerprint string
	CreatedAt   string
	EvaluatedAt string
	Body        template.HTML
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	// one extra row tells whether a next page exists
	records, err := a.repo.List(r.Context(), pageSize+1, (page-1)*pageSize)
	if err != nil {
		a.fail(w, err)
		return
	}

	data := indexPage{Page: page, HasPrev: page > 1}
	if len(records) > pageSize {
		data.HasNext = true
		records = records[:pageSize]
	}
	for _, rec := range records {
		data.Rows = append(data.Rows, listRow{
			ID:        rec.Experiment.ID.String(),
			CreatedAt: rec.Experiment.CreatedAt.String(),
			Summary:   report.SummarizeRecord(*rec),
		})
	}
	a.render(w, "index.html", data)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, core.NewInvalidInputError("id", err.Error()))
		return
	}
	rec, err := a.repo.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	summary := report.SummarizeRecord(*rec)
	title := summary.Name
	if title == "" {
		title = id.String()
	}
	a.render(w, "report.html", reportPage{
		ID:          id.String(),
		Title:       title,
		Fingerprint: rec.Evaluation.Fingerprint.Short(),
		CreatedAt:   rec.Experiment.CreatedAt.String(),
		EvaluatedAt: rec.Evaluation.EvaluatedAt.String(),
		Body:        RenderMarkdown(summary.Markdown()),
	})
}

func (a *App) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, core.NewInvalidInputError("id", err.Error()))
		return
	}
	rec, err := a.repo.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(report.SummarizeRecord(*rec).Markdown()))
}

// RenderMarkdown converts markdown to HTML. Raw HTML in the input is dropped.
func RenderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}
