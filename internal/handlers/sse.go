package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"insight-dashboard/internal/analysis"
	"insight-dashboard/internal/errors"
	"insight-dashboard/internal/models"
	"insight-dashboard/internal/observability"
	"insight-dashboard/internal/services"
)

const maxPreviewRows = 5

var kpiCardsTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-cards" class="kpi-grid">
{{range .}}<div class="kpi-card" id="kpi-{{.ID}}">
<span class="kpi-label">{{.Label}}</span>
<strong class="kpi-value">{{.Value}}</strong>
{{with .Trend}}<span class="kpi-trend {{if .IsPositive}}up{{else}}down{{end}}">{{printf "%.1f" .Value}}%</span>{{end}}
</div>{{else}}<p class="empty">No metrics available.</p>{{end}}
</div>`))

var chartGridTemplate = template.Must(template.New("chartGrid").Parse(`
<div id="charts" class="chart-grid">
{{range .}}<figure class="chart chart-{{.Kind}}" id="chart-{{.ID}}">
<figcaption>{{.Title}}</figcaption>
<canvas data-chart-id="{{.ID}}" data-chart-kind="{{.Kind}}"></canvas>
</figure>{{else}}<p class="empty">No charts could be generated for this dataset.</p>{{end}}
</div>`))

var previewTableTemplate = template.Must(template.New("previewTable").Parse(`
<div id="preview">
<table class="modern-table">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type previewData struct {
	Headers []string
	Rows    [][]string
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

func renderPreview(headers []string, rows []models.Row) (string, error) {
	data := previewData{Headers: headers}
	for _, row := range rows[:min(len(rows), maxPreviewRows)] {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = analysis.Label(row[h])
		}
		data.Rows = append(data.Rows, cells)
	}
	return render(previewTableTemplate, data)
}

// datasetSignals is the client-side state the dashboard binds charts to.
type datasetSignals struct {
	DatasetID string                      `json:"datasetId"`
	FileName  string                      `json:"fileName"`
	RowCount  int                         `json:"rowCount"`
	Columns   models.ColumnClassification `json:"columns"`
	Charts    []models.ChartConfig        `json:"charts"`
}

func (h *SSEHandlers) HandleDataset(w http.ResponseWriter, r *http.Request) {
	session, err := h.analytics.Get(r.PathValue("id"))
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	h.stream(w, r, session)
}

func (h *SSEHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	session, err := h.analytics.Latest()
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}
	h.stream(w, r, session)
}

// stream patches the KPI cards, chart frames and preview table, then sends
// the chart series as signals for the client to draw.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, session *services.Session) {
	logger := observability.LoggerFrom(r.Context(), h.logger)

	result := session.Analysis

	fragments := make([]string, 0, 3)
	for _, part := range []struct {
		tmpl *template.Template
		data any
	}{
		{kpiCardsTemplate, result.KPIs},
		{chartGridTemplate, result.Charts},
	} {
		html, err := render(part.tmpl, part.data)
		if err != nil {
			logger.Error("render fragment", "template", part.tmpl.Name(), "error", err)
			errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render dashboard."), observability.GetRequestID(r.Context()))
			return
		}
		fragments = append(fragments, html)
	}

	if ds := session.Dataset(); ds != nil {
		html, err := renderPreview(ds.Headers, ds.Rows)
		if err != nil {
			logger.Error("render preview", "error", err)
		} else {
			fragments = append(fragments, html)
		}
	}

	signals, err := json.Marshal(datasetSignals{
		DatasetID: session.ID,
		FileName:  session.FileName,
		RowCount:  session.RowCount,
		Columns:   result.Columns,
		Charts:    result.Charts,
	})
	if err != nil {
		logger.Error("marshal dataset signals", "error", err)
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to encode dashboard state."), observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	for _, html := range fragments {
		if err := sse.PatchElements(html); err != nil {
			logger.Warn("patch elements", "error", err)
			return
		}
	}
	if err := sse.PatchSignals(signals); err != nil {
		logger.Warn("patch signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
