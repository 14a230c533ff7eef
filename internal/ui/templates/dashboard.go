// Package templates renders the dashboard shell. KPI cards, chart frames and
// the preview table are patched in over SSE once a dataset is available.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const (
	Title    = "Insight Dashboard"
	Subtitle = "Upload a CSV or Excel file to get instant KPIs and charts"
)

func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<title>"+templ.EscapeString(Title)+"</title>"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, styles); err != nil {
			return err
		}
		_, err := io.WriteString(w, body)
		return err
	})
}

const head = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
`

const styles = `<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #1f2933; }
header { padding: 1.5rem 2rem; background: #1f2933; color: #fff; }
header p { margin: .25rem 0 0; opacity: .8; }
main { padding: 1.5rem 2rem; display: grid; gap: 1.5rem; }
.upload { display: flex; gap: 1rem; align-items: center; }
.kpi-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 1rem; }
.kpi-card { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.kpi-label { display: block; font-size: .85rem; color: #616e7c; }
.kpi-value { font-size: 1.6rem; }
.chart-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 1rem; }
.chart { background: #fff; border-radius: 8px; margin: 0; padding: 1rem; }
.chart canvas { width: 100%; height: 240px; }
.modern-table { width: 100%; border-collapse: collapse; background: #fff; }
.modern-table th, .modern-table td { padding: .5rem; border-bottom: 1px solid #e4e7eb; text-align: left; }
.empty { color: #9aa5b1; }
.error { color: #c81e1e; }
</style>
</head>
`

const body = `<body data-signals="{datasetId: '', fileName: '', rowCount: 0, charts: []}">
<header>
<h1>Insight Dashboard</h1>
<p>Upload a CSV or Excel file to get instant KPIs and charts</p>
</header>
<main data-init="@get('/sse/datasets/latest')">
<form class="upload" id="upload-form">
<input type="file" name="file" accept=".csv,.xlsx,.xls" required>
<button type="submit">Analyze</button>
<span data-text="$fileName ? $fileName + ' (' + $rowCount + ' rows)' : ''"></span>
<span class="error"></span>
</form>
<section>
<h2>Key Metrics</h2>
<div id="kpi-cards" class="kpi-grid"><p class="empty">No dataset loaded yet.</p></div>
</section>
<section>
<h2>Charts</h2>
<div id="charts" class="chart-grid"></div>
<div data-effect="window.drawCharts && window.drawCharts($charts)"></div>
</section>
<section>
<h2>Preview</h2>
<div id="preview"></div>
</section>
</main>
<script>
const palette = ['#3e4c59', '#2186eb', '#f0b429', '#3ebd93', '#ef4e4e', '#9446ed'];

window.drawCharts = function (charts) {
  requestAnimationFrame(() => (charts || []).forEach(drawChart));
};

function drawChart(chart) {
  const canvas = document.querySelector('canvas[data-chart-id="' + CSS.escape(chart.id) + '"]');
  if (!canvas) return;
  canvas.width = canvas.clientWidth;
  canvas.height = canvas.clientHeight;
  const ctx = canvas.getContext('2d');
  const series = chart.series || [];
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  if (series.length === 0) return;
  const max = Math.max(...series.map((p) => Math.abs(p.value))) || 1;
  if (chart.kind === 'pie') {
    const total = series.reduce((s, p) => s + Math.max(p.value, 0), 0) || 1;
    let angle = -Math.PI / 2;
    const r = Math.min(canvas.width, canvas.height) / 2 - 10;
    series.forEach((p, i) => {
      const slice = (Math.max(p.value, 0) / total) * Math.PI * 2;
      ctx.beginPath();
      ctx.moveTo(canvas.width / 2, canvas.height / 2);
      ctx.arc(canvas.width / 2, canvas.height / 2, r, angle, angle + slice);
      ctx.fillStyle = palette[i % palette.length];
      ctx.fill();
      angle += slice;
    });
    return;
  }
  const step = canvas.width / series.length;
  ctx.fillStyle = palette[1];
  ctx.strokeStyle = palette[1];
  ctx.beginPath();
  series.forEach((p, i) => {
    const h = (Math.abs(p.value) / max) * (canvas.height - 20);
    if (chart.kind === 'line') {
      const x = i * step + step / 2;
      i === 0 ? ctx.moveTo(x, canvas.height - h) : ctx.lineTo(x, canvas.height - h);
    } else {
      ctx.fillRect(i * step + 4, canvas.height - h, step - 8, h);
    }
  });
  if (chart.kind === 'line') ctx.stroke();
}

document.getElementById('upload-form').addEventListener('submit', async (event) => {
  event.preventDefault();
  const res = await fetch('/api/upload', { method: 'POST', body: new FormData(event.target) });
  const payload = await res.json();
  const status = document.querySelector('.upload .error');
  if (!payload.success) {
    status.textContent = payload.error.message;
    return;
  }
  status.textContent = '';
  const loader = document.createElement('div');
  loader.setAttribute('data-init', "@get('/sse/datasets/" + encodeURIComponent(payload.data.id) + "')");
  document.querySelector('main').appendChild(loader);
});
</script>
</body>
</html>
`
