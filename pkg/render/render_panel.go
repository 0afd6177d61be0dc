package render

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/model"
	"github.com/yumyai/genepanel/pkg/selection"
)

var panelPageTemplate *template.Template

// PanelPageData is everything the panel page shows.
type PanelPageData struct {
	State       controller.State
	ExtOptions  []model.FileExtension
	WrapOptions []model.WrapWidth
	// HeatmapURL changes with every new projection so browsers refetch.
	HeatmapURL string
	MaxGenes   int
}

func NewPanelPageData(state controller.State, heatmapVersion uint32) PanelPageData {
	return PanelPageData{
		State:       state,
		ExtOptions:  []model.FileExtension{model.FileExtensionFASTA, model.FileExtensionFA},
		WrapOptions: model.WrapWidths,
		HeatmapURL:  fmt.Sprintf("/heatmap.png?v=%d", heatmapVersion),
		MaxGenes:    selection.MaxGenes,
	}
}

func init() {
	panelMainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8">
		{{if .State.Loading}}<meta http-equiv="refresh" content="2">{{end}}
		<title>Gene Panel</title>
		<style>
			body { font-family: sans-serif; margin: 2rem; }
			.chip { display: inline-block; padding: 2px 8px; margin: 2px; border-radius: 12px; background: #e0e7ff; }
			.chip form { display: inline; }
			.chip button { border: none; background: none; cursor: pointer; }
			.error { color: #b91c1c; }
			.missing { color: #92400e; }
			table.data { border-collapse: collapse; margin-top: 1rem; }
			table.data td, table.data th { border: 1px solid #ccc; padding: 2px 6px; text-align: right; }
			table.data td:first-child, table.data th:first-child { text-align: left; }
		</style>
	</head>
	<body>
		<header class="app-header">
			<h1 class="app-name">Gene Panel</h1>
			<p class="app-description">Select up to {{.MaxGenes}} genes to download sequences, expression values or view a heatmap.</p>
		</header>
		{{template "selection" .}}
		{{template "actions" .}}
		{{template "messages" .}}
		{{template "heatmap" .}}
		<script>
		(function () {
			var form = document.getElementById("geneForm");
			var input = form ? form.querySelector("input[name=genes]") : null;
			var committed = false;
			// Set when the pointer goes down on an action; that action then
			// carries the typed text instead of the blur submitting it.
			var acting = false;
			function pending() {
				return input ? input.value.trim() : "";
			}
			function commit() {
				if (committed || pending() === "") { return; }
				committed = true;
				form.submit();
			}
			function carry() {
				document.querySelectorAll("input.pending").forEach(function (h) { h.value = pending(); });
			}
			document.querySelectorAll("[data-carry]").forEach(function (el) {
				el.addEventListener("mousedown", function () { acting = true; });
			});
			document.querySelectorAll("a[data-carry]").forEach(function (a) {
				a.addEventListener("click", function () {
					var base = a.getAttribute("href").split("?")[0];
					a.setAttribute("href", pending() === "" ? base : base + "?genes=" + encodeURIComponent(pending()));
				});
			});
			document.querySelectorAll("select.autosubmit").forEach(function (sel) {
				sel.addEventListener("change", function () { carry(); sel.form.submit(); });
			});
			if (input) {
				input.addEventListener("keydown", function (e) {
					if (e.key === "Enter" || e.key === ",") { e.preventDefault(); commit(); }
				});
				input.addEventListener("blur", function () {
					if (!acting) { commit(); }
				});
			}
			var heatmapForm = document.getElementById("heatmapForm");
			if (heatmapForm) {
				heatmapForm.addEventListener("submit", function () {
					carry();
					var btn = heatmapForm.querySelector("button");
					btn.disabled = true;
					btn.textContent = "Loading…";
				});
			}
		})();
		</script>
	</body>
	</html>`

	selectionTmpl := `
	{{define "selection"}}
	<section class="selection">
		<div class="chips">
		{{range $i, $gene := .State.Selection}}
			<span class="chip">{{$gene}}
				<form method="POST" action="/genes/{{$i}}/remove"><button type="submit" title="Remove {{$gene}}">×</button></form>
			</span>
		{{end}}
		</div>
		{{if .State.CanAdd}}
		<form id="geneForm" method="POST" action="/genes">
			<input type="text" name="genes" autofocus autocomplete="off"
				placeholder="{{if .State.Selection}}Add more genes{{else}}Type genes separated by comma or space{{end}}">
		</form>
		{{end}}
		<p class="remaining">Remaining: {{.State.Remaining}}</p>
	</section>
	{{end}}`

	actionsTmpl := `
	{{define "actions"}}
	<section class="actions">
		<form id="optionsForm" method="POST" action="/options">
			<input type="hidden" name="genes" class="pending">
			<label>Extension
			<select name="ext" class="autosubmit" data-carry>
			{{range .ExtOptions}}
				<option value="{{.}}" {{if eq . $.State.Options.Ext}}selected{{end}}>.{{.}}</option>
			{{end}}
			</select>
			</label>
			<label>Wrap
			<select name="wrap" class="autosubmit" data-carry>
			{{range .WrapOptions}}
				<option value="{{wrapValue .}}" {{if eq . $.State.Options.Wrap}}selected{{end}}>{{wrapLabel .}}</option>
			{{end}}
			</select>
			</label>
			<noscript><button type="submit">Apply</button></noscript>
		</form>
		{{if .State.CanDownload}}
		<a class="button" href="/download/fasta" data-carry>Download FASTA</a>
		<a class="button" href="/download/tsv" data-carry>Download TSV</a>
		{{else}}
		<button type="button" disabled>Download FASTA</button>
		<button type="button" disabled>Download TSV</button>
		{{end}}
		<form id="heatmapForm" method="POST" action="/heatmap" style="display:inline">
			<input type="hidden" name="genes" class="pending">
			<button type="submit" data-carry {{if not .State.CanViewHeatmap}}disabled{{end}}>{{if .State.Loading}}Loading…{{else}}View Heatmap{{end}}</button>
		</form>
	</section>
	{{end}}`

	messagesTmpl := `
	{{define "messages"}}
	{{if .State.Error}}<div class="error" role="alert">{{.State.Error}}</div>{{end}}
	{{if .State.NotFound}}<div class="missing">Missing genes: {{join .State.NotFound ", "}}</div>{{end}}
	{{end}}`

	heatmapTmpl := `
	{{define "heatmap"}}
	{{with .State.Projection}}
	<section class="heatmap">
		{{if .Rows}}
		<img src="{{$.HeatmapURL}}" alt="Expression Heatmap">
		<table class="data">
			<thead>
				<tr><th>Gene</th>{{range .XLabels}}<th>{{.}}</th>{{end}}</tr>
			</thead>
			<tbody>
			{{range .Rows}}
				<tr><td>{{.Gene}}</td>{{range .Values}}<td>{{formatValue .}}</td>{{end}}</tr>
			{{end}}
			</tbody>
		</table>
		{{else}}
		<p>No expression data for the selected genes.</p>
		{{end}}
	</section>
	{{end}}
	{{end}}`

	funcMap := template.FuncMap{
		"join": strings.Join,
		"formatValue": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"wrapValue": func(w model.WrapWidth) int {
			return int(w)
		},
		"wrapLabel": func(w model.WrapWidth) string {
			if w == model.WrapNone {
				return "No wrap"
			}
			return strconv.Itoa(int(w))
		},
	}

	panelPageTemplate = template.New("panel").Funcs(funcMap)
	panelPageTemplate = template.Must(panelPageTemplate.Parse(panelMainTmpl))
	panelPageTemplate = template.Must(panelPageTemplate.Parse(selectionTmpl))
	panelPageTemplate = template.Must(panelPageTemplate.Parse(actionsTmpl))
	panelPageTemplate = template.Must(panelPageTemplate.Parse(messagesTmpl))
	panelPageTemplate = template.Must(panelPageTemplate.Parse(heatmapTmpl))
}

func RenderPanelPage(w io.Writer, data PanelPageData) error {
	return panelPageTemplate.Execute(w, data)
}
