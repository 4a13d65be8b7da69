package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"digital.vasic.harness/pkg/display"
)

// HTMLReporter generates standalone HTML pages of runs.
type HTMLReporter struct {
	footer string
}

// NewHTMLReporter creates a new HTML reporter.
func NewHTMLReporter() *HTMLReporter {
	return &HTMLReporter{footer: "Generated by harness"}
}

// GenerateReport creates an HTML report for a single run.
func (r *HTMLReporter) GenerateReport(run *Run) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteReport(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport writes an HTML report to the specified writer.
func (r *HTMLReporter) WriteReport(w io.Writer, run *Run) error {
	if run == nil || run.Payload == nil {
		return fmt.Errorf("write html report: %w", ErrNoPayload)
	}
	p := run.Payload

	r.writeHeader(w, "Run Report: "+p.Test)

	fmt.Fprintf(
		w,
		"<h1>%s</h1>\n",
		EscapeHTML(p.Test),
	)
	r.writeMetaTable(w, run)
	r.writeBigResult(w, p.Pass)
	r.writeCases(w, run)
	r.writeResult(w, run)
	r.writeLog(w, p.Log)

	r.writeFooter(w)
	return nil
}

func (r *HTMLReporter) writeMetaTable(w io.Writer, run *Run) {
	fmt.Fprintln(w, "<h2>Run</h2>")
	fmt.Fprintln(w, "<table id=\"meta\">")
	fmt.Fprintln(w, "<tr><th>Key</th><th>Value</th></tr>")

	if len(run.Meta) == 0 {
		p := run.Payload
		pass, fail := run.Counts()
		rows := [][2]string{
			{"name", p.Test},
			{"runId", p.RunID},
			{"startedAt", p.StartedAt},
			{"endedAt", p.EndedAt},
			{"actions", fmt.Sprint(len(run.Rows))},
			{"pass", fmt.Sprint(pass)},
			{"fail", fmt.Sprint(fail)},
		}
		for _, kv := range rows {
			r.writeMetaRow(w, kv[0], kv[1])
		}
	}
	for _, m := range run.Meta {
		r.writeMetaRow(w, m.Key, fmt.Sprint(m.Value))
	}

	fmt.Fprintln(w, "</table>")
}

func (r *HTMLReporter) writeMetaRow(w io.Writer, k, v string) {
	fmt.Fprintf(
		w,
		"<tr><td>%s</td><td data-k=\"%s\">%s</td></tr>\n",
		EscapeHTML(k), EscapeHTML(k), EscapeHTML(v),
	)
}

func (r *HTMLReporter) writeBigResult(w io.Writer, pass bool) {
	cls := "ok"
	if !pass {
		cls = "fail"
	}
	fmt.Fprintf(
		w,
		"<div id=\"bigResult\" class=\"big-result %s\">%s</div>\n",
		cls, display.Label(pass),
	)
}

func (r *HTMLReporter) writeCases(w io.Writer, run *Run) {
	fmt.Fprintln(w, "<h2>Cases</h2>")
	fmt.Fprintln(w, "<div id=\"cases\">")

	for _, row := range run.Rows {
		cls := "fail"
		if row.Pass {
			cls = "ok"
		}
		fmt.Fprintf(
			w,
			"<div class=\"row\"><div><span class=\"name\">%s</span>"+
				"<div class=\"exp\">exp: %s</div></div>"+
				"<div class=\"badge %s\">%s</div></div>\n",
			EscapeHTML(row.Name), row.Expected, cls, row.Badge,
		)
	}

	fmt.Fprintln(w, "</div>")

	pass, _ := run.Counts()
	if total := len(run.Rows); total > 0 {
		pct := float64(pass) / float64(total) * 100
		fmt.Fprintf(
			w,
			"<p><strong>Pass Rate:</strong> %d/%d (%.0f%%)</p>\n",
			pass, total, pct,
		)
	}
}

func (r *HTMLReporter) writeResult(w io.Writer, run *Run) {
	switch {
	case run.Code != nil && len(run.Code.PNG) > 0:
		fmt.Fprintln(w, "<h2>Result Code</h2>")
		fmt.Fprintf(
			w,
			"<div id=\"qrBox\"><img alt=\"result code\" "+
				"width=\"%d\" height=\"%d\" "+
				"src=\"data:image/png;base64,%s\"></div>\n",
			run.Code.Side, run.Code.Side,
			base64.StdEncoding.EncodeToString(run.Code.PNG),
		)
	case run.Box != nil:
		fmt.Fprintln(w, "<h2>Result</h2>")
		fmt.Fprintf(
			w,
			"<div id=\"qrBox\" style=\"width:%dpx;height:%dpx;"+
				"background:%s;color:#fff;font-size:%dpx;"+
				"display:flex;align-items:center;"+
				"justify-content:center\">%s</div>\n",
			run.Box.Side, run.Box.Side, run.Box.Color,
			run.Box.FontSize, run.Box.Label,
		)
	}
}

func (r *HTMLReporter) writeLog(w io.Writer, lines []string) {
	fmt.Fprintln(w, "<h2>Log</h2>")
	fmt.Fprint(w, "<pre id=\"log\">")
	for _, line := range lines {
		fmt.Fprintln(w, EscapeHTML(line))
	}
	fmt.Fprintln(w, "</pre>")
}

func (r *HTMLReporter) writeHeader(w io.Writer, title string) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
body {
  font-family: -apple-system, BlinkMacSystemFont,
    "Segoe UI", Roboto, sans-serif;
  max-width: 960px;
  margin: 0 auto;
  padding: 20px;
  color: #333;
  background: #f9f9f9;
}
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2c3e50; margin-top: 30px; }
table {
  border-collapse: collapse;
  width: 100%%;
  margin: 10px 0;
  background: #fff;
}
th, td {
  border: 1px solid #ddd;
  padding: 8px 12px;
  text-align: left;
}
th { background: #3498db; color: #fff; }
.big-result { font-size: 48px; font-weight: bold; margin: 20px 0; }
.ok { color: #1f9d55; }
.fail { color: #d64545; }
.row {
  display: flex;
  justify-content: space-between;
  padding: 6px 0;
  border-bottom: 1px solid #eee;
}
.exp { color: #7f8c8d; font-family: monospace; }
.badge { font-weight: bold; }
pre {
  background: #ecf0f1;
  padding: 10px;
  font-size: 0.85em;
  overflow-x: auto;
}
footer {
  margin-top: 40px;
  padding-top: 10px;
  border-top: 1px solid #ddd;
  color: #7f8c8d;
  font-size: 0.9em;
}
</style>
</head>
<body>
`, EscapeHTML(title))
}

func (r *HTMLReporter) writeFooter(w io.Writer) {
	fmt.Fprintln(w, "<footer>")
	fmt.Fprintf(w, "<p>%s</p>\n", EscapeHTML(r.footer))
	fmt.Fprintln(w, "</footer>")
	fmt.Fprintln(w, "</body>")
	fmt.Fprintln(w, "</html>")
}
