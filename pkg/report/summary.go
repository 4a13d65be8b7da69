package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"digital.vasic.harness/pkg/display"
)

// Markdown renders a run as a Markdown document for terminals
// and CI logs.
func Markdown(run *Run) string {
	var sb strings.Builder
	p := run.Payload

	sb.WriteString(fmt.Sprintf("# %s\n\n", p.Test))
	sb.WriteString(fmt.Sprintf("**Run ID:** %s\n\n", p.RunID))
	sb.WriteString(
		fmt.Sprintf(
			"**Started:** %s  \n**Ended:** %s\n\n",
			p.StartedAt, p.EndedAt,
		),
	)
	sb.WriteString(
		fmt.Sprintf("**Result:** %s\n\n", display.Label(p.Pass)),
	)

	sb.WriteString("## Cases\n\n")
	sb.WriteString("| Case | Expected | Result |\n")
	sb.WriteString("|------|----------|--------|\n")
	for _, row := range run.Rows {
		sb.WriteString(
			fmt.Sprintf(
				"| %s | `%s` | %s |\n",
				escapeCell(row.Name),
				escapeCell(html.UnescapeString(row.Expected)),
				row.Badge,
			),
		)
	}

	pass, fail := run.Counts()
	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Actions | %d |\n", len(run.Rows)))
	sb.WriteString(fmt.Sprintf("| Passed | %d |\n", pass))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", fail))

	if errs := failures(run); len(errs) > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, e := range errs {
			sb.WriteString("- " + e + "\n")
		}
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func failures(run *Run) []string {
	var out []string
	for _, s := range run.Payload.Summary {
		if s.Pass {
			continue
		}
		if s.Error != nil {
			out = append(out, fmt.Sprintf("%s: %v", s.Name, s.Error))
			continue
		}
		actual, err := jsonMarshal(s.Actual)
		if err != nil {
			actual = []byte(fmt.Sprint(s.Actual))
		}
		out = append(
			out, fmt.Sprintf("%s: got %s", s.Name, actual),
		)
	}
	return out
}

// SaveRun writes JSON, Markdown and HTML reports of run into
// outputDir, named after the run id, and returns the written
// paths in that order.
func SaveRun(run *Run, outputDir string) ([]string, error) {
	if run == nil || run.Payload == nil {
		return nil, fmt.Errorf("save run: %w", ErrNoPayload)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	base := filepath.Join(outputDir, "run_"+run.Payload.RunID)

	jsonData, err := NewJSONReporter(true).GenerateReport(run)
	if err != nil {
		return nil, err
	}
	htmlData, err := NewHTMLReporter().GenerateReport(run)
	if err != nil {
		return nil, err
	}

	files := []struct {
		path string
		data []byte
	}{
		{base + ".json", jsonData},
		{base + ".md", []byte(Markdown(run))},
		{base + ".html", htmlData},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0644); err != nil {
			return nil, fmt.Errorf(
				"failed to write %s: %w", filepath.Base(f.path), err,
			)
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}
