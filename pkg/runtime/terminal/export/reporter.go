package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
)

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        32,
		ValueWidth:       16,
		UnitWidth:        10,
		DescriptionWidth: 44,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

const reportTemplate = `
{{.Title}}
Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}
{{range .Sections}}
=== {{.Title}} ===
{{range $key, $value := .Summary}}{{$key}}: {{$value}}
{{end}}{{if .Details}}
{{separator}}
{{formatRow "Name" "Value" "Unit" "Description"}}
{{separator}}
{{range .Details}}{{formatRow .Name .Value .Unit .Description}}
{{end}}{{separator}}
{{end}}{{end}}`

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}, unit string, desc string) string {
			return fmt.Sprintf("| %-*s | %-*v | %-*s | %-*s |",
				c.config.NameWidth, name,
				c.config.ValueWidth, value,
				c.config.UnitWidth, unit,
				c.config.DescriptionWidth, desc)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
	}

	t, err := template.New("report").Funcs(funcMap).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

// Experiment prints the A/B comparison. Insufficient data is reported on
// its own line and never as a non-significant result.
func (c *Reporter) Experiment(result domain.ExperimentResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "A/B evaluation (seed %d, alpha %g)\n", result.Seed, result.Alpha)
	for _, g := range []domain.GroupStats{result.GroupA, result.GroupB} {
		fmt.Fprintf(&b, "  group %s: %d/%d sessions converted (%.2f%%)\n", g.Group, g.Conversions, g.Total, g.Rate)
	}

	switch result.Outcome {
	case domain.OutcomeInsufficientData:
		b.WriteString("Result: insufficient data, one of the groups is empty\n")
	case domain.OutcomeSignificant:
		fmt.Fprintf(&b, "z = %.4f, p = %.4f\n", *result.ZStatistic, *result.PValue)
		b.WriteString("Result: statistically significant difference\n")
	default:
		fmt.Fprintf(&b, "z = %.4f, p = %.4f\n", *result.ZStatistic, *result.PValue)
		b.WriteString("Result: no significant difference\n")
	}

	_, err := io.WriteString(c.writer, b.String())
	return err
}

// Run prints a per-stage summary of a pipeline run.
func (c *Reporter) Run(report *domain.RunReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s %s in %s\n", report.ID, report.Status, report.Elapsed())
	for _, s := range report.Stages {
		fmt.Fprintf(&b, "  %-18s %-10s %s", s.Name, s.Status, s.Duration)
		if s.Error != nil {
			fmt.Fprintf(&b, "  error: %s", *s.Error)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(c.writer, b.String())
	return err
}

func (c *Reporter) Latency(rows []domain.StageLatency) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%-18s %6s %12s %12s %12s\n", "stage", "runs", "p50", "p95", "max")
	for _, l := range rows {
		fmt.Fprintf(&b, "%-18s %6d %12s %12s %12s\n", l.Stage, l.Runs, l.P50, l.P95, l.Max)
	}

	_, err := io.WriteString(c.writer, b.String())
	return err
}
