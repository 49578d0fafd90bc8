package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/signal-works/pulse/pkg/models/domain"
)

type TableConfig struct {
	RuleWidth   int
	StatusWidth int
	ScoreWidth  int
	DetailWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		RuleWidth:   20,
		StatusWidth: 8,
		ScoreWidth:  6,
		DetailWidth: 60,
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

func (c *Reporter) Handle(report *domain.ValidationReport) error {
	funcMap := template.FuncMap{
		"formatRow": func(rule string, status interface{}, score interface{}, detail string) string {
			return fmt.Sprintf("| %-*s | %-*v | %-*v | %-*s |",
				c.config.RuleWidth, rule,
				c.config.StatusWidth, status,
				c.config.ScoreWidth, score,
				c.config.DetailWidth, detail)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.RuleWidth+2),
				strings.Repeat("-", c.config.StatusWidth+2),
				strings.Repeat("-", c.config.ScoreWidth+2),
				strings.Repeat("-", c.config.DetailWidth+2))
		},
		"score": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
	}

	tmpl := `
Validation Run {{.RunID}}
Window: {{.StartedAt.Format "2006-01-02 15:04:05"}} to {{.FinishedAt.Format "2006-01-02 15:04:05"}}
Outcome: {{.Label}}
Index: {{score .Index.Score}} ({{.Index.Label}})
Triage: {{score .Triage.Score}} ({{.Triage.Label}})

{{range .Domains}}
=== {{.Domain}} ===
Score: {{score .Score}} ({{.Label}})
Rules: {{.Counts.Pass}} pass / {{.Counts.Warn}} warn / {{.Counts.Fail}} fail
{{if .Err}}Error: {{.Err}}
{{end}}{{if .Rules}}
{{separator}}
{{formatRow "Rule" "Status" "Score" "Title"}}
{{separator}}
{{range .Rules}}{{formatRow .RuleID .Status (score .Score) .Title}}
{{end}}{{separator}}
{{end}}{{end}}
{{if .Cross}}
=== Cross-domain findings ===

{{separator}}
{{formatRow "Finding" "Status" "Score" "Detail"}}
{{separator}}
{{range .Cross}}{{formatRow .RuleID .Status (score .Score) .Detail}}
{{end}}{{separator}}
{{end}}
=== Reality overlay ===
{{range $domain, $flag := .Reality.Flags}}
{{$domain}}: {{$flag.Flag}}{{if $flag.Message}} ({{$flag.Message}}){{end}}
{{end}}
{{if .Reality.Note}}Note: {{.Reality.Note}}
{{end}}
{{if .TopRisks}}
=== Top risks ===
{{range .TopRisks}}
- [{{.Severity}}] {{.RuleID}} {{.Domain}}: {{.Title}}
{{end}}{{end}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
