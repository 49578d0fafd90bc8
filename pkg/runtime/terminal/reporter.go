package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// Reporter outputs a compact run summary to the console, one line per domain
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.ValidationReport) error {
	tmpl := `
{{.Label}}
Run: {{.RunID}}
Index: {{printf "%.2f" .Index.Score}} ({{.Index.Label}})
Triage: {{printf "%.2f" .Triage.Score}} ({{.Triage.Label}})

{{range .Domains}}
{{.Domain}}: {{printf "%.2f" .Score}} ({{.Label}}) pass={{.Counts.Pass}} warn={{.Counts.Warn}} fail={{.Counts.Fail}}{{if .Err}} error={{.Err}}{{end}}
{{end}}
{{range $domain, $flag := .Reality.Flags}}
reality {{$domain}}: {{$flag.Flag}}
{{end}}
`
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
