package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// Default alert templates. The subject always carries the violation count.
const (
	DefaultSubject = `[ALERT] {{.Count}} issue(s) detected`
	DefaultBody    = `The following resource alerts were triggered on {{.Hostname}}:

{{range .Violations}}- {{.}}
{{end}}
Please check Cockpit or SSH immediately.
`
)

// TemplateData holds everything available to alert templates.
type TemplateData struct {
	Hostname   string
	Violations []string
	Count      int
	Time       time.Time
}

// BuildTemplateData constructs template data for one evaluation pass.
func BuildTemplateData(hostname string, violations []string, now time.Time) TemplateData {
	return TemplateData{
		Hostname:   hostname,
		Violations: violations,
		Count:      len(violations),
		Time:       now,
	}
}

// Render executes a Go text/template string with Sprig functions.
func Render(tmplStr string, data TemplateData) (string, error) {
	t, err := template.New("alert").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
