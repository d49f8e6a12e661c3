package notify

import (
	"fmt"
	"strings"
)

// Report is the aggregated alert for one run.
type Report struct {
	Subject string
	Body    string
}

// Templates overrides the default subject and body templates. Empty fields
// use the defaults.
type Templates struct {
	Subject string
	Body    string
}

// BuildReport renders the alert for data. It returns ok=false without
// rendering anything when there are no violations.
func BuildReport(data TemplateData, tmpl Templates) (Report, bool, error) {
	if len(data.Violations) == 0 {
		return Report{}, false, nil
	}

	subjectTmpl := DefaultSubject
	if tmpl.Subject != "" {
		subjectTmpl = tmpl.Subject
	}
	bodyTmpl := DefaultBody
	if tmpl.Body != "" {
		bodyTmpl = tmpl.Body
	}

	subject, err := Render(subjectTmpl, data)
	if err != nil {
		return Report{}, false, fmt.Errorf("rendering subject: %w", err)
	}
	body, err := Render(bodyTmpl, data)
	if err != nil {
		return Report{}, false, fmt.Errorf("rendering body: %w", err)
	}

	// Mail headers must stay on one line.
	subject = strings.Join(strings.Fields(subject), " ")

	return Report{Subject: subject, Body: body}, true, nil
}
