package notification

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Rendered is a notice after its templates have been executed.
type Rendered struct {
	Subject string
	Text    string
	Html    string
}

// Render executes every non-empty template of t against data.
func Render(t NoticeTemplate, data map[string]string) (Rendered, error) {
	var r Rendered
	var err error

	if r.Subject, err = renderText("subject", t.Subject, data); err != nil {
		return Rendered{}, err
	}
	if r.Text, err = renderText("text", t.Text, data); err != nil {
		return Rendered{}, err
	}
	if t.Html != "" {
		tmpl, err := htmltemplate.New("html").Option("missingkey=error").Parse(t.Html)
		if err != nil {
			return Rendered{}, err
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return Rendered{}, err
		}
		r.Html = buf.String()
	}
	return r, nil
}

func renderText(name, text string, data map[string]string) (string, error) {
	if text == "" {
		return "", nil
	}
	tmpl, err := texttemplate.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
