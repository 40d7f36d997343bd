package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

const ownerTextTemplate = `New walkthrough lead
{{- if .UserEmail}} from {{.UserEmail}}{{end}}

Summary:
{{.Summary}}

Details:
{{range .Fields}}- {{.Label}}: {{.Value}}
{{end}}
Recommended services:
{{range .Services}}- {{.}}
{{end}}
Suggested next step: {{.NextStep}}

Answers:
{{range $i, $a := .Answers}}{{inc $i}}. {{if $a.Question}}{{$a.Question}}{{else}}(no question){{end}}
   {{$a.Answer}}
{{end}}`

const ownerHTMLTemplate = `<h2>New walkthrough lead{{if .UserEmail}} from {{.UserEmail}}{{end}}</h2>
<p>{{.Summary}}</p>
<table cellpadding="4">
{{range .Fields}}<tr><th align="left">{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
<h3>Recommended services</h3>
<ul>{{range .Services}}<li>{{.}}</li>{{end}}</ul>
<p><strong>Suggested next step:</strong> {{.NextStep}}</p>
<h3>Answers</h3>
<ol>{{range .Answers}}<li><em>{{if .Question}}{{.Question}}{{else}}(no question){{end}}</em><br>{{.Answer}}</li>{{end}}</ol>`

const userTextTemplate = `Thanks for completing the Leadbridge walkthrough.

{{.Summary}}

Where AI could help first:
{{range .Services}}- {{.}}
{{end}}
Next step: {{.NextStep}}

Reply to this email or book an intro call on our site whenever you're ready.`

const userHTMLTemplate = `<p>Thanks for completing the Leadbridge walkthrough.</p>
<p>{{.Summary}}</p>
<h3>Where AI could help first</h3>
<ul>{{range .Services}}<li>{{.}}</li>{{end}}</ul>
<p><strong>Next step:</strong> {{.NextStep}}</p>
<p>Reply to this email or book an intro call on our site whenever you're ready.</p>`

var textFuncs = template.FuncMap{"inc": func(i int) int { return i + 1 }}

var (
	ownerText = template.Must(template.New("owner.txt").Funcs(textFuncs).Option("missingkey=error").Parse(ownerTextTemplate))
	ownerHTML = htmltemplate.Must(htmltemplate.New("owner.html").Option("missingkey=error").Parse(ownerHTMLTemplate))
	userText  = template.Must(template.New("user.txt").Option("missingkey=error").Parse(userTextTemplate))
	userHTML  = htmltemplate.Must(htmltemplate.New("user.html").Option("missingkey=error").Parse(userHTMLTemplate))
)

// render executes the text and HTML variants of one email.
func render(text *template.Template, html *htmltemplate.Template, data any) (string, string, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("notify: render %s: %w", text.Name(), err)
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("notify: render %s: %w", html.Name(), err)
	}
	return textBuf.String(), htmlBuf.String(), nil
}
