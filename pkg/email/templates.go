package email

import (
	"bytes"
	"html/template"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	matchFoundTmpl   *template.Template
	matchAcceptTmpl  *template.Template
	matchExpiredTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	matchFoundTmpl, err := template.New("matchFound").Parse(matchFoundTemplate)
	if err != nil {
		return nil, err
	}
	matchAcceptTmpl, err := template.New("matchAccepted").Parse(matchAcceptedTemplate)
	if err != nil {
		return nil, err
	}
	matchExpiredTmpl, err := template.New("matchExpired").Parse(matchExpiredTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{
		matchFoundTmpl:   matchFoundTmpl,
		matchAcceptTmpl:  matchAcceptTmpl,
		matchExpiredTmpl: matchExpiredTmpl,
	}, nil
}

// MatchTemplateData holds the dynamic data for a match email.
type MatchTemplateData struct {
	Route string
	Score float64
}

// MatchFoundHTML renders the courier-facing "new candidate parcel" email.
func (tm *TemplateManager) MatchFoundHTML(data MatchTemplateData) (string, error) {
	return render(tm.matchFoundTmpl, data)
}

// MatchAcceptedHTML renders the sender-facing "courier accepted" email.
func (tm *TemplateManager) MatchAcceptedHTML(data MatchTemplateData) (string, error) {
	return render(tm.matchAcceptTmpl, data)
}

// MatchExpiredHTML renders the sender-facing "delivery needs re-matching" email.
func (tm *TemplateManager) MatchExpiredHTML(data MatchTemplateData) (string, error) {
	return render(tm.matchExpiredTmpl, data)
}

func render(tmpl *template.Template, data MatchTemplateData) (string, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const matchFoundTemplate = `
<html>
  <body>
    <h2>A parcel matches your trip</h2>
    <p>A parcel along <strong>{{.Route}}</strong> matches your planned trip
    with a score of {{.Score}}/100.</p>
    <p>Open your trip's match list to accept or pass.</p>
  </body>
</html>`

const matchAcceptedTemplate = `
<html>
  <body>
    <h2>A courier accepted your delivery</h2>
    <p>Your parcel on <strong>{{.Route}}</strong> has been accepted by a
    courier. You can follow its progress from your parcels page.</p>
  </body>
</html>`

const matchExpiredTemplate = `
<html>
  <body>
    <h2>Your delivery needs re-matching</h2>
    <p>The changes to your parcel on <strong>{{.Route}}</strong> no longer fit
    the courier's trip, so the match was released. We are already looking for
    new couriers; check your parcel's match list.</p>
  </body>
</html>`
