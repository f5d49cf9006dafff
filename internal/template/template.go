package template

import (
	"bytes"
	"fmt"
	"text/template"
)

// Data contains the values interpolated into the nginx configuration
// templates.
type Data struct {
	Domain   string
	WebRoot  string
	CertPath string
	KeyPath  string
}

// Template names.
const (
	// Site is the final virtual host: HTTP redirect (challenge path
	// excepted) plus the HTTPS server for the deployed webroot.
	Site = "site"

	// Challenge is the temporary HTTP-only config that serves the ACME
	// challenge directory and nothing else.
	Challenge = "challenge"
)

// Render renders the named nginx template with the given data.
func Render(name string, data Data) (string, error) {
	content, err := nginxTemplates.ReadFile(fmt.Sprintf("nginx/%s.conf.tmpl", name))
	if err != nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}
