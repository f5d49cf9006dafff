// Package template renders the embedded nginx configuration templates.
package template

import "embed"

//go:embed nginx/*.tmpl
var nginxTemplates embed.FS
