// Package web embeds the HTML templates rendered by the HTTP server.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS
