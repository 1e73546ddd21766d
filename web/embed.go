// Package web holds the browser UI served at / and /static.
package web

import "embed"

//go:embed static
var StaticFiles embed.FS
