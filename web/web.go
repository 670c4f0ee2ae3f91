// Package web embeds the built viewer UI.
package web

import "embed"

// Dist holds the compiled UI bundle under "dist".
//
//go:embed dist
var Dist embed.FS
