// Package assets embeds the rubric prompt templates shipped with the binary.
//
// Templates live under prompts/<locale>/<version>.tmpl.
package assets

import "embed"

//go:embed prompts
var Prompts embed.FS
