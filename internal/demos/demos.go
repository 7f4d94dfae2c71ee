// Package demos registers the built-in guest scripts. Import it for side
// effects:
//
//	import _ "github.com/vovakirdan/luads/internal/demos"
package demos

import (
	"embed"
	"path"
	"strings"

	"github.com/vovakirdan/luads/internal/registry"
)

//go:embed scripts/*.lua
var scripts embed.FS

func init() {
	entries, err := scripts.ReadDir("scripts")
	if err != nil {
		panic("demos: " + err.Error())
	}
	for _, e := range entries {
		data, err := scripts.ReadFile(path.Join("scripts", e.Name()))
		if err != nil {
			panic("demos: " + err.Error())
		}
		id := strings.TrimSuffix(e.Name(), ".lua")
		registry.Register(id, titleOf(id, string(data)), string(data))
	}
}

// titleOf takes the title from a leading "-- Title: description" comment.
func titleOf(id, source string) string {
	first, _, _ := strings.Cut(source, "\n")
	if rest, ok := strings.CutPrefix(first, "--"); ok {
		title, _, _ := strings.Cut(strings.TrimSpace(rest), ":")
		if title != "" {
			return title
		}
	}
	return id
}
