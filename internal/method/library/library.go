// Package library maps method titles to place notation using a small
// built-in table of common methods.
package library

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ringer/internal/ir"
)

//go:embed methods.yaml
var methodsYAML []byte

// Entry is one method in the library.
type Entry struct {
	Title         string `yaml:"title" json:"title"`
	Stage         int    `yaml:"stage" json:"stage"`
	PlaceNotation string `yaml:"place_notation" json:"place_notation"`
}

// Library is an index of methods by folded title.
type Library struct {
	entries []Entry
	byTitle map[string]Entry
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
	defaultErr  error
)

// Default returns the built-in library, parsed on first use.
func Default() (*Library, error) {
	defaultOnce.Do(func() {
		defaultLib, defaultErr = Parse(methodsYAML)
	})
	return defaultLib, defaultErr
}

// Parse builds a library from a YAML list of entries.
func Parse(data []byte) (*Library, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse method library: %w", err)
	}
	lib := &Library{byTitle: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := foldTitle(e.Title)
		if _, dup := lib.byTitle[key]; dup {
			return nil, fmt.Errorf("parse method library: duplicate title %q", e.Title)
		}
		lib.byTitle[key] = e
		lib.entries = append(lib.entries, e)
	}
	sort.Slice(lib.entries, func(i, j int) bool {
		if lib.entries[i].Stage != lib.entries[j].Stage {
			return lib.entries[i].Stage < lib.entries[j].Stage
		}
		return lib.entries[i].Title < lib.entries[j].Title
	})
	return lib, nil
}

// foldTitle normalizes a title for lookup: NFC, case folded, with runs of
// spaces collapsed.
func foldTitle(title string) string {
	folded := cases.Fold().String(norm.NFC.String(title))
	out := make([]rune, 0, len(folded))
	space := true
	for _, r := range folded {
		if r == ' ' || r == '\t' {
			if !space {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		out = append(out, r)
		space = false
	}
	if len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}

// Lookup finds a method by title. The returned spec carries the library's
// spelling of the title.
func (l *Library) Lookup(title string) (ir.MethodSpec, bool) {
	e, ok := l.byTitle[foldTitle(title)]
	if !ok {
		return ir.MethodSpec{}, false
	}
	return ir.MethodSpec{Title: e.Title, Stage: e.Stage, PlaceNotation: e.PlaceNotation}, true
}

// Entries returns every method ordered by stage then title.
func (l *Library) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
