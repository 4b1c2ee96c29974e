// Package library loads snippet definitions from YAML files so templates
// can be looked up by prefix instead of passed around inline.
package library

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Definition is one named snippet. Body is a template string in the
// syntax understood by pkg/snippet.
type Definition struct {
	Name        string `yaml:"name"`
	Prefix      string `yaml:"prefix"`
	Description string `yaml:"description,omitempty"`
	Body        string `yaml:"body"`
}

// file is the on-disk shape of a snippet file.
type file struct {
	Snippets []Definition `yaml:"snippets"`
}

// Library is an in-memory collection of snippet definitions indexed by
// prefix.
type Library struct {
	defs     []Definition
	byPrefix map[string]Definition
}

// Load reads every file matching pattern (a doublestar glob) from fsys
// and collects their snippet definitions. Definitions without a prefix or
// body are skipped with a warning. Later files win prefix collisions.
func Load(ctx context.Context, fsys afero.Fs, pattern string) (*Library, error) {
	logger := zerolog.Ctx(ctx)

	matches, err := doublestar.Glob(afero.NewIOFS(fsys), pattern)
	if err != nil {
		return nil, errors.Errorf("globbing snippet files with %q: %w", pattern, err)
	}

	lib := &Library{byPrefix: make(map[string]Definition)}
	for _, path := range matches {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, errors.Errorf("reading snippet file %s: %w", path, err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, errors.Errorf("parsing snippet file %s: %w", path, err)
		}
		for _, def := range f.Snippets {
			if def.Prefix == "" || def.Body == "" {
				logger.Warn().Str("file", path).Str("name", def.Name).Msg("skipping snippet without prefix or body")
				continue
			}
			lib.add(def)
		}
		logger.Debug().Str("file", path).Int("snippets", len(f.Snippets)).Msg("loaded snippet file")
	}
	return lib, nil
}

func (me *Library) add(def Definition) {
	if _, ok := me.byPrefix[def.Prefix]; ok {
		for i, existing := range me.defs {
			if existing.Prefix == def.Prefix {
				me.defs[i] = def
				break
			}
		}
	} else {
		me.defs = append(me.defs, def)
	}
	me.byPrefix[def.Prefix] = def
}

// Lookup returns the definition registered for a prefix.
func (me *Library) Lookup(prefix string) (Definition, bool) {
	def, ok := me.byPrefix[prefix]
	return def, ok
}

// All returns every definition in load order.
func (me *Library) All() []Definition {
	return me.defs
}

func (me *Library) Len() int {
	return len(me.defs)
}
