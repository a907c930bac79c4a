// Package personnel provides the roster of personnel that stock can be assigned to.
package personnel

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed roster.toml
var defaultRoster []byte

type rosterFile struct {
	Base []struct {
		Name      string   `toml:"name"`
		Personnel []string `toml:"personnel"`
	} `toml:"base"`
}

// Directory is an immutable roster keyed by base name.
type Directory struct {
	byBase map[string][]string
	all    []string
}

// Load reads the roster at path, or the built-in roster when path is empty.
func Load(path string) (*Directory, error) {
	data := defaultRoster
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read personnel roster: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a TOML roster.
func Parse(data []byte) (*Directory, error) {
	var f rosterFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("decode personnel roster: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode personnel roster: unknown keys %v", undecoded)
	}

	d := &Directory{byBase: make(map[string][]string, len(f.Base))}
	for _, b := range f.Base {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, fmt.Errorf("personnel roster: base without name")
		}
		if _, dup := d.byBase[name]; dup {
			return nil, fmt.Errorf("personnel roster: base %q listed twice", name)
		}
		people := make([]string, 0, len(b.Personnel))
		for _, p := range b.Personnel {
			if p = strings.TrimSpace(p); p != "" {
				people = append(people, p)
			}
		}
		d.byBase[name] = people
		d.all = append(d.all, people...)
	}
	slices.Sort(d.all)
	d.all = slices.Compact(d.all)
	return d, nil
}

// ForBase returns the roster of one base in file order; unknown bases have none.
func (d *Directory) ForBase(baseName string) []string {
	return slices.Clone(d.byBase[baseName])
}

// All returns every person across bases, sorted.
func (d *Directory) All() []string {
	return slices.Clone(d.all)
}
