// Package roster holds the creature table that drives sprite generation:
// which folders exist, what they are called, and the identifier the game
// uses for each.
package roster

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed creatures.yaml
var defaultRosterYAML []byte

// Entry is one creature.
type Entry struct {
	// Folder is the directory name under the sprite root; also the output
	// file stem. Derived from Name when omitted.
	Folder string `yaml:"folder"`
	// Name is the human-readable display name.
	Name string `yaml:"name"`
	// Enum is the symbolic identifier used by game scripts. Derived from
	// Folder when omitted.
	Enum string `yaml:"enum"`
	// Speed overrides the default animation fps when > 0.
	Speed float64 `yaml:"speed,omitempty"`
}

// Roster is an ordered creature table.
type Roster struct {
	Creatures []Entry `yaml:"creatures"`
}

var (
	folderPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	enumPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// Validate checks that the roster satisfies basic invariants.
//
// Postcondition: Returns nil iff the roster is non-empty, every folder key
// matches [a-z0-9_]+, every name is non-empty, every enum matches
// [A-Z][A-Z0-9_]*, folders and enums are unique and speeds are >= 0.
func (r *Roster) Validate() error {
	if len(r.Creatures) == 0 {
		return fmt.Errorf("roster: no creatures defined")
	}
	folders := make(map[string]bool, len(r.Creatures))
	enums := make(map[string]string, len(r.Creatures))
	for i, e := range r.Creatures {
		if !folderPattern.MatchString(e.Folder) {
			return fmt.Errorf("roster entry %d: folder %q must match [a-z0-9_]+", i, e.Folder)
		}
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("roster entry %q: name must not be empty", e.Folder)
		}
		if !enumPattern.MatchString(e.Enum) {
			return fmt.Errorf("roster entry %q: enum %q must match [A-Z][A-Z0-9_]*", e.Folder, e.Enum)
		}
		if e.Speed < 0 {
			return fmt.Errorf("roster entry %q: speed must be >= 0, got %g", e.Folder, e.Speed)
		}
		if folders[e.Folder] {
			return fmt.Errorf("roster: folder %q listed more than once", e.Folder)
		}
		folders[e.Folder] = true
		if other, dup := enums[e.Enum]; dup {
			return fmt.Errorf("roster: enum %q used by both %q and %q", e.Enum, other, e.Folder)
		}
		enums[e.Enum] = e.Folder
	}
	return nil
}

// Lookup returns the entry for folder.
func (r *Roster) Lookup(folder string) (Entry, bool) {
	for _, e := range r.Creatures {
		if e.Folder == folder {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter returns a roster restricted to folders, kept in roster order.
// An empty folders list returns r unchanged.
//
// Postcondition: Returns a roster or an error naming the first unknown folder.
func (r *Roster) Filter(folders []string) (*Roster, error) {
	if len(folders) == 0 {
		return r, nil
	}
	want := make(map[string]bool, len(folders))
	for _, f := range folders {
		if _, ok := r.Lookup(f); !ok {
			return nil, fmt.Errorf("unknown creature %q", f)
		}
		want[f] = true
	}
	out := &Roster{}
	for _, e := range r.Creatures {
		if want[e.Folder] {
			out.Creatures = append(out.Creatures, e)
		}
	}
	return out, nil
}

// Default returns the built-in roster.
func Default() *Roster {
	r, err := LoadFromBytes(defaultRosterYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in roster is invalid: %v", err))
	}
	return r
}

// LoadFromBytes parses and validates a roster from raw YAML bytes.
//
// Precondition: data must be valid YAML with a top-level creatures list.
// Postcondition: Returns a validated *Roster with every Folder and Enum
// populated, or an error.
func LoadFromBytes(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster YAML: %w", err)
	}
	for i := range r.Creatures {
		e := &r.Creatures[i]
		e.Folder = strings.TrimSpace(e.Folder)
		e.Name = strings.TrimSpace(e.Name)
		if e.Folder == "" {
			e.Folder = NameToID(e.Name)
		}
		if e.Enum == "" {
			e.Enum = EnumFromFolder(e.Folder)
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadFromFile reads a roster YAML file.
//
// Postcondition: Returns a validated *Roster or an error naming path.
func LoadFromFile(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file %s: %w", path, err)
	}
	r, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading roster %s: %w", path, err)
	}
	return r, nil
}

// Load returns the roster at path, or the built-in roster when path is empty.
func Load(path string) (*Roster, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFromFile(path)
}
