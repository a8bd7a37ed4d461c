// Package frames selects animation frames from a creature's sprite folder
// by filename prefix.
package frames

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrIncomplete is returned by Set.Check when a folder lacks stand frames or
// move frames.
var ErrIncomplete = errors.New("missing frames")

// Prefixes names the filename conventions for each animation.
type Prefixes struct {
	Stand    string
	Move     string
	Fallback string
}

// DefaultPrefixes returns the stand_/move_/chase_ convention.
func DefaultPrefixes() Prefixes {
	return Prefixes{Stand: "stand_", Move: "move_", Fallback: "chase_"}
}

// Set is the result of partitioning one folder.
type Set struct {
	// Stand holds the idle frames, sorted.
	Stand []string
	// Move holds the walk frames, sorted.
	Move []string
	// UsedFallback reports that Move came from the fallback prefix.
	UsedFallback bool
}

// Complete reports whether both animations have at least one frame.
func (s Set) Complete() bool {
	return len(s.Stand) > 0 && len(s.Move) > 0
}

// Check returns nil for a complete set, or an error wrapping ErrIncomplete
// that names the missing side(s).
func (s Set) Check() error {
	var missing []string
	if len(s.Stand) == 0 {
		missing = append(missing, "stand")
	}
	if len(s.Move) == 0 {
		missing = append(missing, "move")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: no %s frames", ErrIncomplete, strings.Join(missing, " or "))
}

// Partition splits names into stand and move frames.
//
// Postcondition: Stand is exactly the names starting with p.Stand, sorted
// lexicographically. Move is exactly the names starting with p.Move, sorted;
// when there are none, Move is the names starting with p.Fallback, sorted,
// and UsedFallback is true.
func Partition(names []string, p Prefixes) Set {
	var s Set
	s.Stand = withPrefix(names, p.Stand)
	s.Move = withPrefix(names, p.Move)
	if len(s.Move) == 0 {
		s.Move = withPrefix(names, p.Fallback)
		s.UsedFallback = len(s.Move) > 0
	}
	return s
}

func withPrefix(names []string, prefix string) []string {
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Scan lists the regular files in dir, drops names ending in any of
// ignoreSuffixes, and partitions the rest.
//
// Precondition: dir should name a directory.
// Postcondition: Returns the partitioned set, or an error wrapping the
// underlying filesystem error (fs.ErrNotExist for a missing folder).
func Scan(dir string, p Prefixes, ignoreSuffixes []string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Set{}, fmt.Errorf("reading frame directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if hasAnySuffix(e.Name(), ignoreSuffixes) {
			continue
		}
		names = append(names, e.Name())
	}
	return Partition(names, p), nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
