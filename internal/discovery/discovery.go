// Package discovery resolves configured glob classes against a source root.
// Patterns are evaluated on every call, so file-system changes always show up.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	perrors "github.com/dosanma1/crxpack/internal/errors"
)

// Sources holds the files matched by each class. Paths are slash-separated
// and relative to Root.
type Sources struct {
	Root    string
	classes map[string][]string
}

// Discover evaluates every class against root. A class that matches nothing
// is legal; a malformed pattern is a configuration error.
func Discover(root string, classes map[string][]string) (*Sources, error) {
	return DiscoverFS(root, os.DirFS(root), classes)
}

// DiscoverFS is Discover over an arbitrary file system.
func DiscoverFS(root string, fsys fs.FS, classes map[string][]string) (*Sources, error) {
	s := &Sources{Root: root, classes: make(map[string][]string, len(classes))}

	for class, patterns := range classes {
		seen := make(map[string]bool)
		files := []string{}
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return nil, perrors.BadPattern(pattern, doublestar.ErrBadPattern).WithContext("class", class)
			}
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, perrors.BadPattern(pattern, err).WithContext("class", class)
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					files = append(files, m)
				}
			}
		}
		sort.Strings(files)
		s.classes[class] = files
	}

	return s, nil
}

// Files returns the matches of one class.
func (s *Sources) Files(class string) []string {
	return s.classes[class]
}

// Abs returns the matches of one class as absolute OS paths.
func (s *Sources) Abs(class string) []string {
	files := s.classes[class]
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Join(s.Root, filepath.FromSlash(f))
	}
	return out
}

// All returns the sorted union of the given classes.
func (s *Sources) All(classes ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, class := range classes {
		for _, f := range s.classes[class] {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Count returns the number of distinct files across every class.
func (s *Sources) Count() int {
	seen := make(map[string]bool)
	for _, files := range s.classes {
		for _, f := range files {
			seen[f] = true
		}
	}
	return len(seen)
}

// Classify returns the sorted classes whose patterns match rel, a
// slash-separated path relative to the source root.
func Classify(rel string, classes map[string][]string) []string {
	rel = filepath.ToSlash(rel)
	var out []string
	for class, patterns := range classes {
		for _, pattern := range patterns {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				out = append(out, class)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
