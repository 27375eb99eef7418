// internal/ignore/ignore.go
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileName is the ignore file kept at the working root.
const FileName = ".vsxignore"

// DefaultPatterns are written to a fresh ignore file.
var DefaultPatterns = []string{".vsx", FileName}

// Matcher decides whether a working-tree path is excluded from tracking.
type Matcher struct {
	static   map[string]bool
	patterns []string
}

// New returns a matcher over the built-in static entries plus patterns.
// static paths are always ignored, whatever the ignore file says.
func New(static []string, patterns ...string) *Matcher {
	m := &Matcher{static: make(map[string]bool)}
	for _, s := range static {
		m.static[path.Clean(filepath.ToSlash(s))] = true
	}
	for _, p := range patterns {
		m.add(p)
	}
	return m
}

// Load reads newline separated globs from file. Blank lines and lines
// starting with '#' are skipped; a missing file yields only the static set.
func Load(file string, static ...string) (*Matcher, error) {
	m := New(static)

	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return m, nil
}

// WriteDefault creates the ignore file with DefaultPatterns.
func WriteDefault(file string) error {
	return os.WriteFile(file, []byte(strings.Join(DefaultPatterns, "\n")+"\n"), 0644)
}

func (m *Matcher) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	m.patterns = append(m.patterns, strings.TrimSuffix(filepath.ToSlash(line), "/"))
}

// Match reports whether rel, a slash separated path relative to the
// working root, is ignored. A path is ignored when it or any of its
// parent directories matches.
func (m *Matcher) Match(rel string) bool {
	clean := path.Clean(filepath.ToSlash(rel))
	parts := strings.Split(clean, "/")

	for i := 1; i <= len(parts); i++ {
		prefix := strings.Join(parts[:i], "/")
		if m.static[prefix] {
			return true
		}
		for _, pat := range m.patterns {
			if matchPattern(pat, parts[:i]) {
				return true
			}
		}
	}
	return false
}

// Predicate adapts m to the plain function form the engine consumes.
func (m *Matcher) Predicate() func(string) bool {
	return m.Match
}

// matchPattern matches one pattern against path segments. A pattern with
// no slash matches the last segment alone, so "*.log" hits logs at any
// depth.
func matchPattern(pattern string, parts []string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, parts[len(parts)-1])
		return ok
	}
	return matchSegments(strings.Split(strings.TrimPrefix(pattern, "/"), "/"), parts)
}

// matchSegments handles *, ? and ** segment by segment.
func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(p, parts[0]); !ok {
			return false
		}
		parts = parts[1:]
	}

	return len(parts) == 0
}
