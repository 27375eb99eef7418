// internal/commit/graph.go
package commit

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"vsx/internal/errors"
	"vsx/internal/validation"
	"vsx/shared/utils"
)

// Graph is the append-only commit log persisted as a JSON array.
type Graph struct {
	path    string
	commits []*Commit
	index   map[string]*Commit
}

// Load reads the graph at path. A missing or empty file is an empty graph.
func Load(path string) (*Graph, error) {
	g := &Graph{path: path, index: make(map[string]*Commit)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("reading commits: %w", err)
	}
	if len(data) == 0 {
		return g, nil
	}

	var commits []*Commit
	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, errors.InvalidRecord("commit", err)
	}
	if err := validation.Each("commit", commits); err != nil {
		return nil, err
	}

	for _, c := range commits {
		if _, dup := g.index[c.ID]; dup {
			return nil, errors.InvalidRecord("commit", fmt.Errorf("duplicate id %s", c.ID))
		}
		g.index[c.ID] = c
	}
	g.commits = commits
	return g, nil
}

func (g *Graph) Get(id string) (*Commit, bool) {
	c, ok := g.index[id]
	return c, ok
}

func (g *Graph) Contains(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Append adds c to the graph and rewrites the file.
func (g *Graph) Append(c *Commit) error {
	if err := c.Validate(); err != nil {
		return errors.InvalidRecord("commit", err)
	}
	if g.Contains(c.ID) {
		return errors.InvalidRecord("commit", fmt.Errorf("duplicate id %s", c.ID))
	}

	commits := append(g.commits, c)
	if err := g.save(commits); err != nil {
		return err
	}
	g.commits = commits
	g.index[c.ID] = c
	return nil
}

// All returns every commit in append order.
func (g *Graph) All() []*Commit {
	out := make([]*Commit, len(g.commits))
	copy(out, g.commits)
	return out
}

func (g *Graph) Len() int {
	return len(g.commits)
}

// TrackedPaths returns every path named by any commit, sorted.
func (g *Graph) TrackedPaths() []string {
	seen := make(map[string]bool)
	for _, c := range g.commits {
		for _, f := range c.Files {
			seen[f.Path] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (g *Graph) save(commits []*Commit) error {
	if commits == nil {
		commits = []*Commit{}
	}
	data, err := json.MarshalIndent(commits, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding commits: %w", err)
	}
	if err := utils.SafeWrite(g.path, data, 0644); err != nil {
		return fmt.Errorf("writing commits: %w", err)
	}
	return nil
}

// Init writes an empty graph file at path.
func Init(path string) error {
	return (&Graph{path: path}).save(nil)
}
