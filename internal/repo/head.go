// internal/repo/head.go
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vsx/internal/branch"
	"vsx/shared/utils"
)

func writeHead(dir, name string) error {
	if err := utils.SafeWrite(filepath.Join(dir, headFile), []byte(name+"\n"), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name. A missing or empty
// HEAD means the configured default branch.
func (r *Repository) CurrentBranch() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, headFile))
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if name := strings.TrimSpace(string(data)); name != "" {
		return name, nil
	}
	return r.Config.Core.DefaultBranch, nil
}

func (r *Repository) currentBranch() (*branch.Branch, error) {
	name, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}
	return r.registry.Get(name)
}

// resolveBranch loads name, or the current branch when name is empty.
func (r *Repository) resolveBranch(name string) (*branch.Branch, error) {
	if name == "" {
		return r.currentBranch()
	}
	return r.registry.Get(name)
}
