// Package scm tells which files changed compared to a reference branch.
package scm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitChangeOracle holds the files that differ between the merge base of a
// reference and the working tree.
type GitChangeOracle struct {
	repoRoot  string
	reference string
	changed   map[string]struct{} // repository relative, forward slashes
}

// NewGitChangeOracle opens the repository enclosing dir and collects the
// files changed since the merge base of HEAD and reference, including
// uncommitted and untracked files.
func NewGitChangeOracle(dir, reference string) (*GitChangeOracle, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	oracle := &GitChangeOracle{
		repoRoot:  root,
		reference: reference,
		changed:   make(map[string]struct{}),
	}

	if err := oracle.collectCommitted(repo, reference); err != nil {
		return nil, err
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	for path, s := range status {
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			oracle.changed[path] = struct{}{}
		}
	}
	return oracle, nil
}

func (o *GitChangeOracle) collectCommitted(repo *git.Repository, reference string) error {
	refHash, err := repo.ResolveRevision(plumbing.Revision(reference))
	if err != nil {
		return fmt.Errorf("resolve reference %q: %w", reference, err)
	}
	refCommit, err := repo.CommitObject(*refHash)
	if err != nil {
		return fmt.Errorf("reference commit: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("HEAD commit: %w", err)
	}

	base := refCommit
	if bases, err := headCommit.MergeBase(refCommit); err == nil && len(bases) > 0 {
		base = bases[0]
	}

	baseTree, err := base.Tree()
	if err != nil {
		return err
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return err
	}
	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return fmt.Errorf("diff %s..HEAD: %w", reference, err)
	}
	for _, change := range changes {
		// a deleted file has no To side, a new file no From side
		if change.To.Name != "" {
			o.changed[change.To.Name] = struct{}{}
		}
	}
	return nil
}

// ErrOutsideRepository is returned by Changed for files the repository does not track.
var ErrOutsideRepository = errors.New("file is outside of the repository")

// Changed reports whether the file at absolutePath differs from the reference.
func (o *GitChangeOracle) Changed(absolutePath string) (bool, error) {
	rel, err := filepath.Rel(o.repoRoot, absolutePath)
	if err != nil {
		return false, ErrOutsideRepository
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false, ErrOutsideRepository
	}
	_, changed := o.changed[rel]
	return changed, nil
}

// Reference returns the reference the oracle compares against.
func (o *GitChangeOracle) Reference() string {
	return o.reference
}

// ChangedCount returns the number of changed files known to the oracle.
func (o *GitChangeOracle) ChangedCount() int {
	return len(o.changed)
}
