package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortLen is the number of hex digits ShortRevision keeps.
const ShortLen = 12

// Revision returns the HEAD commit hash of the repository containing path.
// Parent directories are searched for .git. A path outside any repository,
// or a repository without commits, yields "" and no error.
func Revision(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", nil
		}
		return "", fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// ShortRevision is Revision truncated to ShortLen characters.
func ShortRevision(path string) (string, error) {
	rev, err := Revision(path)
	if err != nil || len(rev) <= ShortLen {
		return rev, err
	}
	return rev[:ShortLen], nil
}
