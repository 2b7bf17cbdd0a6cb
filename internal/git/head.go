package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// Source identifies the checkout a site was built from.
type Source struct {
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// ReadSource returns the HEAD commit (and branch, when HEAD is not detached) of
// the repository containing dir. A directory outside any repository yields an
// empty Source and no error.
func ReadSource(dir string) (Source, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return Source{}, nil
	}
	if err != nil {
		return Source{}, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		// A freshly initialised repository has no HEAD commit yet.
		return Source{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	src := Source{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		src.Branch = head.Name().Short()
	}
	return src, nil
}
