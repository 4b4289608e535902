// Package vcs manages the local working copy of the playlist repository with
// go-git: origin and master setup, batch branches, staging, commits, pushes
// and post-merge cleanup.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/sirupsen/logrus"

	"github.com/toozej/playlist2git/pkg/config"
)

const (
	// RemoteName is the only remote the repository talks to.
	RemoteName = "origin"

	initFile    = ".init"
	initMessage = "init"
)

// ErrOutsideWorktree is returned by Stage for paths outside the repository directory.
var ErrOutsideWorktree = errors.New("path is outside the repository worktree")

// Repository is a git working copy with a single origin remote.
type Repository struct {
	repo   *git.Repository
	dir    string
	base   string
	config config.RepoConfig
	auth   transport.AuthMethod
	logger *logrus.Logger
	now    func() time.Time
}

// Option customizes a Repository.
type Option func(*Repository)

// WithBaseBranch sets the integration branch. Defaults to "master".
func WithBaseBranch(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.base = name
		}
	}
}

// WithToken authenticates HTTPS remotes with a GitHub access token.
func WithToken(token string) Option {
	return func(r *Repository) {
		if token != "" && strings.HasPrefix(r.config.RemoteURL, "https://") {
			r.auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
		}
	}
}

// WithClock overrides the commit timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// Open opens the repository at cfg.Dir, initializing it when absent. A
// relative directory is resolved against the working directory.
func Open(cfg config.RepoConfig, logger *logrus.Logger, opts ...Option) (*Repository, error) {
	if cfg.Dir == "" {
		return nil, config.ErrMissingRepoDir
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving repository directory: %w", err)
	}
	cfg.Dir = dir

	log := logger.WithFields(logrus.Fields{
		"component": "vcs",
		"operation": "open",
		"dir":       cfg.Dir,
	})

	repo, err := git.PlainOpen(cfg.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		log.Info("Initializing repository")
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating repository directory: %w", err)
		}
		repo, err = git.PlainInit(cfg.Dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", cfg.Dir, err)
	}

	r := &Repository{
		repo:   repo,
		dir:    cfg.Dir,
		base:   "master",
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the worktree root.
func (r *Repository) Dir() string {
	return r.dir
}

// Prepare makes sure origin exists and that the base branch is checked out,
// tracks origin and is up to date. An origin without the base branch is
// seeded with an empty ".init" commit.
func (r *Repository) Prepare(ctx context.Context) error {
	log := r.log("prepare")

	if err := r.ensureOrigin(); err != nil {
		return err
	}
	if err := r.fetch(ctx); err != nil {
		return err
	}

	baseRef := plumbing.NewBranchReferenceName(r.base)
	_, err := r.repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, r.base), true)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		log.WithField("branch", r.base).Info("Origin has no base branch, creating it")
		if err := r.seedBase(); err != nil {
			return err
		}
		if err := r.Push(ctx, r.base); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("resolving %s/%s: %w", RemoteName, r.base, err)
	default:
		if _, err := r.repo.Reference(baseRef, true); errors.Is(err, plumbing.ErrReferenceNotFound) {
			log.WithField("branch", r.base).Info("Creating local base branch from origin")
			if err := r.branchFromRemote(r.base); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("resolving %s: %w", r.base, err)
		}
	}

	if err := r.track(r.base); err != nil {
		return err
	}
	if err := r.checkout(r.base); err != nil {
		return err
	}
	return r.pull(ctx)
}

// CheckoutBatch switches to the batch branch, creating it from origin or
// from HEAD when it does not exist locally.
func (r *Repository) CheckoutBatch(name string) error {
	log := r.log("checkout_batch").WithField("branch", name)

	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	switch {
	case err == nil:
		log.Info("Reusing local batch branch")
		return r.checkout(name)
	case !errors.Is(err, plumbing.ErrReferenceNotFound):
		return fmt.Errorf("resolving %s: %w", name, err)
	}

	if _, err := r.repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, name), true); err == nil {
		log.Info("Creating batch branch from origin")
		if err := r.branchFromRemote(name); err != nil {
			return err
		}
		if err := r.track(name); err != nil {
			return err
		}
		return r.checkout(name)
	}

	log.Info("Creating batch branch")
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
		Keep:   true,
	}); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	return nil
}

// CurrentBranch returns the short name of the checked out branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	return head.Name().Short(), nil
}

// Stage adds path, absolute or relative to the worktree root, to the index.
func (r *Repository) Stage(path string) error {
	rel := path
	if filepath.IsAbs(path) {
		var err error
		rel, err = filepath.Rel(r.dir, path)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrOutsideWorktree, path)
		}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideWorktree, path)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("staging %s: %w", rel, err)
	}
	r.log("stage").WithField("path", rel).Debug("Staged file")
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repository) HasStagedChanges() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("reading status: %w", err)
	}
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// Commit records the index with message and returns the new commit hash.
func (r *Repository) Commit(message string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", err
	}
	sig := &object.Signature{
		Name:  r.config.AuthorName,
		Email: r.config.AuthorEmail,
		When:  r.now(),
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	r.log("commit").WithFields(logrus.Fields{
		"commit":  hash.String(),
		"message": message,
	}).Info("Committed changes")
	return hash.String(), nil
}

// Push publishes the local branch to origin under the same name.
func (r *Repository) Push(ctx context.Context, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	spec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	if err := r.push(ctx, spec); err != nil {
		return fmt.Errorf("pushing %s: %w", branch, err)
	}
	r.log("push").WithField("branch", branch).Info("Pushed branch")
	return nil
}

// Cleanup deletes the merged batch branch on origin and locally and brings
// the base branch up to date.
func (r *Repository) Cleanup(ctx context.Context, branch string) error {
	log := r.log("cleanup").WithField("branch", branch)

	if branch == r.base {
		return fmt.Errorf("refusing to delete base branch %s", branch)
	}

	spec := gitconfig.RefSpec(":" + plumbing.NewBranchReferenceName(branch).String())
	if err := r.push(ctx, spec); err != nil {
		return fmt.Errorf("deleting remote branch %s: %w", branch, err)
	}
	if err := r.repo.Storer.RemoveReference(plumbing.NewRemoteReferenceName(RemoteName, branch)); err != nil {
		log.WithError(err).Debug("Could not remove remote-tracking reference")
	}
	log.Info("Deleted remote branch")

	if err := r.checkout(r.base); err != nil {
		return err
	}
	if err := r.pull(ctx); err != nil {
		return err
	}

	if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(branch)); err != nil {
		return fmt.Errorf("deleting local branch %s: %w", branch, err)
	}
	if err := r.repo.DeleteBranch(branch); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return fmt.Errorf("deleting branch config %s: %w", branch, err)
	}
	log.Info("Deleted local branch")
	return nil
}

func (r *Repository) ensureOrigin() error {
	_, err := r.repo.Remote(RemoteName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("reading remote %s: %w", RemoteName, err)
	}
	if r.config.RemoteURL == "" {
		return config.ErrMissingRemoteURL
	}

	r.log("prepare").WithField("url", r.config.RemoteURL).Info("Adding origin remote")
	_, err = r.repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: RemoteName,
		URLs: []string{r.config.RemoteURL},
	})
	if err != nil {
		return fmt.Errorf("creating remote %s: %w", RemoteName, err)
	}
	return nil
}

func (r *Repository) fetch(ctx context.Context) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: RemoteName,
		Auth:       r.auth,
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) || errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil
	}
	return fmt.Errorf("fetching %s: %w", RemoteName, err)
}

func (r *Repository) pull(ctx context.Context) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    RemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(r.base),
		SingleBranch:  true,
		Auth:          r.auth,
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return fmt.Errorf("pulling %s: %w", r.base, err)
}

func (r *Repository) push(ctx context.Context, spec gitconfig.RefSpec) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       r.auth,
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// seedBase commits an empty marker file on the base branch unless the
// branch already exists locally.
func (r *Repository) seedBase() error {
	baseRef := plumbing.NewBranchReferenceName(r.base)
	if _, err := r.repo.Reference(baseRef, true); err == nil {
		return nil
	}

	// Point HEAD at the unborn base branch so the commit lands there.
	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, baseRef)); err != nil {
		return fmt.Errorf("setting HEAD: %w", err)
	}

	if err := os.WriteFile(filepath.Join(r.dir, initFile), nil, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", initFile, err)
	}
	if err := r.Stage(initFile); err != nil {
		return err
	}
	_, err := r.Commit(initMessage)
	return err
}

func (r *Repository) branchFromRemote(name string) error {
	remote, err := r.repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, name), true)
	if err != nil {
		return fmt.Errorf("resolving %s/%s: %w", RemoteName, name, err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), remote.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	return nil
}

// track records origin as the upstream of the local branch.
func (r *Repository) track(name string) error {
	err := r.repo.CreateBranch(&gitconfig.Branch{
		Name:   name,
		Remote: RemoteName,
		Merge:  plumbing.NewBranchReferenceName(name),
	})
	if err == nil || errors.Is(err, git.ErrBranchExists) {
		return nil
	}
	return fmt.Errorf("tracking %s/%s: %w", RemoteName, name, err)
}

func (r *Repository) checkout(name string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		return fmt.Errorf("checking out %s: %w", name, err)
	}
	return nil
}

func (r *Repository) log(operation string) *logrus.Entry {
	return r.logger.WithFields(logrus.Fields{
		"component": "vcs",
		"operation": operation,
	})
}
