// Package github opens and merges the pull requests that publish each
// snapshot batch into the base branch.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"

	"github.com/toozej/playlist2git/pkg/config"
)

var (
	// ErrInvalidRepoID is returned when the repository id is neither "owner/name" nor numeric.
	ErrInvalidRepoID = errors.New("invalid github repository id")

	// ErrNotMerged is returned when GitHub accepts the merge call but does not merge.
	ErrNotMerged = errors.New("pull request was not merged")
)

// PullRequests creates, finds and merges pull requests on one repository.
type PullRequests struct {
	client *github.Client
	owner  string
	repo   string
	logger *logrus.Logger
}

// New builds a client for cfg.RepoID. A numeric id is resolved to its owner
// and name with one API call.
func New(ctx context.Context, cfg config.GitHubConfig, logger *logrus.Logger) (*PullRequests, error) {
	if cfg.AccessToken == "" {
		return nil, config.ErrMissingGitHubToken
	}
	if cfg.RepoID == "" {
		return nil, config.ErrMissingGitHubRepo
	}

	client := github.NewClient(nil).WithAuthToken(cfg.AccessToken)
	if cfg.APIURL != "" {
		base, err := url.Parse(cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("parsing github api url: %w", err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		client.BaseURL = base
	}

	p := &PullRequests{client: client, logger: logger}

	if owner, name, ok := strings.Cut(cfg.RepoID, "/"); ok {
		if owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRepoID, cfg.RepoID)
		}
		p.owner, p.repo = owner, name
		return p, nil
	}

	id, err := strconv.ParseInt(cfg.RepoID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepoID, cfg.RepoID)
	}
	repo, _, err := client.Repositories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving repository %d: %w", id, err)
	}
	p.owner, p.repo = repo.GetOwner().GetLogin(), repo.GetName()

	logger.WithFields(logrus.Fields{
		"component": "github",
		"operation": "resolve_repo",
		"repo_id":   id,
		"repo":      p.FullName(),
	}).Debug("Resolved repository id")

	return p, nil
}

// FullName returns "owner/name".
func (p *PullRequests) FullName() string {
	return p.owner + "/" + p.repo
}

// Ensure returns the number of the open pull request from head into base,
// creating it with title and body when none exists.
func (p *PullRequests) Ensure(ctx context.Context, head, base, title, body string) (int, error) {
	log := p.logger.WithFields(logrus.Fields{
		"component": "github",
		"operation": "ensure_pull_request",
		"head":      head,
		"base":      base,
	})

	open, _, err := p.client.PullRequests.List(ctx, p.owner, p.repo, &github.PullRequestListOptions{
		State: "open",
		Head:  p.owner + ":" + head,
		Base:  base,
	})
	if err != nil {
		return 0, fmt.Errorf("listing pull requests: %w", err)
	}
	if len(open) > 0 {
		number := open[0].GetNumber()
		log.WithField("number", number).Info("Reusing open pull request")
		return number, nil
	}

	created, _, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
		Body:  github.String(body),
	})
	if err != nil {
		return 0, fmt.Errorf("creating pull request: %w", err)
	}

	log.WithFields(logrus.Fields{
		"number": created.GetNumber(),
		"url":    created.GetHTMLURL(),
	}).Info("Created pull request")
	return created.GetNumber(), nil
}

// Merge merges pull request number with a merge commit.
func (p *PullRequests) Merge(ctx context.Context, number int, message string) error {
	result, _, err := p.client.PullRequests.Merge(ctx, p.owner, p.repo, number, message, &github.PullRequestOptions{
		MergeMethod: "merge",
	})
	if err != nil {
		return fmt.Errorf("merging pull request #%d: %w", number, err)
	}
	if !result.GetMerged() {
		return fmt.Errorf("%w: #%d: %s", ErrNotMerged, number, result.GetMessage())
	}

	p.logger.WithFields(logrus.Fields{
		"component": "github",
		"operation": "merge_pull_request",
		"number":    number,
		"sha":       result.GetSHA(),
	}).Info("Merged pull request")
	return nil
}
