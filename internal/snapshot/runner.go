// Package snapshot runs one sync of a Spotify library into the playlist
// repository: prepare the working copy, check out the batch branch, fetch
// every collection, render and stage the logs, and when anything changed
// commit, push, merge the pull request and clean up the branch.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/toozej/playlist2git/internal/playlist"
	"github.com/toozej/playlist2git/internal/spotify"
	"github.com/toozej/playlist2git/pkg/config"
)

// Run failures. Every error returned by Run wraps exactly one of these.
var (
	ErrRepository    = errors.New("repository setup failed")
	ErrCredential    = errors.New("credential acquisition failed")
	ErrFetch         = errors.New("collection fetch failed")
	ErrRender        = errors.New("rendering logs failed")
	ErrPublish       = errors.New("publishing batch failed")
	ErrChangeRequest = errors.New("pull request failed")
	ErrCleanup       = errors.New("branch cleanup failed")
)

// Outcome is the successful terminal state of a run.
type Outcome int

const (
	// OutcomeNoChange means the rendered logs matched the last commit.
	OutcomeNoChange Outcome = iota
	// OutcomePublished means a batch was committed, merged and cleaned up.
	OutcomePublished
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoChange:
		return "no change"
	case OutcomePublished:
		return "published"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Repository is the working copy the logs are committed to.
type Repository interface {
	Dir() string
	Prepare(ctx context.Context) error
	CheckoutBatch(name string) error
	Stage(path string) error
	HasStagedChanges() (bool, error)
	Commit(message string) (string, error)
	Push(ctx context.Context, branch string) error
	Cleanup(ctx context.Context, branch string) error
}

// Library is the streaming account being snapshotted.
type Library interface {
	Connect(ctx context.Context) (*spotify.User, error)
	Collections(ctx context.Context) ([]*playlist.Playlist, error)
}

// ChangeRequests opens and merges pull requests.
type ChangeRequests interface {
	Ensure(ctx context.Context, head, base, title, body string) (int, error)
	Merge(ctx context.Context, number int, message string) error
}

// Runner wires the collaborators of a sync run.
type Runner struct {
	Repo        Repository
	Library     Library
	Requests    ChangeRequests
	Logger      *logrus.Logger
	Now         func() time.Time
	Granularity string
	BaseBranch  string
}

// Result describes a finished run.
type Result struct {
	Outcome     Outcome
	Batch       string
	Files       []string
	Commit      string
	PullRequest int
}

// Run performs one sync. Steps run in strict sequence and the first failure
// aborts the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	base := r.BaseBranch
	if base == "" {
		base = "master"
	}

	batch, err := BatchID(now(), r.Granularity)
	if err != nil {
		return Result{}, err
	}
	res := Result{Batch: batch}

	log := r.Logger.WithFields(logrus.Fields{
		"component": "snapshot",
		"batch":     batch,
	})

	log.WithField("operation", "prepare").Info("Preparing repository")
	if err := r.Repo.Prepare(ctx); err != nil {
		return res, r.fail(log, ErrRepository, err)
	}
	if err := r.Repo.CheckoutBatch(batch); err != nil {
		return res, r.fail(log, ErrRepository, err)
	}

	user, err := r.Library.Connect(ctx)
	if err != nil {
		return res, r.fail(log, ErrCredential, err)
	}
	log = log.WithField("user_id", user.ID)

	log.WithField("operation", "fetch").Info("Fetching collections")
	collections, err := r.Library.Collections(ctx)
	if err != nil {
		return res, r.fail(log, ErrFetch, err)
	}

	for _, p := range collections {
		path, err := p.WriteLogFile(r.Repo.Dir())
		if err != nil {
			return res, r.fail(log, ErrRender, err)
		}
		if err := r.Repo.Stage(path); err != nil {
			return res, r.fail(log, ErrRender, err)
		}
		res.Files = append(res.Files, path)
		log.WithFields(logrus.Fields{
			"operation": "render",
			"playlist":  p.Name(),
			"tracks":    p.Len(),
			"path":      path,
		}).Debug("Rendered playlist log")
	}

	changed, err := r.Repo.HasStagedChanges()
	if err != nil {
		return res, r.fail(log, ErrRender, err)
	}
	if !changed {
		log.WithField("operation", "diff").Info("No change in playlists, nothing to commit")
		res.Outcome = OutcomeNoChange
		return res, nil
	}

	res.Commit, err = r.Repo.Commit(batch)
	if err != nil {
		return res, r.fail(log, ErrPublish, err)
	}
	if err := r.Repo.Push(ctx, batch); err != nil {
		return res, r.fail(log, ErrPublish, err)
	}

	res.PullRequest, err = r.Requests.Ensure(ctx, batch, base, batch, batch)
	if err != nil {
		return res, r.fail(log, ErrChangeRequest, err)
	}
	if err := r.Requests.Merge(ctx, res.PullRequest, batch); err != nil {
		return res, r.fail(log, ErrChangeRequest, err)
	}

	if err := r.Repo.Cleanup(ctx, batch); err != nil {
		return res, r.fail(log, ErrCleanup, err)
	}

	log.WithFields(logrus.Fields{
		"operation":    "publish",
		"commit":       res.Commit,
		"pull_request": res.PullRequest,
		"collections":  len(collections),
	}).Info("Snapshot published")
	res.Outcome = OutcomePublished
	return res, nil
}

func (r *Runner) fail(log *logrus.Entry, kind, err error) error {
	log.WithError(err).Error(kind.Error())
	return fmt.Errorf("%w: %w", kind, err)
}

// BatchID names the batch branch for now. Daily batches share one branch
// per date; run batches add the time of day.
func BatchID(now time.Time, granularity string) (string, error) {
	switch granularity {
	case config.GranularityDaily, "":
		return now.Format("Jan-02-2006"), nil
	case config.GranularityRun:
		return now.Format("Jan-02-2006-150405"), nil
	default:
		return "", fmt.Errorf("unknown batch granularity %q", granularity)
	}
}
