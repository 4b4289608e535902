// Package pager turns cursor-based remote listings into lazy page sequences.
//
// A listing is described by two functions: one producing the first page and
// one producing the page that follows a given page. Pages reports whether a
// page has a successor through the Page interface, so the same abstraction
// serves playlist listings, playlist item listings and saved-track listings.
//
// The sequence fails fast: the first error from either function is logged,
// yielded once and ends the sequence. Nothing is retried.
package pager

import (
	"context"
	"fmt"
	"iter"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Page is one response unit of a paginated listing.
type Page interface {
	HasNext() bool
}

type options struct {
	logger  *logrus.Entry
	limiter *rate.Limiter
	name    string
}

// Option configures Pages.
type Option func(*options)

// WithLogger sets the entry fetch failures are logged to.
func WithLogger(entry *logrus.Entry) Option {
	return func(o *options) { o.logger = entry }
}

// WithLimiter paces every remote call through limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(o *options) { o.limiter = limiter }
}

// WithName labels log lines with the listing being paged.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Pages returns a lazy, finite sequence over the pages of a listing. first
// fetches the first page, next fetches the page following prev.
//
// Each range over the returned sequence starts again from the first page.
// Iteration stops after the first page whose HasNext reports false, after the
// consumer breaks, or after the first error, which is yielded with a zero page.
func Pages[P Page](ctx context.Context, first func(ctx context.Context) (P, error), next func(ctx context.Context, prev P) (P, error), opts ...Option) iter.Seq2[P, error] {
	o := options{logger: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(P, error) bool) {
		var zero P

		fail := func(index int, err error) {
			o.logger.WithFields(logrus.Fields{
				"component": "pager",
				"listing":   o.name,
				"page":      index,
			}).WithError(err).Error("Could not fetch page")
			yield(zero, err)
		}

		if err := o.wait(ctx); err != nil {
			fail(0, err)
			return
		}
		page, err := first(ctx)
		if err != nil {
			fail(0, err)
			return
		}

		for index := 0; ; index++ {
			if !yield(page, nil) {
				return
			}
			if !page.HasNext() {
				return
			}
			if err := o.wait(ctx); err != nil {
				fail(index+1, err)
				return
			}
			page, err = next(ctx, page)
			if err != nil {
				fail(index+1, err)
				return
			}
		}
	}
}

func (o options) wait(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

// Collect drains seq and concatenates the items of every page.
func Collect[P Page, T any](seq iter.Seq2[P, error], items func(P) []T) ([]T, error) {
	var all []T
	for page, err := range seq {
		if err != nil {
			return all, err
		}
		all = append(all, items(page)...)
	}
	return all, nil
}
