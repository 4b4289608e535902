package reporting

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/playlist2git/pkg/config"
)

type recorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (r *recorder) beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func newRecordingReporter(t *testing.T) (*Reporter, *recorder) {
	t.Helper()
	rec := &recorder{}
	reporter, err := New(config.SentryConfig{
		DSN:         "https://public@sentry.example.com/1",
		Environment: "test",
	}, func(o *sentry.ClientOptions) {
		o.BeforeSend = rec.beforeSend
	})
	require.NoError(t, err)
	return reporter, rec
}

func TestDisabledReporter(t *testing.T) {
	reporter, err := New(config.SentryConfig{})
	require.NoError(t, err)

	assert.False(t, reporter.Enabled())
	assert.Nil(t, reporter.CaptureError(errors.New("boom")))
	assert.True(t, reporter.Flush(time.Millisecond))
	reporter.SetTag("batch", "Mar-05-2024")

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(reporter.Hook())
	logger.Info("nothing happens")
}

func TestNewRejectsInvalidDSN(t *testing.T) {
	_, err := New(config.SentryConfig{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestCaptureErrorCarriesBreadcrumbs(t *testing.T) {
	reporter, rec := newRecordingReporter(t)
	require.True(t, reporter.Enabled())

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(reporter.Hook())

	logger.WithFields(logrus.Fields{
		"component": "vcs",
		"operation": "prepare",
	}).Info("Preparing repository")
	logger.Debug("not recorded")
	logger.WithField("component", "github").WithError(errors.New("not mergeable")).Error("pull request failed")

	reporter.SetTag("batch", "Mar-05-2024")
	reporter.CaptureError(errors.New("pull request failed: not mergeable"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 1)
	event := rec.events[0]

	assert.Equal(t, "test", event.Environment)
	assert.Equal(t, "Mar-05-2024", event.Tags["batch"])

	require.Len(t, event.Breadcrumbs, 2)
	assert.Equal(t, "vcs", event.Breadcrumbs[0].Category)
	assert.Equal(t, "Preparing repository", event.Breadcrumbs[0].Message)
	assert.Equal(t, sentry.LevelInfo, event.Breadcrumbs[0].Level)
	assert.Equal(t, "prepare", event.Breadcrumbs[0].Data["operation"])

	assert.Equal(t, "github", event.Breadcrumbs[1].Category)
	assert.Equal(t, sentry.LevelError, event.Breadcrumbs[1].Level)
	assert.Equal(t, "not mergeable", event.Breadcrumbs[1].Data[logrus.ErrorKey])
}

func TestBreadcrumbLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, breadcrumbLevel(logrus.FatalLevel))
	assert.Equal(t, sentry.LevelWarning, breadcrumbLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelDebug, breadcrumbLevel(logrus.TraceLevel))
}
