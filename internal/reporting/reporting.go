// Package reporting forwards fatal sync errors to Sentry. Without a DSN
// every method is a no-op.
package reporting

import (
	"fmt"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/toozej/playlist2git/pkg/config"
	"github.com/toozej/playlist2git/pkg/version"
)

// Reporter sends errors, with the log lines leading up to them as
// breadcrumbs, to a Sentry project.
type Reporter struct {
	hub *sentry.Hub
}

// New creates a Reporter. opts may adjust the client options, for example
// to install a BeforeSend hook.
func New(cfg config.SentryConfig, opts ...func(*sentry.ClientOptions)) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{}, nil
	}

	options := sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          "playlist2git@" + version.Get().Version,
		TracesSampleRate: 1.0,
		MaxBreadcrumbs:   100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Enabled reports whether events are sent anywhere.
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// SetTag tags every later event.
func (r *Reporter) SetTag(key, value string) {
	if !r.Enabled() {
		return
	}
	r.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag(key, value)
	})
}

// CaptureError reports err and returns its event id, or nil when disabled.
func (r *Reporter) CaptureError(err error) *sentry.EventID {
	if !r.Enabled() || err == nil {
		return nil
	}
	return r.hub.CaptureException(err)
}

// Flush waits up to timeout for queued events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}

// Hook returns a logrus hook recording every entry at info level or above
// as a breadcrumb.
func (r *Reporter) Hook() logrus.Hook {
	return &breadcrumbHook{reporter: r}
}

type breadcrumbHook struct {
	reporter *Reporter
}

func (h *breadcrumbHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (h *breadcrumbHook) Fire(entry *logrus.Entry) error {
	if !h.reporter.Enabled() {
		return nil
	}

	data := make(map[string]interface{}, len(entry.Data))
	category := "log"
	for k, v := range entry.Data {
		switch k {
		case "component":
			category = fmt.Sprint(v)
		case logrus.ErrorKey:
			data[k] = fmt.Sprint(v)
		default:
			data[k] = v
		}
	}

	h.reporter.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   entry.Message,
		Data:      data,
		Level:     breadcrumbLevel(entry.Level),
		Timestamp: entry.Time,
	}, nil)
	return nil
}

func breadcrumbLevel(level logrus.Level) sentry.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	case logrus.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
