package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

type SentryConfig struct {
	Dsn         string `json:"dsn"`
	Environment string `json:"environment"`
}

// InitSentry configures the global sentry client, it does nothing when no
// dsn is configured.
func InitSentry(config SentryConfig) error {
	if config.Dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         config.Dsn,
		Environment: config.Environment,
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// FlushSentry waits for buffered events to be sent.
func FlushSentry(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// SentryAPI forwards every report to `next` and also sends broken reports to
// sentry as events and warnings as breadcrumbs.
type SentryAPI struct {
	next API
	hub  *sentry.Hub
}

// NewSentryAPI wraps `next`, a nil hub uses the global one.
func NewSentryAPI(next API, hub *sentry.Hub) SentryAPI {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return SentryAPI{next: next, hub: hub}
}

func sentryParams(params []any) (extra sentry.Context, err error) {
	extra = sentry.Context{}
	for i, p := range params {
		if e, ok := p.(error); ok && err == nil {
			err = e
			continue
		}
		extra[fmt.Sprintf("params.%d", i)] = fmt.Sprint(p)
	}
	return extra, err
}

func (s SentryAPI) ReportBroken(id string, params ...any) {
	s.next.ReportBroken(id, params...)

	extra, err := sentryParams(params)
	if err == nil {
		err = errors.New(id)
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("id", id)
		scope.SetContext("params", extra)
		s.hub.CaptureException(err)
	})
}

func (s SentryAPI) ReportWarning(id string, params ...any) {
	s.next.ReportWarning(id, params...)

	extra, err := sentryParams(params)
	message := id
	if err != nil {
		message = fmt.Sprintf("%s: %v", id, err)
	}
	s.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "warning",
		Message:  message,
		Level:    sentry.LevelWarning,
		Data:     extra,
	}, nil)
}

func (s SentryAPI) ReportDebug(message string, params ...any) {
	s.next.ReportDebug(message, params...)
}

func (s SentryAPI) ReportCount(id string, count int64) {
	s.next.ReportCount(id, count)
}
