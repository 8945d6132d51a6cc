// Package fetcher retrieves deliverable payloads from relational databases
// and external HTTP APIs.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/domain"
)

// Payload is a fetched deliverable payload plus retrieval metadata.
type Payload struct {
	Source     domain.OriginKind
	View       string
	URL        string
	Method     string
	StatusCode int
	FetchedAt  time.Time
	Rows       []Record
	Body       any
}

// TotalRecords is the number of rows fetched from a relational origin.
func (p *Payload) TotalRecords() int { return len(p.Rows) }

type sqlPayloadJSON struct {
	Source       string    `json:"source"`
	View         string    `json:"view"`
	TotalRecords int       `json:"totalRecords"`
	FetchedAt    time.Time `json:"fetchedAt"`
	Data         []Record  `json:"data"`
}

type apiPayloadJSON struct {
	Source     string    `json:"source"`
	URL        string    `json:"url"`
	Method     string    `json:"method"`
	StatusCode int       `json:"statusCode"`
	FetchedAt  time.Time `json:"fetchedAt"`
	Data       any       `json:"data"`
}

// MarshalJSON renders the metadata shape of the payload's origin.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p.Source == domain.OriginExternalAPI {
		return json.Marshal(apiPayloadJSON{
			Source:     p.Source.String(),
			URL:        p.URL,
			Method:     p.Method,
			StatusCode: p.StatusCode,
			FetchedAt:  p.FetchedAt,
			Data:       p.Body,
		})
	}
	rows := p.Rows
	if rows == nil {
		rows = []Record{}
	}
	return json.Marshal(sqlPayloadJSON{
		Source:       p.Source.String(),
		View:         p.View,
		TotalRecords: len(rows),
		FetchedAt:    p.FetchedAt,
		Data:         rows,
	})
}

// Observer receives one call per fetch attempt.
type Observer interface {
	ObserveFetch(kind domain.OriginKind, outcome string, elapsed time.Duration)
}

// Fetcher dispatches on origin kind. It keeps no cache: every call runs the
// query or request again.
type Fetcher struct {
	sql      *SQLFetcher
	api      *APIFetcher
	logger   *zap.Logger
	observer Observer
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithObserver reports fetch outcomes to o.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// New builds a Fetcher.
func New(sqlFetcher *SQLFetcher, apiFetcher *APIFetcher, logger *zap.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{sql: sqlFetcher, api: apiFetcher, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch decodes config for kind and retrieves the payload. Every failure is
// a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, kind domain.OriginKind, config string) (*Payload, error) {
	start := time.Now()
	payload, err := f.fetch(ctx, kind, config)
	outcome := "ok"
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			fe = newError(kind, KindQuery, err, "unexpected failure")
			err = fe
		}
		outcome = string(fe.Kind)
		f.logger.Warn("deliverable fetch failed",
			zap.String("origin", kind.String()),
			zap.String("kind", string(fe.Kind)),
			zap.Error(fe))
	}
	if f.observer != nil {
		f.observer.ObserveFetch(kind, outcome, time.Since(start))
	}
	return payload, err
}

func (f *Fetcher) fetch(ctx context.Context, kind domain.OriginKind, config string) (*Payload, error) {
	origin, err := ParseOrigin(kind, config)
	if err != nil {
		return nil, err
	}
	switch o := origin.(type) {
	case SQLOrigin:
		return f.sql.Fetch(ctx, o)
	case APIOrigin:
		return f.api.Fetch(ctx, o)
	default:
		return nil, newError(kind, KindInvalidConfig, nil, "unsupported origin")
	}
}

// Validate checks an origin configuration before first use. It never fails;
// the reason for a negative answer is logged.
func (f *Fetcher) Validate(ctx context.Context, kind domain.OriginKind, config string) bool {
	reason := f.validate(ctx, kind, config)
	if reason != nil {
		f.logger.Info("origin configuration rejected",
			zap.String("origin", kind.String()),
			zap.String("reason", reason.Error()))
		return false
	}
	return true
}

func (f *Fetcher) validate(ctx context.Context, kind domain.OriginKind, config string) error {
	origin, err := ParseOrigin(kind, config)
	if err != nil {
		return err
	}
	switch o := origin.(type) {
	case SQLOrigin:
		if o.ConnectionString == "" || o.ViewName == "" {
			return errors.New("connectionString and viewName are required")
		}
		exists, err := f.sql.ViewExists(ctx, o)
		if err != nil {
			return err
		}
		if !exists {
			return errors.New("view " + o.ViewName + " does not exist")
		}
		return nil
	case APIOrigin:
		return f.api.Check(ctx, o)
	default:
		return errors.New("unsupported origin")
	}
}

// Close releases pooled database handles.
func (f *Fetcher) Close() error {
	if f.sql == nil {
		return nil
	}
	return f.sql.Close()
}
