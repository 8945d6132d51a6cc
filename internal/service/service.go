package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/project-docs/internal/auth"
	"github.com/spec-kit/project-docs/internal/domain"
	"github.com/spec-kit/project-docs/internal/events"
	"github.com/spec-kit/project-docs/internal/repository"
	apperrors "github.com/spec-kit/project-docs/pkg/util/errorutil"
)

// DefaultPageSize applies when a listing omits pageSize.
const DefaultPageSize = 10

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) validate() error {
	if p.Page < 1 {
		return apperrors.NewValidationError("invalid pagination", "page must be greater than or equal to 1")
	}
	if p.PageSize < 1 || p.PageSize > domain.MaxPageSize {
		return apperrors.NewValidationError("invalid pagination",
			fmt.Sprintf("pageSize must be between 1 and %d", domain.MaxPageSize))
	}
	return nil
}

func (p PageRequest) offset() int { return domain.Offset(p.Page, p.PageSize) }

func newPage[T any](items []T, total int, req PageRequest) *domain.Page[T] {
	return &domain.Page[T]{Items: items, TotalCount: total, Page: req.Page, PageSize: req.PageSize}
}

// notFoundOr maps a missing row to NotFound and anything else to an internal error.
func notFoundOr(err error, resource string, id int64) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, fmt.Sprintf("%s_id=%d", resource, id))
	}
	return apperrors.MapError(err)
}

// conflictOr maps a unique index violation to Conflict.
func conflictOr(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict(message)
	}
	return apperrors.MapError(err)
}

func requireText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError("validation failed", field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return "", apperrors.NewValidationError("validation failed", fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return value, nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > 150 {
		return "", apperrors.NewValidationError("validation failed", "email is not a valid address")
	}
	return email, nil
}

func actorID(p *auth.Principal) int64 {
	if p == nil {
		return 0
	}
	return p.UserID()
}

// authorizeTarget applies policy to a target named in a request body. Without
// a gate nothing is authorized.
func authorizeTarget(ctx context.Context, gate *auth.Gate, actor *auth.Principal, policy auth.Policy, id int64) error {
	if gate == nil {
		return apperrors.NewForbidden("access denied")
	}
	return gate.Authorize(ctx, actor, policy, id)
}

// publisher emits audit events; failures are logged and never surface.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil && p.logger != nil {
		p.logger.Warn("audit event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func boolPtr(v bool) *bool { return &v }
